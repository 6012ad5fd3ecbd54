package models

// EpgListing is one programme returned by get_short_epg / get_simple_data_table.
type EpgListing struct {
	ID             FlexString `json:"id"`
	EpgID          FlexString `json:"epg_id"`
	Title          string     `json:"title"`
	Lang           string     `json:"lang"`
	Start          string     `json:"start"`
	End            string     `json:"end"`
	Description    string     `json:"description"`
	ChannelID      string     `json:"channel_id"`
	StartTimestamp FlexString `json:"start_timestamp"`
	StopTimestamp  FlexString `json:"stop_timestamp"`
	NowPlaying     FlexInt    `json:"now_playing"`
	HasArchive     FlexInt    `json:"has_archive"`
}

// EpgListings wraps the epg_listings array.
type EpgListings struct {
	Listings []EpgListing `json:"epg_listings"`
}
