package models

// LiveStream is one entry of get_live_streams.
type LiveStream struct {
	Num          FlexInt    `json:"num"`
	Name         string     `json:"name"`
	StreamType   string     `json:"stream_type,omitempty"`
	StreamID     FlexInt    `json:"stream_id"`
	StreamIcon   string     `json:"stream_icon,omitempty"`
	EpgChannelID FlexString `json:"epg_channel_id,omitempty"`
	Added        FlexString `json:"added,omitempty"`
	IsAdult      AdultFlag  `json:"is_adult,omitempty"`
	CategoryID   FlexString `json:"category_id"`
	CustomSid    FlexString `json:"custom_sid,omitempty"`
	TVArchive    FlexInt    `json:"tv_archive"`
	DirectSource string     `json:"direct_source,omitempty"`
	TVArchiveDur FlexInt    `json:"tv_archive_duration"`
}

// VodStream is one entry of get_vod_streams.
type VodStream struct {
	Num                FlexInt    `json:"num"`
	Name               string     `json:"name"`
	StreamType         string     `json:"stream_type,omitempty"`
	StreamID           FlexInt    `json:"stream_id"`
	StreamIcon         string     `json:"stream_icon,omitempty"`
	Rating             FlexString `json:"rating,omitempty"`
	Rating5Based       float64    `json:"rating_5based"`
	Added              FlexString `json:"added,omitempty"`
	IsAdult            AdultFlag  `json:"is_adult,omitempty"`
	CategoryID         FlexString `json:"category_id"`
	ContainerExtension string     `json:"container_extension,omitempty"`
	CustomSid          FlexString `json:"custom_sid,omitempty"`
	DirectSource       string     `json:"direct_source,omitempty"`
}

// SeriesStream is one entry of get_series. Series carry no adult marker.
type SeriesStream struct {
	Num            FlexInt    `json:"num"`
	Name           string     `json:"name"`
	SeriesID       FlexInt    `json:"series_id"`
	Cover          string     `json:"cover,omitempty"`
	Plot           string     `json:"plot,omitempty"`
	Cast           string     `json:"cast,omitempty"`
	Director       string     `json:"director,omitempty"`
	Genre          string     `json:"genre,omitempty"`
	ReleaseDate    string     `json:"releaseDate,omitempty"`
	LastModified   FlexString `json:"last_modified,omitempty"`
	Rating         FlexString `json:"rating,omitempty"`
	Rating5Based   FlexString `json:"rating_5based,omitempty"`
	YoutubeTrailer string     `json:"youtube_trailer,omitempty"`
	EpisodeRunTime FlexString `json:"episode_run_time,omitempty"`
	CategoryID     FlexString `json:"category_id"`
}

// Stream is the view of a catalog entry that filtering needs.
type Stream interface {
	LiveStream | VodStream | SeriesStream
	Title() string
	Category() string
	Adult() AdultFlag
}

func (s LiveStream) Title() string    { return s.Name }
func (s LiveStream) Category() string { return string(s.CategoryID) }
func (s LiveStream) Adult() AdultFlag { return s.IsAdult }

func (s VodStream) Title() string    { return s.Name }
func (s VodStream) Category() string { return string(s.CategoryID) }
func (s VodStream) Adult() AdultFlag { return s.IsAdult }

func (s SeriesStream) Title() string    { return s.Name }
func (s SeriesStream) Category() string { return string(s.CategoryID) }
func (s SeriesStream) Adult() AdultFlag { return AdultAbsent }
