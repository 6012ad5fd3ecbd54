package models

// ChannelMapping overrides how one upstream live channel is presented for
// an account.
type ChannelMapping struct {
	ID                string  `json:"id"`
	AccountID         string  `json:"accountId" validate:"required"`
	OriginalStreamID  string  `json:"originalStreamId" validate:"required"`
	OriginalName      string  `json:"originalName"`
	OriginalGroupName string  `json:"originalGroupName"`
	CustomName        *string `json:"customName,omitempty"`
	CustomGroupName   *string `json:"customGroupName,omitempty"`
	ChannelNumber     *int    `json:"channelNumber,omitempty" validate:"omitempty,min=-2147483648,max=2147483647"`
	IsVisible         bool    `json:"isVisible"`
	SortOrder         int     `json:"sortOrder" validate:"min=-2147483648,max=2147483647"`
}

// NewChannelMapping returns a visible mapping for the given stream.
func NewChannelMapping(accountID, streamID string) ChannelMapping {
	return ChannelMapping{AccountID: accountID, OriginalStreamID: streamID, IsVisible: true}
}

// Clone returns a copy that shares no pointers with m.
func (m ChannelMapping) Clone() ChannelMapping {
	m.CustomName = clonePtr(m.CustomName)
	m.CustomGroupName = clonePtr(m.CustomGroupName)
	m.ChannelNumber = clonePtr(m.ChannelNumber)
	return m
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
