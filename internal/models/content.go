package models

import "fmt"

// ContentType selects one of the three upstream catalogs.
type ContentType int

const (
	ContentLive ContentType = iota
	ContentVOD
	ContentSeries
)

// ContentTypes lists every content type in catalog order.
var ContentTypes = []ContentType{ContentLive, ContentVOD, ContentSeries}

func (c ContentType) String() string {
	switch c {
	case ContentLive:
		return "live"
	case ContentVOD:
		return "vod"
	case ContentSeries:
		return "series"
	default:
		return fmt.Sprintf("ContentType(%d)", int(c))
	}
}

// ParseContentType accepts "live", "vod" (or "movie"), and "series".
func ParseContentType(s string) (ContentType, error) {
	switch s {
	case "live":
		return ContentLive, nil
	case "vod", "movie", "movies":
		return ContentVOD, nil
	case "series":
		return ContentSeries, nil
	default:
		return 0, fmt.Errorf("unknown content type %q", s)
	}
}
