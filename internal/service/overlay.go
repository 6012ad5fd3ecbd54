package service

import (
	"cmp"
	"math"
	"slices"

	"github.com/voyagen/xtreamgate/internal/models"
)

// applyMappings hides, renames and regroups live streams, then orders them
// by mapping sort order. Unmapped streams follow in upstream order. When an
// account has several mappings for one stream the first one wins.
func applyMappings(streams []models.LiveStream, mappings []models.ChannelMapping) []models.LiveStream {
	if len(mappings) == 0 {
		return streams
	}
	byStream := make(map[string]*models.ChannelMapping, len(mappings))
	for i := range mappings {
		if _, dup := byStream[mappings[i].OriginalStreamID]; !dup {
			byStream[mappings[i].OriginalStreamID] = &mappings[i]
		}
	}

	type ordered struct {
		stream models.LiveStream
		order  int
	}
	out := make([]ordered, 0, len(streams))
	for _, s := range streams {
		m, ok := byStream[s.StreamID.String()]
		if !ok {
			out = append(out, ordered{s, math.MaxInt})
			continue
		}
		if !m.IsVisible {
			continue
		}
		if m.CustomName != nil && *m.CustomName != "" {
			s.Name = *m.CustomName
		}
		if m.CustomGroupName != nil && *m.CustomGroupName != "" {
			s.CategoryID = models.FlexString(*m.CustomGroupName)
		}
		if m.ChannelNumber != nil {
			s.Num = models.FlexInt(*m.ChannelNumber)
		}
		out = append(out, ordered{s, m.SortOrder})
	}
	slices.SortStableFunc(out, func(a, b ordered) int { return cmp.Compare(a.order, b.order) })

	result := make([]models.LiveStream, len(out))
	for i, o := range out {
		result[i] = o.stream
	}
	return result
}
