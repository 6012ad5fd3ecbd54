package service

import (
	"strings"

	"github.com/voyagen/xtreamgate/internal/models"
)

func containsAdult(name string) bool {
	return strings.Contains(strings.ToLower(name), "adult")
}

// filterCategories applies the adult name filter and the allow-list for ct.
func filterCategories(cats []models.Category, fs *models.FilterSettings, ct models.ContentType) []models.Category {
	allowed, _ := fs.Lists(ct)
	allow := idSet(allowed)
	out := make([]models.Category, 0, len(cats))
	for _, c := range cats {
		if fs.AdultFilter && containsAdult(c.Name) {
			continue
		}
		if len(allow) > 0 {
			if _, ok := allow[string(c.ID)]; !ok {
				continue
			}
		}
		out = append(out, c)
	}
	return out
}

// filterStreams drops adult streams when checkAdult is set and, when keep is
// non-nil, streams whose category is not in keep.
func filterStreams[T models.Stream](streams []T, checkAdult bool, keep map[string]struct{}) []T {
	out := make([]T, 0, len(streams))
	for _, s := range streams {
		if checkAdult && (containsAdult(s.Title()) || s.Adult().IsSet()) {
			continue
		}
		if keep != nil {
			if _, ok := keep[s.Category()]; !ok {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

func idSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func categoryIDs(cats []models.Category) map[string]struct{} {
	set := make(map[string]struct{}, len(cats))
	for _, c := range cats {
		set[string(c.ID)] = struct{}{}
	}
	return set
}
