package models

// FilterSettings holds the adult filter switch and, per content type, the
// category ids an operator has already classified.
type FilterSettings struct {
	ID                          int      `json:"id,omitempty"`
	AdultFilter                 bool     `json:"adultFilter"`
	AllowedLiveCategoryIDs      []string `json:"allowedLiveCategoryIds"`
	NotAllowedLiveCategoryIDs   []string `json:"notAllowedLiveCategoryIds"`
	AllowedVodCategoryIDs       []string `json:"allowedVodCategoryIds"`
	NotAllowedVodCategoryIDs    []string `json:"notAllowedVodCategoryIds"`
	AllowedSeriesCategoryIDs    []string `json:"allowedSeriesCategoryIds"`
	NotAllowedSeriesCategoryIDs []string `json:"notAllowedSeriesCategoryIds"`
}

// Lists returns the allowed and not-allowed ids for ct.
func (f *FilterSettings) Lists(ct ContentType) (allowed, notAllowed []string) {
	switch ct {
	case ContentLive:
		return f.AllowedLiveCategoryIDs, f.NotAllowedLiveCategoryIDs
	case ContentVOD:
		return f.AllowedVodCategoryIDs, f.NotAllowedVodCategoryIDs
	case ContentSeries:
		return f.AllowedSeriesCategoryIDs, f.NotAllowedSeriesCategoryIDs
	}
	return nil, nil
}

// SetLists replaces both lists for ct.
func (f *FilterSettings) SetLists(ct ContentType, allowed, notAllowed []string) {
	if allowed == nil {
		allowed = []string{}
	}
	if notAllowed == nil {
		notAllowed = []string{}
	}
	switch ct {
	case ContentLive:
		f.AllowedLiveCategoryIDs, f.NotAllowedLiveCategoryIDs = allowed, notAllowed
	case ContentVOD:
		f.AllowedVodCategoryIDs, f.NotAllowedVodCategoryIDs = allowed, notAllowed
	case ContentSeries:
		f.AllowedSeriesCategoryIDs, f.NotAllowedSeriesCategoryIDs = allowed, notAllowed
	}
}

// Normalize replaces nil lists with empty ones so they encode as [].
func (f *FilterSettings) Normalize() {
	for _, ct := range ContentTypes {
		a, n := f.Lists(ct)
		f.SetLists(ct, a, n)
	}
}
