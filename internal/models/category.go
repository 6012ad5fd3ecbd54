package models

// Category is an upstream genre/grouping for live, VOD, or series content.
// Only its id is ever persisted, inside FilterSettings.
type Category struct {
	ID       FlexString `json:"category_id"`
	Name     string     `json:"category_name"`
	ParentID FlexInt    `json:"parent_id"`
}

// CategoryRefreshResult reports upstream categories that are in neither the
// allowed nor the not-allowed list of an account.
type CategoryRefreshResult struct {
	NewCategories []Category `json:"newCategories"`
	HasChanges    bool       `json:"hasChanges"`
}
