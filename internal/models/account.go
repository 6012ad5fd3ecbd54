package models

import "strings"

// Account binds a local identifier to one upstream provider host and its
// credential policy. When Username and Password are both set they replace
// whatever credentials a caller supplies.
type Account struct {
	ID             string         `json:"id" validate:"required,max=64,excludesall=/?#"`
	Host           string         `json:"host" validate:"required,url"`
	Username       string         `json:"username,omitempty"`
	Password       string         `json:"password,omitempty"`
	FilterSettings FilterSettings `json:"filterSettings"`
}

// HasFixedCredentials reports whether the account overrides caller credentials.
func (a *Account) HasFixedCredentials() bool {
	return a.Username != "" && a.Password != ""
}

// BaseURL returns Host without a trailing slash.
func (a *Account) BaseURL() string {
	return strings.TrimRight(a.Host, "/")
}

// SameID compares account ids case-insensitively.
func SameID(a, b string) bool {
	return strings.EqualFold(a, b)
}
