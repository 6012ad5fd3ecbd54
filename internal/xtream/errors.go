package xtream

import (
	"fmt"
	"net/http"
)

// UpstreamError is returned for any failed provider call: transport error,
// non-2xx status or an undecodable body.
type UpstreamError struct {
	Action     string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("upstream %s: HTTP %d %s", e.Action, e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: HTTP %d: %v", e.Action, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Action, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
