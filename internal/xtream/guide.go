package xtream

import "bytes"

var guideClose = []byte("</tv>")

// RepairGuide drops anything after the last </tv>. Some providers append
// garbage or a second partial document. Data without a closing tag is
// returned unchanged.
func RepairGuide(data []byte) []byte {
	i := bytes.LastIndex(data, guideClose)
	if i < 0 {
		return data
	}
	return data[:i+len(guideClose)]
}
