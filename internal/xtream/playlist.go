package xtream

import (
	"bufio"
	"bytes"
	"errors"
	"regexp"
	"strings"
)

// ErrNotPlaylist is wrapped when a get.php body is not an M3U document.
var ErrNotPlaylist = errors.New("response is not an M3U playlist")

var (
	reGroup = regexp.MustCompile(`group-title="([^"]*)"`)
	reTvgID = regexp.MustCompile(`tvg-id="([^"]*)"`)
)

// PlaylistSummary describes a downloaded playlist.
type PlaylistSummary struct {
	// Entries counts #EXTINF lines followed by a URL.
	Entries int
	// WithGuideID counts entries carrying a tvg-id.
	WithGuideID int
	// Groups holds distinct group-title values in first-seen order.
	Groups []string
}

// ScanPlaylist checks that data starts with #EXTM3U and summarises it.
// An empty playlist with a valid header is accepted.
func ScanPlaylist(data []byte) (PlaylistSummary, error) {
	var sum PlaylistSummary
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !bytes.HasPrefix(bytes.ToUpper(bytes.TrimLeft(data, " \t\r\n")), []byte("#EXTM3U")) {
		return sum, ErrNotPlaylist
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	// Some providers emit very long EXTINF lines.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	seen := make(map[string]struct{})
	var extinf string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "#EXTINF"):
			extinf = line
		case line == "" || strings.HasPrefix(line, "#"):
		default:
			if extinf == "" {
				continue
			}
			sum.Entries++
			if matchFirst(reTvgID, extinf) != "" {
				sum.WithGuideID++
			}
			if g := matchFirst(reGroup, extinf); g != "" {
				if _, ok := seen[g]; !ok {
					seen[g] = struct{}{}
					sum.Groups = append(sum.Groups, g)
				}
			}
			extinf = ""
		}
	}
	return sum, scanner.Err()
}

func matchFirst(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}
