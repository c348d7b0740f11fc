package pixiv

import (
	"fmt"
	"strings"
)

// pageMarker is the page-index marker embedded in first-page image URLs,
// e.g. ".../93919957_p0.png" or ".../93919957_p0_master1200.jpg".
const pageMarker = "_p0"

// PageURL derives the URL of page index from a first-page URL by rewriting
// the page-index marker. Only the last "_p0" whose following character is a
// non-digit separator (or the end of the string) is rewritten, so digits in
// the work id or the date path are never touched. URLs without a marker are
// returned unchanged.
func PageURL(firstPage string, index int) string {
	at := markerIndex(firstPage)
	if at < 0 {
		return firstPage
	}
	return firstPage[:at] + fmt.Sprintf("_p%d", index) + firstPage[at+len(pageMarker):]
}

// HasPageMarker reports whether the URL carries a rewritable page marker.
func HasPageMarker(url string) bool {
	return markerIndex(url) >= 0
}

func markerIndex(url string) int {
	for at := strings.LastIndex(url, pageMarker); at >= 0; at = strings.LastIndex(url[:at], pageMarker) {
		tail := url[at+len(pageMarker):]
		if tail == "" || !isDigit(tail[0]) {
			return at
		}
	}
	return -1
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
