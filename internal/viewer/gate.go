// Package viewer holds the pure activation logic of the multi-page viewer:
// the gate deciding whether a work gets a viewer at all, and the thumbnail
// list derived from accepted metadata.
package viewer

import "github.com/EVAyo/PixivBatchDownloader/internal/pixiv"

// AcceptedTypes is the set of media types a multi-page viewer may activate
// for. Anything else is a silent no-op, not an error.
var AcceptedTypes = []pixiv.MediaType{
	pixiv.MediaIllustration,
	pixiv.MediaManga,
	pixiv.MediaUgoira,
}

// Decision is the outcome of gating a fetched work.
type Decision struct {
	Activate  bool
	PageCount int
	// FullBase is the first-page URL of the requested size, falling back to
	// the original size when the work has no such variant.
	FullBase string
	// ThumbBase is the first-page thumbnail URL used for the strip.
	ThumbBase string
}

// Gate decides whether the viewer activates for the work. Activation requires
// an accepted media type and at least minPages pages. A negative or zero
// threshold behaves like 1.
func Gate(art pixiv.Artwork, minPages int, size string) Decision {
	if minPages < 1 {
		minPages = 1
	}
	if !typeAccepted(art.Type) || art.PageCount < minPages {
		return Decision{}
	}

	full := art.URLs.BySize(size)
	if full == "" {
		full = art.URLs.Original
	}
	thumb := art.URLs.Thumb
	if thumb == "" {
		thumb = art.URLs.Small
	}
	return Decision{
		Activate:  true,
		PageCount: art.PageCount,
		FullBase:  full,
		ThumbBase: thumb,
	}
}

func typeAccepted(t pixiv.MediaType) bool {
	for _, accepted := range AcceptedTypes {
		if t == accepted {
			return true
		}
	}
	return false
}
