package state

import (
	"github.com/EVAyo/PixivBatchDownloader/internal/pixiv"
)

// WrapIndex moves index by delta with wraparound over size items.
func WrapIndex(index, delta, size int) int {
	if size <= 0 {
		return 0
	}
	next := (index + delta) % size
	if next < 0 {
		next += size
	}
	return next
}

// CenterOffset reports how many rows the image should shift up so a page
// taller than the viewport sits centered. Only sequential-page works get
// centered; everything else renders from the top.
func CenterOffset(mediaType pixiv.MediaType, imageHeight, viewportHeight int) int {
	if mediaType != pixiv.MediaManga {
		return 0
	}
	if imageHeight <= viewportHeight {
		return 0
	}
	return (imageHeight - viewportHeight) / 2
}

// MaxTop is the largest valid scroll offset for content of the given height.
func MaxTop(contentHeight, viewportHeight int) int {
	max := contentHeight - viewportHeight
	if max < 0 {
		return 0
	}
	return max
}

// ClampScroll keeps a scroll offset within the content bounds.
func ClampScroll(top, contentHeight, viewportHeight int) int {
	if top < 0 {
		return 0
	}
	if max := MaxTop(contentHeight, viewportHeight); top > max {
		return max
	}
	return top
}

// ClampCursor keeps a cursor inside a list of the given size.
func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

// CenteredWindow returns the half-open row range to render so the cursor
// stays near the middle of a viewport of the given height.
func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}
