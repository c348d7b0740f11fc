package viewer

import "github.com/EVAyo/PixivBatchDownloader/internal/pixiv"

// ThumbnailEntry pairs a page index with its strip thumbnail and the
// full-size image shown when the page is viewed.
type ThumbnailEntry struct {
	Index    int
	ThumbURL string
	FullURL  string
}

// BuildThumbnails produces the ordered thumbnail list for a gated work.
// Entries come out in page order, indices 0..pageCount-1; consumers rely on
// the position to compute the next preload target.
func BuildThumbnails(pageCount int, thumbBase, fullBase string) []ThumbnailEntry {
	if pageCount < 1 {
		return nil
	}
	entries := make([]ThumbnailEntry, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		entries = append(entries, ThumbnailEntry{
			Index:    i,
			ThumbURL: pixiv.PageURL(thumbBase, i),
			FullURL:  pixiv.PageURL(fullBase, i),
		})
	}
	return entries
}
