package view

import (
	"fmt"
	"strings"

	tuitheme "github.com/EVAyo/PixivBatchDownloader/internal/tui/theme"
	"github.com/EVAyo/PixivBatchDownloader/internal/viewer"
)

// Strip renders the thumbnail list for a multi-page work. The listID keeps
// the rendered container identifiable so a second mount attempt can detect
// an already inserted strip.
func Strip(entries []viewer.ThumbnailEntry, active, width int, listID string, th tuitheme.Theme) string {
	if len(entries) == 0 {
		return ""
	}
	header := th.Section.Render(fmt.Sprintf("images (%d)", len(entries)))
	if listID != "" {
		header += " " + th.MetaLabel.Render("#"+listID)
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")

	lineLen := 0
	for _, entry := range entries {
		label := fmt.Sprintf("[p%d]", entry.Index+1)
		if lineLen > 0 && lineLen+len(label)+1 > width {
			b.WriteString("\n")
			lineLen = 0
		}
		if lineLen > 0 {
			b.WriteString(" ")
			lineLen++
		}
		b.WriteString(th.StylePageLabel(entry.Index == active, label))
		lineLen += len(label)
	}
	return b.String()
}
