package view

import (
	"fmt"
	"strings"

	tuitheme "github.com/EVAyo/PixivBatchDownloader/internal/tui/theme"
)

// Toolbar lists the hotkeys available in the current viewer mode. The
// fullscreen toolbar is intentionally sparse since chrome is hidden there.
func Toolbar(showing, fullscreen bool) string {
	if fullscreen {
		return "f/esc: leave fullscreen | left/right: pages | q: quit"
	}
	if showing {
		return "left/right: pages | f: fullscreen | 1: 1:1 | d: download | alt+b: bookmark | o: open in browser | esc: close | q: quit"
	}
	return "enter: open viewer | left/right: prev/next work | j/k: scroll | o: open in browser | q: quit"
}

// Footer summarizes pane position and zoom.
func Footer(index, pages int, zoom float64, fullscreen bool, th tuitheme.Theme) string {
	zoomLabel := "fit"
	if zoom > 0 {
		zoomLabel = fmt.Sprintf("%.0f%%", zoom*100)
	}
	parts := []string{
		th.MetaLabel.Render("page") + " " + th.MetaValue.Render(fmt.Sprintf("%d/%d", index+1, pages)),
		th.MetaLabel.Render("zoom") + " " + th.MetaValue.Render(zoomLabel),
	}
	if fullscreen {
		parts = append(parts, th.ModePill.Render("fullscreen"))
	}
	return strings.Join(parts, " • ")
}

// Message renders the one-line status area below the pane.
func Message(loading bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	if loading {
		state = "loading"
	}
	if warning != "" {
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if warning != "" {
		main = warning
	}
	stateLabel := th.StateIdle.Render("state")
	switch state {
	case "warning":
		stateLabel = th.StateWarn.Render("state")
	case "loading":
		stateLabel = th.StateLoad.Render("state")
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}
