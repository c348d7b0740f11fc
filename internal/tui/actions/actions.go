package actions

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EVAyo/PixivBatchDownloader/internal/app"
	"github.com/EVAyo/PixivBatchDownloader/internal/pixiv"
)

const (
	// MountPollInterval is how often the viewer checks whether its host
	// slot exists before inserting the thumbnail strip.
	MountPollInterval = 300 * time.Millisecond

	// FullscreenSettleDelay is the pause after entering fullscreen before
	// the zoom reset is applied, so the layout has finished resizing.
	FullscreenSettleDelay = 150 * time.Millisecond
)

type Service interface {
	FetchArtwork(ctx context.Context, workID string) (*pixiv.Artwork, error)
	Bookmark(ctx context.Context, art *pixiv.Artwork) error
	RequestDownload(ctx context.Context, art *pixiv.Artwork) error
}

type FetchSuccessMsg struct {
	Artwork  *pixiv.Artwork
	Duration time.Duration
}

type FetchErrorMsg struct {
	Err      error
	Duration time.Duration
}

type BookmarkSuccessMsg struct {
	WorkID string
}

type BookmarkErrorMsg struct {
	Err error
}

type DownloadStartedMsg struct {
	WorkID string
}

type DownloadBusyMsg struct{}

type DownloadErrorMsg struct {
	Err error
}

// ImageViewedMsg reports that a page finished loading on screen.
type ImageViewedMsg struct {
	Index   int
	Height  int
	Preview string
}

type ImageLoadErrorMsg struct {
	Index int
	Err   error
}

type PreloadedMsg struct {
	Index int
}

// MountTickMsg carries the generation it was scheduled under so ticks from
// an abandoned mount attempt can be discarded.
type MountTickMsg struct {
	Gen int
}

// FullscreenSettleMsg fires once the fullscreen layout has settled.
type FullscreenSettleMsg struct {
	Gen int
}

type ClearStatusMsg struct {
	ID int
}

func FetchArtworkCmd(service Service, workID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		start := time.Now()

		art, err := service.FetchArtwork(ctx, workID)
		if err != nil {
			return FetchErrorMsg{Err: err, Duration: time.Since(start)}
		}
		return FetchSuccessMsg{Artwork: art, Duration: time.Since(start)}
	}
}

func BookmarkCmd(service Service, art *pixiv.Artwork) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := service.Bookmark(ctx, art); err != nil {
			return BookmarkErrorMsg{Err: err}
		}
		return BookmarkSuccessMsg{WorkID: art.ID}
	}
}

func DownloadCmd(service Service, art *pixiv.Artwork) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := service.RequestDownload(ctx, art); err != nil {
			if errors.Is(err, app.ErrTaskInProgress) {
				return DownloadBusyMsg{}
			}
			return DownloadErrorMsg{Err: err}
		}
		return DownloadStartedMsg{WorkID: art.ID}
	}
}

// LoadImageCmd renders one page through the injected renderer. The renderer
// returns the drawn preview and its height in rows.
func LoadImageCmd(index int, url string, renderFn func(url string) (string, int, error)) tea.Cmd {
	return func() tea.Msg {
		preview, height, err := renderFn(url)
		if err != nil {
			return ImageLoadErrorMsg{Index: index, Err: err}
		}
		return ImageViewedMsg{Index: index, Height: height, Preview: preview}
	}
}

// PreloadCmd warms the next page. Failures are reported but never surface
// to the user; the page just loads cold later.
func PreloadCmd(index int, url string, fetchFn func(url string) error) tea.Cmd {
	return func() tea.Msg {
		if fetchFn == nil {
			return nil
		}
		if err := fetchFn(url); err != nil {
			return nil
		}
		return PreloadedMsg{Index: index}
	}
}

func MountTickCmd(gen int) tea.Cmd {
	return tea.Tick(MountPollInterval, func(time.Time) tea.Msg {
		return MountTickMsg{Gen: gen}
	})
}

func SettleTickCmd(gen int) tea.Cmd {
	return tea.Tick(FullscreenSettleDelay, func(time.Time) tea.Msg {
		return FullscreenSettleMsg{Gen: gen}
	})
}

func ClearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}
