package actions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/EVAyo/PixivBatchDownloader/internal/app"
	"github.com/EVAyo/PixivBatchDownloader/internal/pixiv"
)

type fakeService struct {
	artwork  *pixiv.Artwork
	fetchErr error

	bookmarkErr error
	downloadErr error

	lastFetchDeadline    time.Time
	lastBookmarkDeadline time.Time
	lastFetchWorkID      string
	downloadCalls        int
}

func (f *fakeService) FetchArtwork(ctx context.Context, workID string) (*pixiv.Artwork, error) {
	if dl, ok := ctx.Deadline(); ok {
		f.lastFetchDeadline = dl
	}
	f.lastFetchWorkID = workID
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.artwork, nil
}

func (f *fakeService) Bookmark(ctx context.Context, _ *pixiv.Artwork) error {
	if dl, ok := ctx.Deadline(); ok {
		f.lastBookmarkDeadline = dl
	}
	return f.bookmarkErr
}

func (f *fakeService) RequestDownload(context.Context, *pixiv.Artwork) error {
	f.downloadCalls++
	return f.downloadErr
}

func testArtwork() *pixiv.Artwork {
	return &pixiv.Artwork{ID: "93919957", Title: "Sample", Type: pixiv.MediaManga, PageCount: 5}
}

func TestFetchArtworkCmd_Success(t *testing.T) {
	svc := &fakeService{artwork: testArtwork()}
	msg := FetchArtworkCmd(svc, "93919957")()

	success, ok := msg.(FetchSuccessMsg)
	if !ok {
		t.Fatalf("expected FetchSuccessMsg, got %T", msg)
	}
	if success.Artwork.ID != "93919957" {
		t.Fatalf("unexpected artwork: %+v", success.Artwork)
	}
	if svc.lastFetchWorkID != "93919957" {
		t.Fatalf("service called with %q", svc.lastFetchWorkID)
	}
	if svc.lastFetchDeadline.IsZero() {
		t.Fatal("fetch context had no deadline")
	}
}

func TestFetchArtworkCmd_Error(t *testing.T) {
	svc := &fakeService{fetchErr: errors.New("network down")}
	msg := FetchArtworkCmd(svc, "93919957")()

	if _, ok := msg.(FetchErrorMsg); !ok {
		t.Fatalf("expected FetchErrorMsg, got %T", msg)
	}
}

func TestBookmarkCmd(t *testing.T) {
	svc := &fakeService{}
	msg := BookmarkCmd(svc, testArtwork())()
	if success, ok := msg.(BookmarkSuccessMsg); !ok || success.WorkID != "93919957" {
		t.Fatalf("expected BookmarkSuccessMsg for 93919957, got %#v", msg)
	}

	svc.bookmarkErr = errors.New("401 unauthorized")
	msg = BookmarkCmd(svc, testArtwork())()
	if _, ok := msg.(BookmarkErrorMsg); !ok {
		t.Fatalf("expected BookmarkErrorMsg, got %T", msg)
	}
}

func TestDownloadCmd_BusyMapsToBusyMsg(t *testing.T) {
	svc := &fakeService{downloadErr: app.ErrTaskInProgress}
	msg := DownloadCmd(svc, testArtwork())()
	if _, ok := msg.(DownloadBusyMsg); !ok {
		t.Fatalf("expected DownloadBusyMsg, got %T", msg)
	}
}

func TestDownloadCmd_Success(t *testing.T) {
	svc := &fakeService{}
	msg := DownloadCmd(svc, testArtwork())()
	if started, ok := msg.(DownloadStartedMsg); !ok || started.WorkID != "93919957" {
		t.Fatalf("expected DownloadStartedMsg, got %#v", msg)
	}
	if svc.downloadCalls != 1 {
		t.Fatalf("expected 1 download call, got %d", svc.downloadCalls)
	}
}

func TestLoadImageCmd(t *testing.T) {
	render := func(url string) (string, int, error) {
		if url != "https://example.test/93919957_p2.png" {
			t.Fatalf("unexpected url: %s", url)
		}
		return "preview", 42, nil
	}
	msg := LoadImageCmd(2, "https://example.test/93919957_p2.png", render)()
	viewed, ok := msg.(ImageViewedMsg)
	if !ok {
		t.Fatalf("expected ImageViewedMsg, got %T", msg)
	}
	if viewed.Index != 2 || viewed.Height != 42 || viewed.Preview != "preview" {
		t.Fatalf("unexpected msg: %+v", viewed)
	}

	failing := func(string) (string, int, error) { return "", 0, errors.New("decode failed") }
	msg = LoadImageCmd(2, "x", failing)()
	if loadErr, ok := msg.(ImageLoadErrorMsg); !ok || loadErr.Index != 2 {
		t.Fatalf("expected ImageLoadErrorMsg for index 2, got %#v", msg)
	}
}

func TestPreloadCmd_SwallowsErrors(t *testing.T) {
	msg := PreloadCmd(3, "x", func(string) error { return errors.New("timeout") })()
	if msg != nil {
		t.Fatalf("expected nil msg on preload failure, got %#v", msg)
	}

	msg = PreloadCmd(3, "x", func(string) error { return nil })()
	if preloaded, ok := msg.(PreloadedMsg); !ok || preloaded.Index != 3 {
		t.Fatalf("expected PreloadedMsg for index 3, got %#v", msg)
	}
}
