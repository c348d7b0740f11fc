package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/EVAyo/PixivBatchDownloader/internal/download"
	"github.com/EVAyo/PixivBatchDownloader/internal/pixiv"
	"github.com/EVAyo/PixivBatchDownloader/internal/storage"
)

// ErrTaskInProgress is returned when a download is requested while the
// crawler is already busy.
var ErrTaskInProgress = fmt.Errorf("a task is already in progress")

type PixivClient interface {
	GetArtwork(ctx context.Context, workID string) (*pixiv.Artwork, error)
	AddBookmark(ctx context.Context, workID string, tags []string, restrict int) error
}

type Repository interface {
	SaveBookmark(ctx context.Context, record storage.BookmarkRecord) error
	RecordDownload(ctx context.Context, record storage.DownloadRecord) error
}

// Session tracks crawler busy state and whether the current download
// originated from the viewer. It is handed to every component that needs
// the flags so none of them reach for globals.
type Session struct {
	mu               sync.Mutex
	busy             bool
	downloadFromView bool
}

func NewSession() *Session {
	return &Session{}
}

// TryBeginTask marks the session busy. It reports false when a task is
// already running.
func (s *Session) TryBeginTask() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *Session) EndTask() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	s.downloadFromView = false
}

func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// MarkViewerOrigin records that the running download was started from the
// image viewer rather than the batch crawler.
func (s *Session) MarkViewerOrigin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadFromView = true
}

func (s *Session) ViewerOrigin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.downloadFromView
}

type Service struct {
	client     PixivClient
	repo       Repository
	downloader download.Downloader
	session    *Session
}

func NewService(client PixivClient, repo Repository, downloader download.Downloader, session *Session) *Service {
	return &Service{client: client, repo: repo, downloader: downloader, session: session}
}

func (s *Service) Session() *Session {
	return s.session
}

func (s *Service) FetchArtwork(ctx context.Context, workID string) (*pixiv.Artwork, error) {
	art, err := s.client.GetArtwork(ctx, workID)
	if err != nil {
		return nil, fmt.Errorf("fetch artwork %s: %w", workID, err)
	}
	return art, nil
}

// Bookmark submits the bookmark to pixiv and records it locally. Errors
// from either step propagate to the caller unchanged in meaning.
func (s *Service) Bookmark(ctx context.Context, art *pixiv.Artwork) error {
	if err := s.client.AddBookmark(ctx, art.ID, art.Tags, 0); err != nil {
		return fmt.Errorf("bookmark %s: %w", art.ID, err)
	}
	record := storage.BookmarkRecord{
		WorkID:   art.ID,
		Title:    art.Title,
		Tags:     art.Tags,
		Restrict: 0,
	}
	if err := s.repo.SaveBookmark(ctx, record); err != nil {
		return fmt.Errorf("save bookmark %s: %w", art.ID, err)
	}
	return nil
}

// RequestDownload hands the work to the download pipeline. When a task is
// already running it refuses without dispatching anything. The session stays
// busy until the downloader reports the batch finished.
func (s *Service) RequestDownload(ctx context.Context, art *pixiv.Artwork) error {
	if !s.session.TryBeginTask() {
		return ErrTaskInProgress
	}
	s.session.MarkViewerOrigin()

	req := download.Request{
		Items:      []download.Item{{ID: art.ID, Type: "unknown"}},
		OnComplete: s.session.EndTask,
	}
	if err := s.downloader.Dispatch(ctx, req); err != nil {
		s.session.EndTask()
		return fmt.Errorf("dispatch download %s: %w", art.ID, err)
	}
	record := storage.DownloadRecord{
		WorkID:    art.ID,
		PageCount: art.PageCount,
		Source:    "viewer",
	}
	if err := s.repo.RecordDownload(ctx, record); err != nil {
		return fmt.Errorf("record download %s: %w", art.ID, err)
	}
	return nil
}
