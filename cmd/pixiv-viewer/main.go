package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EVAyo/PixivBatchDownloader/internal/app"
	"github.com/EVAyo/PixivBatchDownloader/internal/config"
	"github.com/EVAyo/PixivBatchDownloader/internal/download"
	"github.com/EVAyo/PixivBatchDownloader/internal/pixiv"
	"github.com/EVAyo/PixivBatchDownloader/internal/storage"
	"github.com/EVAyo/PixivBatchDownloader/internal/tui"
)

func main() {
	workID := flag.String("work", "", "pixiv work id to open")
	showList := flag.Bool("list", true, "show the thumbnail list on the work screen")
	listID := flag.String("list-id", "viewer-thumbs", "identifier of the thumbnail list container")
	imageNumber := flag.Int("min-pages", 2, "minimum page count before the viewer activates")
	imageSize := flag.String("size", "original", "image size to load (original, regular, small)")
	autoStart := flag.Bool("auto", false, "open the viewer as soon as metadata arrives")
	showLoading := flag.Bool("loading", false, "show a loading indicator while fetching metadata")
	noDownloadBtn := flag.Bool("no-download-btn", false, "hide the download control")
	noBookmarkBtn := flag.Bool("no-bookmark-btn", false, "hide the bookmark control")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *workID == "" {
		log.Fatal("a work id is required: pass -work <id>")
	}

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		log.Fatalf("storage write check failed (%v). Verify PIXIV_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := pixiv.NewClient(cfg.BaseURL, cfg.SessionCookie, nil)
	resolvePages := func(ctx context.Context, id string) ([]string, error) {
		art, err := client.GetArtwork(ctx, id)
		if err != nil {
			return nil, err
		}
		urls := make([]string, 0, art.PageCount)
		for i := 0; i < art.PageCount; i++ {
			urls = append(urls, pixiv.PageURL(art.URLs.Original, i))
		}
		return urls, nil
	}
	downloader := download.NewFileDownloader(cfg.DownloadDir, resolvePages, nil)

	session := app.NewSession()
	service := app.NewService(client, repo, downloader, session)

	showDownload := !*noDownloadBtn
	showBookmark := !*noBookmarkBtn
	viewerCfg := config.ResolveViewer(config.ViewerOptions{
		WorkID:          *workID,
		ShowImageList:   *showList,
		ImageListID:     *listID,
		ImageNumber:     *imageNumber,
		ImageSize:       *imageSize,
		ShowDownloadBtn: &showDownload,
		ShowBookmarkBtn: &showBookmark,
		AutoStart:       *autoStart,
		ShowLoading:     *showLoading,
	}, *workID)

	model := tui.NewModel(service, session, viewerCfg, cfg.Lang, cfg.BaseURL)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
