package config

import (
	"errors"
	"fmt"
	"os"
)

const defaultBaseURL = "https://www.pixiv.net"

// Config holds process-level runtime settings.
type Config struct {
	BaseURL       string
	SessionCookie string
	DBPath        string
	DownloadDir   string
	Lang          string
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		BaseURL:       os.Getenv("PIXIV_BASE_URL"),
		SessionCookie: os.Getenv("PIXIV_SESSION"),
		DBPath:        os.Getenv("PIXIV_DB_PATH"),
		DownloadDir:   os.Getenv("PIXIV_DOWNLOAD_DIR"),
		Lang:          os.Getenv("PIXIV_LANG"),
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "pixiv-viewer.db"
	}
	if cfg.DownloadDir == "" {
		cfg.DownloadDir = "downloads"
	}
	if cfg.Lang == "" {
		cfg.Lang = "en"
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("BaseURL is required")
	}
	if c.BaseURL[len(c.BaseURL)-1] == '/' {
		return fmt.Errorf("BaseURL must not end with '/': %s", c.BaseURL)
	}
	if c.DBPath == "" {
		return errors.New("DBPath is required")
	}
	if c.Lang != "en" && c.Lang != "ja" {
		return fmt.Errorf("Lang must be en or ja: %s", c.Lang)
	}
	return nil
}

// Insertion positions for the thumbnail list relative to the mount slot.
const (
	InsertBeforeBegin = "beforebegin"
	InsertAfterBegin  = "afterbegin"
	InsertBeforeEnd   = "beforeend"
	InsertAfterEnd    = "afterend"
)

// ViewerOptions is the caller-supplied partial configuration of one viewer
// instance. Zero values mean "use the default"; the two action-button flags
// are pointers because their default is true.
type ViewerOptions struct {
	WorkID          string
	ShowImageList   bool
	ImageListID     string
	InsertTarget    string
	InsertPosition  string
	ImageNumber     int
	ImageSize       string
	ShowDownloadBtn *bool
	ShowBookmarkBtn *bool
	AutoStart       bool
	ShowLoading     bool
}

// ViewerConfig is the fully resolved, immutable configuration of one viewer
// instance.
type ViewerConfig struct {
	WorkID          string
	ShowImageList   bool
	ImageListID     string
	InsertTarget    string
	InsertPosition  string
	ImageNumber     int
	ImageSize       string
	ShowDownloadBtn bool
	ShowBookmarkBtn bool
	AutoStart       bool
	ShowLoading     bool
}

// ResolveViewer overlays the supplied options onto the defaults. It never
// fails: absent or invalid optional fields are replaced by their defaults,
// and selector syntax is not validated here. The work id defaults to the
// id of the work the host screen currently shows.
func ResolveViewer(opts ViewerOptions, currentWorkID string) ViewerConfig {
	cfg := ViewerConfig{
		WorkID:          currentWorkID,
		InsertPosition:  InsertBeforeEnd,
		ImageNumber:     2,
		ImageSize:       "original",
		ShowDownloadBtn: true,
		ShowBookmarkBtn: true,
	}

	if opts.WorkID != "" {
		cfg.WorkID = opts.WorkID
	}
	cfg.ShowImageList = opts.ShowImageList
	if opts.ImageListID != "" {
		cfg.ImageListID = opts.ImageListID
	}
	if opts.InsertTarget != "" {
		cfg.InsertTarget = opts.InsertTarget
	}
	if validInsertPosition(opts.InsertPosition) {
		cfg.InsertPosition = opts.InsertPosition
	}
	if opts.ImageNumber > 0 {
		cfg.ImageNumber = opts.ImageNumber
	}
	if validImageSize(opts.ImageSize) {
		cfg.ImageSize = opts.ImageSize
	}
	if opts.ShowDownloadBtn != nil {
		cfg.ShowDownloadBtn = *opts.ShowDownloadBtn
	}
	if opts.ShowBookmarkBtn != nil {
		cfg.ShowBookmarkBtn = *opts.ShowBookmarkBtn
	}
	cfg.AutoStart = opts.AutoStart
	cfg.ShowLoading = opts.ShowLoading
	return cfg
}

func validInsertPosition(pos string) bool {
	switch pos {
	case InsertBeforeBegin, InsertAfterBegin, InsertBeforeEnd, InsertAfterEnd:
		return true
	default:
		return false
	}
}

func validImageSize(size string) bool {
	switch size {
	case "original", "regular", "small":
		return true
	default:
		return false
	}
}
