package download

import (
	"bufio"
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"
)

const maxRetries = 5

// Item identifies one work to download. Type stays "unknown" when the
// requester does not know the media kind; the crawler resolves it later.
type Item struct {
	ID   string
	Type string
}

// Request is a batch of works handed to the download pipeline. OnComplete,
// when set, runs exactly once after every item has finished, success or not.
type Request struct {
	Items      []Item
	OnComplete func()
}

// Downloader accepts download requests. Dispatch must not block on the
// actual transfer.
type Downloader interface {
	Dispatch(ctx context.Context, req Request) error
}

// URLResolver maps a work id to the list of page URLs to fetch.
type URLResolver func(ctx context.Context, workID string) ([]string, error)

// FileDownloader writes each page of a requested work under Dir.
type FileDownloader struct {
	Dir     string
	Resolve URLResolver

	http *http.Client
}

func NewFileDownloader(dir string, resolve URLResolver, httpClient *http.Client) *FileDownloader {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &FileDownloader{Dir: dir, Resolve: resolve, http: httpClient}
}

func (d *FileDownloader) Dispatch(ctx context.Context, req Request) error {
	if len(req.Items) == 0 {
		return errors.New("empty download request")
	}
	bg := context.WithoutCancel(ctx)
	var wg sync.WaitGroup
	for _, item := range req.Items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.download(bg, item)
		}()
	}
	go func() {
		wg.Wait()
		if req.OnComplete != nil {
			req.OnComplete()
		}
	}()
	return nil
}

func (d *FileDownloader) download(ctx context.Context, item Item) {
	urls, err := d.Resolve(ctx, item.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "resolve pages for %s: %v\n", item.ID, err)
		return
	}
	dir := filepath.Join(d.Dir, item.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", dir, err)
		return
	}
	for _, url := range urls {
		dest := filepath.Join(dir, path.Base(url))
		if err := d.fetchTo(ctx, url, dest); err != nil {
			fmt.Fprintf(os.Stderr, "download %s: %v\n", url, err)
		}
	}
}

func (d *FileDownloader) fetchTo(ctx context.Context, url, dest string) error {
	resp, err := d.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	f, err := os.Create(dest)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	r := bufio.NewReader(resp.Body)
	if _, err := r.WriteTo(f); err != nil {
		return errors.Wrapf(err, "write %s", dest)
	}
	return nil
}

func (d *FileDownloader) get(ctx context.Context, url string) (*http.Response, error) {
	var (
		resp *http.Response
		err  error
	)
	for trial := 0; trial < maxRetries; trial++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		// pximg rejects requests that do not carry a pixiv referer.
		req.Header.Set("Referer", "https://www.pixiv.net/")
		resp, err = d.http.Do(req)
		if err != nil || resp.StatusCode/100 == 5 {
			if resp != nil {
				_ = resp.Body.Close()
			}
			time.Sleep(backoffTime(50*time.Millisecond, trial))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, errors.Errorf("server responded %q with status: %s", url, resp.Status)
		}
		return resp, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error while getting resource %q", url)
	}
	return nil, errors.Errorf("failed to fetch after %d retries: %s", maxRetries, resp.Status)
}

func backoffTime(base time.Duration, retries int) time.Duration {
	if retries > 62 {
		retries = 62
	}
	// exponential backoff with jitter
	maxDur := base * (time.Duration(1) << retries)
	return time.Duration(rand.Int63n(int64(maxDur)))
}
