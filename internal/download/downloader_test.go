package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDispatchRejectsEmptyRequest(t *testing.T) {
	d := NewFileDownloader(t.TempDir(), nil, nil)
	if err := d.Dispatch(context.Background(), Request{}); err == nil {
		t.Fatal("expected error for empty request")
	}
}

func TestDownloadWritesEveryPage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes-" + r.URL.Path))
	}))
	defer server.Close()

	dir := t.TempDir()
	resolve := func(ctx context.Context, workID string) ([]string, error) {
		return []string{
			server.URL + "/93919957_p0.png",
			server.URL + "/93919957_p1.png",
		}, nil
	}
	d := NewFileDownloader(dir, resolve, server.Client())

	if err := d.Dispatch(context.Background(), Request{Items: []Item{{ID: "93919957", Type: "unknown"}}}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	want := []string{"93919957_p0.png", "93919957_p1.png"}
	deadline := time.Now().Add(5 * time.Second)
	for {
		done := true
		for _, name := range want {
			if _, err := os.Stat(filepath.Join(dir, "93919957", name)); err != nil {
				done = false
			}
		}
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for downloaded files")
		}
		time.Sleep(10 * time.Millisecond)
	}

	data, err := os.ReadFile(filepath.Join(dir, "93919957", "93919957_p0.png"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(data) != "image-bytes-/93919957_p0.png" {
		t.Errorf("unexpected content: %q", data)
	}
}

func TestDispatchReportsBatchCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("image-bytes"))
	}))
	defer server.Close()

	dir := t.TempDir()
	resolve := func(ctx context.Context, workID string) ([]string, error) {
		return []string{server.URL + "/" + workID + "_p0.png"}, nil
	}
	d := NewFileDownloader(dir, resolve, server.Client())

	done := make(chan struct{})
	req := Request{
		Items:      []Item{{ID: "93919957", Type: "unknown"}, {ID: "93919958", Type: "unknown"}},
		OnComplete: func() { close(done) },
	}
	if err := d.Dispatch(context.Background(), req); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("OnComplete never fired")
	}
	for _, id := range []string{"93919957", "93919958"} {
		if _, err := os.Stat(filepath.Join(dir, id, id+"_p0.png")); err != nil {
			t.Errorf("file for %s missing after completion: %v", id, err)
		}
	}
}

func TestGetRetriesOnServerError(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	d := NewFileDownloader(t.TempDir(), nil, server.Client())
	resp, err := d.get(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if hits != 3 {
		t.Errorf("expected 3 attempts, got %d", hits)
	}
}

func TestGetGivesUpOnClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	d := NewFileDownloader(t.TempDir(), nil, server.Client())
	if _, err := d.get(context.Background(), server.URL+"/missing"); err == nil {
		t.Fatal("expected error for 404")
	}
}
