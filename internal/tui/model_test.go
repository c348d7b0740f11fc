package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EVAyo/PixivBatchDownloader/internal/app"
	"github.com/EVAyo/PixivBatchDownloader/internal/config"
	"github.com/EVAyo/PixivBatchDownloader/internal/pixiv"
	"github.com/EVAyo/PixivBatchDownloader/internal/tui/actions"
)

type fakeService struct {
	artwork     *pixiv.Artwork
	fetchErr    error
	bookmarkErr error
	downloadErr error

	bookmarks int
	downloads int
}

func (f *fakeService) FetchArtwork(context.Context, string) (*pixiv.Artwork, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return f.artwork, nil
}

func (f *fakeService) Bookmark(context.Context, *pixiv.Artwork) error {
	f.bookmarks++
	return f.bookmarkErr
}

func (f *fakeService) RequestDownload(context.Context, *pixiv.Artwork) error {
	if f.downloadErr != nil {
		return f.downloadErr
	}
	f.downloads++
	return nil
}

func mangaArtwork(pages int) *pixiv.Artwork {
	return &pixiv.Artwork{
		ID:        "93919957",
		Title:     "Spring Pages",
		UserName:  "someone",
		Type:      pixiv.MediaManga,
		PageCount: pages,
		URLs: pixiv.ImageURLs{
			Thumb:    "https://i.pximg.net/c/250x250/img/93919957_p0_square1200.jpg",
			Small:    "https://i.pximg.net/c/540x540/img/93919957_p0_master1200.jpg",
			Regular:  "https://i.pximg.net/img-master/img/93919957_p0_master1200.jpg",
			Original: "https://i.pximg.net/img-original/img/93919957_p0.png",
		},
	}
}

type recorder struct {
	renderedURLs  []string
	preloadedURLs []string
	openedURLs    []string
}

func newTestModel(svc *fakeService, opts config.ViewerOptions, rec *recorder) Model {
	cfg := config.ResolveViewer(opts, "93919957")
	m := NewModel(svc, app.NewSession(), cfg, "en", "https://www.pixiv.net")
	m.renderImageFn = func(url string) (string, int, error) {
		rec.renderedURLs = append(rec.renderedURLs, url)
		return "PREVIEW " + url, 30, nil
	}
	m.preloadFn = func(url string) error {
		rec.preloadedURLs = append(rec.preloadedURLs, url)
		return nil
	}
	m.openURLFn = func(url string) error {
		rec.openedURLs = append(rec.openedURLs, url)
		return nil
	}
	return m
}

func sized(t *testing.T, m Model) Model {
	t.Helper()
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model)
}

func fetched(t *testing.T, m Model, art *pixiv.Artwork) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(actions.FetchSuccessMsg{Artwork: art})
	return updated.(Model), cmd
}

func keyPress(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestFetch_SinglePageGatesOut(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))

	m, cmd := fetched(t, m, mangaArtwork(1))
	if m.State() != StateGatedOut {
		t.Fatalf("expected gated-out, got %s", m.State())
	}
	if cmd != nil {
		t.Fatal("gated-out fetch scheduled work")
	}
	if m.pane != nil || len(m.thumbs) != 0 {
		t.Fatal("gated-out viewer mutated pane state")
	}

	m, _ = keyPress(t, m, "enter")
	if m.State() != StateGatedOut {
		t.Fatalf("gated-out state changed to %s", m.State())
	}
}

func TestFetch_MultiPageBecomesReady(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))

	m, cmd := fetched(t, m, mangaArtwork(5))
	if m.State() != StateReady {
		t.Fatalf("expected ready, got %s", m.State())
	}
	if len(m.thumbs) != 5 {
		t.Fatalf("expected 5 thumbnails, got %d", len(m.thumbs))
	}
	if m.pane == nil || m.pane.PageCount() != 5 {
		t.Fatal("pane not configured")
	}
	if cmd == nil {
		t.Fatal("expected mount tick to be scheduled")
	}
}

func TestMountTick_WaitsForHostSlot(t *testing.T) {
	rec := &recorder{}
	m := newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec)
	m, _ = fetched(t, m, mangaArtwork(5))

	updated, cmd := m.Update(actions.MountTickMsg{Gen: m.gen})
	m = updated.(Model)
	if m.mounted {
		t.Fatal("mounted without a host slot")
	}
	if cmd == nil {
		t.Fatal("poll was not rescheduled")
	}
	if strings.Contains(m.View(), "images (5)") {
		t.Fatal("strip rendered before mount")
	}

	m = sized(t, m)
	updated, _ = m.Update(actions.MountTickMsg{Gen: m.gen})
	m = updated.(Model)
	if !m.mounted {
		t.Fatal("slot present but not mounted")
	}
	if !strings.Contains(m.View(), "images (5)") {
		t.Fatalf("strip missing after mount:\n%s", m.View())
	}
}

func TestMountTick_StaleGenerationIsInert(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))

	updated, cmd := m.Update(actions.MountTickMsg{Gen: m.gen - 1})
	m = updated.(Model)
	if m.mounted {
		t.Fatal("stale tick mounted the strip")
	}
	if cmd != nil {
		t.Fatal("stale tick rescheduled itself")
	}
}

func TestMountTick_DisabledImageListNeverMounts(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{}, rec))
	m, cmd := fetched(t, m, mangaArtwork(5))
	if cmd != nil {
		t.Fatal("mount polling scheduled with image list disabled")
	}

	updated, _ := m.Update(actions.MountTickMsg{Gen: m.gen})
	m = updated.(Model)
	if m.mounted || strings.Contains(m.View(), "images (") {
		t.Fatal("strip appeared despite disabled image list")
	}
}

func TestShowHide_SnapshotsAndRestoresHostScroll(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m.hostScroll = 7

	m, cmd := keyPress(t, m, "enter")
	if m.State() != StateShowing {
		t.Fatalf("expected showing, got %s", m.State())
	}
	if m.scrollSnapshot != 7 {
		t.Fatalf("scroll not snapshotted: %d", m.scrollSnapshot)
	}
	if cmd == nil {
		t.Fatal("no image load scheduled on show")
	}
	m.hostScroll = 0

	m, _ = keyPress(t, m, "esc")
	if m.State() != StateHidden {
		t.Fatalf("expected hidden, got %s", m.State())
	}
	if m.hostScroll != 7 {
		t.Fatalf("host scroll not restored: %d", m.hostScroll)
	}

	m, _ = keyPress(t, m, "enter")
	if m.State() != StateShowing {
		t.Fatalf("reopen failed, got %s", m.State())
	}
}

func TestNavigation_WrapsWithoutTouchingHost(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	m.index = 4
	m.pane.SetIndex(4)
	m, _ = keyPress(t, m, "right")
	if m.index != 0 {
		t.Fatalf("expected wrap to 0, got %d", m.index)
	}
	if m.status != "" {
		t.Fatalf("page navigation leaked to host: %q", m.status)
	}

	m, _ = keyPress(t, m, "left")
	if m.index != 4 {
		t.Fatalf("expected wrap back to 4, got %d", m.index)
	}

	m, _ = keyPress(t, m, "esc")
	m, _ = keyPress(t, m, "right")
	if m.status != "Next work" {
		t.Fatalf("host navigation missing, status %q", m.status)
	}
}

func TestFullscreen_SettleAppliesZoomAndCentering(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	updated, _ := m.Update(actions.ImageViewedMsg{Index: 0, Height: 100, Preview: "P"})
	m = updated.(Model)

	m, cmd := keyPress(t, m, "f")
	if !m.fullscreen || !m.chromeHidden {
		t.Fatal("fullscreen entry did not hide chrome")
	}
	if m.zoom != 0 {
		t.Fatalf("zoom applied before settle: %v", m.zoom)
	}
	if cmd == nil {
		t.Fatal("no settle tick scheduled")
	}

	updated, _ = m.Update(actions.FullscreenSettleMsg{Gen: m.gen})
	m = updated.(Model)
	if m.zoom != 1.0 {
		t.Fatalf("zoom not reset on settle: %v", m.zoom)
	}
	wantCenter := (100 - m.viewportRows()) / 2
	if m.centerOff != wantCenter {
		t.Fatalf("center offset = %d, want %d", m.centerOff, wantCenter)
	}

	m, _ = keyPress(t, m, "esc")
	if m.fullscreen || m.chromeHidden {
		t.Fatal("fullscreen exit incomplete")
	}
	if m.zoom != 0 || m.centerOff != 0 {
		t.Fatal("zoom state survived fullscreen exit")
	}
	if m.State() != StateShowing {
		t.Fatalf("leaving fullscreen closed the pane: %s", m.State())
	}
}

func TestFullscreen_PageViewForcesActualSizeBeforeSettle(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")
	m, _ = keyPress(t, m, "f")

	updated, _ := m.Update(actions.ImageViewedMsg{Index: 0, Height: 100, Preview: "P"})
	m = updated.(Model)
	if m.zoom != 1.0 {
		t.Fatalf("page view while fullscreen left zoom at %v", m.zoom)
	}
	wantCenter := (100 - m.viewportRows()) / 2
	if m.centerOff != wantCenter {
		t.Fatalf("center offset = %d, want %d", m.centerOff, wantCenter)
	}

	updated, _ = m.Update(actions.ImageViewedMsg{Index: 2, Height: 100, Preview: "P2"})
	m = updated.(Model)
	if m.centerOff != wantCenter {
		t.Fatal("view of a page that is not on screen moved the centering")
	}
}

func TestFullscreenSettle_StaleOrLateTicksAreInert(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")
	m, _ = keyPress(t, m, "f")

	updated, _ := m.Update(actions.FullscreenSettleMsg{Gen: m.gen + 1})
	m = updated.(Model)
	if m.zoom != 0 {
		t.Fatalf("stale settle tick applied zoom: %v", m.zoom)
	}

	m, _ = keyPress(t, m, "esc")
	updated, _ = m.Update(actions.FullscreenSettleMsg{Gen: m.gen})
	m = updated.(Model)
	if m.zoom != 0 {
		t.Fatalf("settle tick after exit applied zoom: %v", m.zoom)
	}
}

func TestPreload_WarmsNextPageOnly(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	updated, cmd := m.Update(actions.ImageViewedMsg{Index: 0, Height: 30, Preview: "P0"})
	m = updated.(Model)
	if cmd == nil {
		t.Fatal("no preload scheduled after first page view")
	}
	msg := cmd()
	preloadedMsg, ok := msg.(actions.PreloadedMsg)
	if !ok || preloadedMsg.Index != 1 {
		t.Fatalf("expected PreloadedMsg for page 1, got %#v", msg)
	}
	if len(rec.preloadedURLs) != 1 || !strings.Contains(rec.preloadedURLs[0], "_p1.") {
		t.Fatalf("unexpected preload urls: %v", rec.preloadedURLs)
	}

	updated, cmd = m.Update(actions.ImageViewedMsg{Index: 4, Height: 30, Preview: "P4"})
	if cmd != nil {
		t.Fatal("preload scheduled past the last page")
	}
	_ = updated
}

func TestDownload_BusySessionShowsToastWithoutDispatch(t *testing.T) {
	rec := &recorder{}
	svc := &fakeService{}
	m := sized(t, newTestModel(svc, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	m.session.TryBeginTask()
	m, cmd := keyPress(t, m, "d")
	if svc.downloads != 0 {
		t.Fatal("download dispatched while busy")
	}
	if m.status != "The last task is not finished yet" {
		t.Fatalf("unexpected status: %q", m.status)
	}
	if cmd == nil {
		t.Fatal("busy toast not scheduled to clear")
	}
}

func TestDownload_IdleSessionDispatches(t *testing.T) {
	rec := &recorder{}
	svc := &fakeService{}
	m := sized(t, newTestModel(svc, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	_, cmd := keyPress(t, m, "d")
	if cmd == nil {
		t.Fatal("no download command issued")
	}
	msg := cmd()
	if started, ok := msg.(actions.DownloadStartedMsg); !ok || started.WorkID != "93919957" {
		t.Fatalf("expected DownloadStartedMsg, got %#v", msg)
	}
	if svc.downloads != 1 {
		t.Fatalf("expected 1 dispatch, got %d", svc.downloads)
	}
}

func TestAutoStart_ShowsImmediately(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{AutoStart: true}, rec))
	m, cmd := fetched(t, m, mangaArtwork(5))
	if m.State() != StateShowing {
		t.Fatalf("expected showing after auto start, got %s", m.State())
	}
	if cmd == nil {
		t.Fatal("auto start did not schedule the first page load")
	}
}

func TestControls_InjectedOncePerConfiguration(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))

	m, _ = keyPress(t, m, "enter")
	m, _ = keyPress(t, m, "esc")
	m, _ = keyPress(t, m, "enter")

	controls := m.pane.Controls()
	if len(controls) != 2 {
		t.Fatalf("expected 2 controls, got %d", len(controls))
	}
	if controls[0].ID != controlDownload || controls[1].ID != controlBookmark {
		t.Fatalf("unexpected control order: %s, %s", controls[0].ID, controls[1].ID)
	}
}

func TestControls_RespectButtonConfig(t *testing.T) {
	rec := &recorder{}
	hide := false
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowDownloadBtn: &hide}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	controls := m.pane.Controls()
	if len(controls) != 1 || controls[0].ID != controlBookmark {
		t.Fatalf("unexpected controls: %+v", controls)
	}
}

func TestOneToOne_EntersFullscreenThroughBinding(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	m, cmd := keyPress(t, m, "1")
	if !m.fullscreen {
		t.Fatal("1:1 control did not enter fullscreen")
	}
	if cmd == nil {
		t.Fatal("no settle tick after 1:1 activation")
	}
}

func TestFetchError_SurfacesWarning(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{}, rec))

	updated, _ := m.Update(actions.FetchErrorMsg{Err: errors.New("network down")})
	m = updated.(Model)
	if m.err == nil {
		t.Fatal("fetch error not recorded")
	}
	if !strings.Contains(m.View(), "network down") {
		t.Fatalf("warning missing from view:\n%s", m.View())
	}
}

func TestBookmarkKey_ShowsProgressThenResult(t *testing.T) {
	rec := &recorder{}
	svc := &fakeService{}
	m := sized(t, newTestModel(svc, config.ViewerOptions{}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	m, cmd := keyPress(t, m, "alt+b")
	if m.status != "Adding bookmark..." {
		t.Fatalf("unexpected progress status: %q", m.status)
	}
	if cmd == nil {
		t.Fatal("no bookmark command issued")
	}
	msg := cmd()
	updated, clearCmd := m.Update(msg)
	m = updated.(Model)
	if m.status != "Bookmarked" {
		t.Fatalf("unexpected result status: %q", m.status)
	}
	if clearCmd == nil {
		t.Fatal("result toast not scheduled to clear")
	}
	if svc.bookmarks != 1 {
		t.Fatalf("expected 1 bookmark call, got %d", svc.bookmarks)
	}
}

func TestQuit_DestroysViewer(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")
	gen := m.gen

	m, cmd := keyPress(t, m, "q")
	if m.State() != StateDestroyed {
		t.Fatalf("expected destroyed, got %s", m.State())
	}
	if m.gen == gen {
		t.Fatal("generation not bumped on destroy")
	}
	if m.pane.Visible() {
		t.Fatal("pane still visible after destroy")
	}
	if cmd == nil {
		t.Fatal("quit command missing")
	}
}

func TestShowing_RendersControlsRowAndHotkeyHint(t *testing.T) {
	rec := &recorder{}
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, mangaArtwork(5))
	m, _ = keyPress(t, m, "enter")

	out := m.View()
	for _, label := range []string{"View at actual size", "Download this work", "Bookmark this work", "rotate", "flip"} {
		if !strings.Contains(out, label) {
			t.Fatalf("control %q missing from view:\n%s", label, out)
		}
	}
	if !strings.Contains(out, "f: fullscreen | d: download | alt+b: bookmark") {
		t.Fatalf("hotkey hint missing from view:\n%s", out)
	}

	m, _ = keyPress(t, m, "f")
	if strings.Contains(m.View(), "Download this work") {
		t.Fatal("controls row rendered while chrome is hidden")
	}
}

func TestHostView_CollapsesDescriptionWhileShowing(t *testing.T) {
	rec := &recorder{}
	art := mangaArtwork(5)
	art.Description = "first paragraph<br>second paragraph"
	m := sized(t, newTestModel(&fakeService{}, config.ViewerOptions{ShowImageList: true}, rec))
	m, _ = fetched(t, m, art)

	out := m.View()
	if !strings.Contains(out, "second paragraph") {
		t.Fatalf("description missing from host view:\n%s", out)
	}
	if strings.Contains(out, "first paragraph second paragraph") {
		t.Fatal("description collapsed before the pane opened")
	}

	m, _ = keyPress(t, m, "enter")
	if !strings.Contains(m.View(), "first paragraph second paragraph") {
		t.Fatalf("description not collapsed while showing:\n%s", m.View())
	}
}
