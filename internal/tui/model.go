package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/EVAyo/PixivBatchDownloader/internal/app"
	"github.com/EVAyo/PixivBatchDownloader/internal/config"
	"github.com/EVAyo/PixivBatchDownloader/internal/i18n"
	"github.com/EVAyo/PixivBatchDownloader/internal/pixiv"
	"github.com/EVAyo/PixivBatchDownloader/internal/render/caption"
	"github.com/EVAyo/PixivBatchDownloader/internal/tui/actions"
	"github.com/EVAyo/PixivBatchDownloader/internal/tui/platform"
	tuistate "github.com/EVAyo/PixivBatchDownloader/internal/tui/state"
	"github.com/EVAyo/PixivBatchDownloader/internal/tui/theme"
	"github.com/EVAyo/PixivBatchDownloader/internal/tui/view"
	"github.com/EVAyo/PixivBatchDownloader/internal/tui/widget"
	"github.com/EVAyo/PixivBatchDownloader/internal/viewer"
)

// ViewerState tracks the lifecycle of one viewer instance. GatedOut and
// Destroyed are terminal.
type ViewerState int

const (
	StateIdle ViewerState = iota
	StateLoading
	StateGatedOut
	StateReady
	StateShowing
	StateHidden
	StateDestroyed
)

func (s ViewerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StateGatedOut:
		return "gated-out"
	case StateReady:
		return "ready"
	case StateShowing:
		return "showing"
	case StateHidden:
		return "hidden"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

const (
	defaultMountSlot = "work-meta"
	hostContentRows  = 60

	controlDownload = "download"
	controlBookmark = "bookmark"
)

type Model struct {
	service  actions.Service
	session  *app.Session
	cfg      config.ViewerConfig
	th       theme.Theme
	messages i18n.Table

	state ViewerState
	// gen invalidates pending mount and settle ticks; every transition
	// that abandons scheduled work bumps it.
	gen int

	artwork  *pixiv.Artwork
	decision viewer.Decision
	thumbs   []viewer.ThumbnailEntry
	pane     *widget.Pane

	hostSlots map[string]bool
	mounted   bool

	index        int
	fullscreen   bool
	chromeHidden bool
	zoom         float64
	centerOff    int
	paneTop      int

	hostScroll     int
	scrollSnapshot int

	previews  map[int]string
	heights   map[int]int
	preloaded map[int]bool

	width  int
	height int

	loading  bool
	status   string
	statusID int
	err      error

	// oneToOneFired is shared with the pane's 1:1 control so its bound
	// action survives the value-copy Update cycle.
	oneToOneFired *bool

	renderImageFn func(url string) (string, int, error)
	preloadFn     func(url string) error
	openURLFn     func(string) error
	baseURL       string
}

func NewModel(service actions.Service, session *app.Session, cfg config.ViewerConfig, lang, baseURL string) Model {
	fired := false
	m := Model{
		service:       service,
		session:       session,
		cfg:           cfg,
		th:            theme.Default(),
		messages:      i18n.New(lang),
		state:         StateIdle,
		hostSlots:     make(map[string]bool),
		previews:      make(map[int]string),
		heights:       make(map[int]int),
		preloaded:     make(map[int]bool),
		oneToOneFired: &fired,
		openURLFn:     platform.OpenURLInBrowser,
		preloadFn:     view.PrefetchImage,
		renderImageFn: defaultRenderImage,
		baseURL:       baseURL,
	}
	return m
}

func defaultRenderImage(url string) (string, int, error) {
	preview, err := view.RenderImagePreview(url, 0, view.DefaultPreviewRows)
	if err != nil {
		return "", 0, err
	}
	return preview, view.KittyRenderedLineCount(preview), nil
}

func (m Model) State() ViewerState { return m.state }

func (m Model) Init() tea.Cmd {
	if m.service == nil || m.cfg.WorkID == "" {
		return nil
	}
	return actions.FetchArtworkCmd(m.service, m.cfg.WorkID)
}

func (m Model) mountSlot() string {
	if m.cfg.InsertTarget != "" {
		return m.cfg.InsertTarget
	}
	return defaultMountSlot
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// The host layout exists once the first size report arrives.
		m.hostSlots[defaultMountSlot] = true
		if m.state == StateIdle && m.service != nil && m.cfg.WorkID != "" {
			m.state = StateLoading
			m.loading = m.cfg.ShowLoading
			return m, actions.FetchArtworkCmd(m.service, m.cfg.WorkID)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case actions.FetchSuccessMsg:
		return m.handleFetched(msg)

	case actions.FetchErrorMsg:
		m.loading = false
		m.state = StateIdle
		m.err = msg.Err
		return m, nil

	case actions.MountTickMsg:
		if msg.Gen != m.gen || m.state == StateDestroyed || m.state == StateGatedOut {
			return m, nil
		}
		if !m.cfg.ShowImageList || m.mounted {
			return m, nil
		}
		if !m.hostSlots[m.mountSlot()] {
			return m, actions.MountTickCmd(m.gen)
		}
		m.mounted = true
		return m, nil

	case actions.FullscreenSettleMsg:
		if msg.Gen != m.gen || !m.fullscreen || m.state != StateShowing {
			return m, nil
		}
		m.zoom = 1.0
		m.centerOff = tuistate.CenterOffset(m.artwork.Type, m.heights[m.index], m.viewportRows())
		m.paneTop = 0
		return m, nil

	case actions.ImageViewedMsg:
		m.previews[msg.Index] = msg.Preview
		m.heights[msg.Index] = msg.Height
		if m.fullscreen && msg.Index == m.index {
			m.zoom = 1.0
			m.centerOff = tuistate.CenterOffset(m.artwork.Type, msg.Height, m.viewportRows())
		}
		return m, m.preloadNextCmd(msg.Index)

	case actions.ImageLoadErrorMsg:
		m.err = msg.Err
		return m, nil

	case actions.PreloadedMsg:
		m.preloaded[msg.Index] = true
		return m, nil

	case actions.BookmarkSuccessMsg:
		m.err = nil
		return m.transientStatus(m.messages.T("bookmarked"), 3*time.Second)

	case actions.BookmarkErrorMsg:
		m.status = ""
		m.err = msg.Err
		return m, nil

	case actions.DownloadStartedMsg:
		m.err = nil
		return m.transientStatus(m.messages.T("download_started"), 3*time.Second)

	case actions.DownloadBusyMsg:
		return m.transientStatus(m.messages.T("download_busy"), 4*time.Second)

	case actions.DownloadErrorMsg:
		m.status = ""
		m.err = msg.Err
		return m, nil

	case actions.ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleFetched(msg actions.FetchSuccessMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	m.artwork = msg.Artwork

	decision := viewer.Gate(*msg.Artwork, m.cfg.ImageNumber, m.cfg.ImageSize)
	if !decision.Activate {
		m.state = StateGatedOut
		return m, nil
	}

	m.state = StateReady
	m.decision = decision
	m.thumbs = viewer.BuildThumbnails(decision.PageCount, decision.ThumbBase, decision.FullBase)
	m.pane = widget.NewPane(widget.Options{
		URLResolver: func(index int) string {
			return pixiv.PageURL(decision.FullBase, index)
		},
		Toolbar: widget.ToolbarOptions{
			Prev:     true,
			Next:     true,
			Fit:      true,
			OneToOne: true,
		},
	})
	m.pane.SetPageCount(decision.PageCount)
	fired := m.oneToOneFired
	m.pane.BindOneToOne(func() { *fired = true })

	var cmds []tea.Cmd
	if m.cfg.ShowImageList {
		cmds = append(cmds, actions.MountTickCmd(m.gen))
	}
	if m.cfg.AutoStart {
		var cmd tea.Cmd
		var model tea.Model
		model, cmd = m.show()
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return model.(Model).withBatch(cmds)
	}
	return m.withBatch(cmds)
}

func (m Model) withBatch(cmds []tea.Cmd) (tea.Model, tea.Cmd) {
	switch len(cmds) {
	case 0:
		return m, nil
	case 1:
		return m, cmds[0]
	default:
		return m, tea.Batch(cmds...)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m = m.destroy()
		return m, tea.Quit
	}

	if m.state == StateShowing {
		return m.handleViewerKey(msg)
	}
	return m.handleHostKey(msg)
}

// handleViewerKey owns every key while the pane is on screen. Page
// navigation never reaches the host, so the host work switcher stays put.
func (m Model) handleViewerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.fullscreen {
			m.exitFullscreen()
			return m, nil
		}
		return m.hide()
	case "f":
		if m.fullscreen {
			m.exitFullscreen()
			return m, nil
		}
		return m.enterFullscreen()
	case "1":
		m.pane.ActivateOneToOne()
		if *m.oneToOneFired {
			*m.oneToOneFired = false
			if !m.fullscreen {
				return m.enterFullscreen()
			}
		}
		return m, nil
	case "left":
		return m.stepPage(-1)
	case "right":
		return m.stepPage(1)
	case "d":
		if m.session != nil && m.session.Busy() {
			return m.transientStatus(m.messages.T("download_busy"), 4*time.Second)
		}
		return m, actions.DownloadCmd(m.service, m.artwork)
	case "alt+b":
		m.status = m.messages.T("bookmarking")
		m.statusID++
		return m, actions.BookmarkCmd(m.service, m.artwork)
	case "o":
		return m.openWorkPage()
	case "j", "down":
		m.paneTop = tuistate.ClampScroll(m.paneTop+1, m.heights[m.index], m.viewportRows())
		return m, nil
	case "k", "up":
		m.paneTop = tuistate.ClampScroll(m.paneTop-1, m.heights[m.index], m.viewportRows())
		return m, nil
	}
	return m, nil
}

func (m Model) handleHostKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.state == StateReady || m.state == StateHidden {
			return m.show()
		}
		return m, nil
	case "left":
		return m.transientStatus(m.messages.T("host_prev_work"), 2*time.Second)
	case "right":
		return m.transientStatus(m.messages.T("host_next_work"), 2*time.Second)
	case "j", "down":
		m.hostScroll = tuistate.ClampScroll(m.hostScroll+1, hostContentRows, m.viewportRows())
		return m, nil
	case "k", "up":
		m.hostScroll = tuistate.ClampScroll(m.hostScroll-1, hostContentRows, m.viewportRows())
		return m, nil
	case "o":
		return m.openWorkPage()
	}
	return m, nil
}

func (m Model) show() (tea.Model, tea.Cmd) {
	if m.state != StateReady && m.state != StateHidden {
		return m, nil
	}
	m.state = StateShowing
	m.scrollSnapshot = m.hostScroll
	m.chromeHidden = false
	m.paneTop = 0
	m.pane.Show()
	m.pane.SetIndex(m.index)
	m.injectControls()

	url := pixiv.PageURL(m.decision.FullBase, m.index)
	return m, actions.LoadImageCmd(m.index, url, m.renderImageFn)
}

// injectControls adds the action buttons next to the built-in 1:1 control.
// Insertion is idempotent, so reopening the pane never duplicates them.
func (m Model) injectControls() {
	if m.cfg.ShowDownloadBtn {
		m.pane.InsertControlAfter(widget.ControlOneToOne, widget.Control{
			ID:          controlDownload,
			Tooltip:     m.messages.T("download_control"),
			Activatable: true,
		})
	}
	if m.cfg.ShowBookmarkBtn {
		anchor := controlDownload
		if !m.cfg.ShowDownloadBtn {
			anchor = widget.ControlOneToOne
		}
		m.pane.InsertControlAfter(anchor, widget.Control{
			ID:          controlBookmark,
			Tooltip:     m.messages.T("bookmark_control"),
			Activatable: true,
		})
	}
}

func (m Model) hide() (tea.Model, tea.Cmd) {
	if m.state != StateShowing {
		return m, nil
	}
	if m.fullscreen {
		m.exitFullscreen()
	}
	m.state = StateHidden
	m.pane.Hide()
	m.hostScroll = m.scrollSnapshot
	return m, nil
}

// destroy tears the viewer down. The generation bump makes every pending
// mount or settle tick a no-op.
func (m Model) destroy() Model {
	m.gen++
	m.state = StateDestroyed
	if m.pane != nil {
		m.pane.Hide()
	}
	m.mounted = false
	return m
}

func (m Model) enterFullscreen() (tea.Model, tea.Cmd) {
	m.fullscreen = true
	m.chromeHidden = true
	return m, actions.SettleTickCmd(m.gen)
}

// exitFullscreen is the single place fullscreen is left from, whichever
// path triggered it.
func (m *Model) exitFullscreen() {
	m.fullscreen = false
	m.chromeHidden = false
	m.zoom = 0
	m.centerOff = 0
	m.paneTop = 0
}

func (m Model) stepPage(delta int) (tea.Model, tea.Cmd) {
	if m.decision.PageCount < 1 {
		return m, nil
	}
	m.index = tuistate.WrapIndex(m.index, delta, m.decision.PageCount)
	m.pane.SetIndex(m.index)
	m.paneTop = 0
	if m.fullscreen {
		m.centerOff = tuistate.CenterOffset(m.artwork.Type, m.heights[m.index], m.viewportRows())
	}
	if _, ok := m.previews[m.index]; ok {
		return m, m.preloadNextCmd(m.index)
	}
	url := pixiv.PageURL(m.decision.FullBase, m.index)
	return m, actions.LoadImageCmd(m.index, url, m.renderImageFn)
}

func (m Model) preloadNextCmd(viewedIndex int) tea.Cmd {
	next := viewedIndex + 1
	if next >= m.decision.PageCount || m.preloaded[next] {
		return nil
	}
	if _, ok := m.previews[next]; ok {
		return nil
	}
	url := pixiv.PageURL(m.decision.FullBase, next)
	return actions.PreloadCmd(next, url, m.preloadFn)
}

func (m Model) openWorkPage() (tea.Model, tea.Cmd) {
	if m.artwork == nil || m.openURLFn == nil {
		return m, nil
	}
	url, err := platform.ValidateWorkURL(m.baseURL + "/artworks/" + m.artwork.ID)
	if err != nil {
		m.err = err
		return m, nil
	}
	if err := m.openURLFn(url); err != nil {
		m.err = fmt.Errorf("open %s: %w", url, err)
		return m, nil
	}
	return m.transientStatus("Opened work page in browser", 3*time.Second)
}

func (m Model) transientStatus(status string, after time.Duration) (tea.Model, tea.Cmd) {
	m.status = status
	m.statusID++
	return m, actions.ClearStatusCmd(m.statusID, after)
}

func (m Model) viewportRows() int {
	if m.height <= 0 {
		return view.DefaultPreviewRows
	}
	rows := m.height - 6
	if rows < 4 {
		return 4
	}
	return rows
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.th.Title.Render("pixiv viewer"))
	b.WriteString("\n")
	b.WriteString(view.Toolbar(m.state == StateShowing, m.fullscreen))
	b.WriteString("\n\n")

	if m.fullscreen && m.state == StateShowing {
		b.WriteString(m.paneView())
		b.WriteString("\n")
		b.WriteString(view.Message(m.loading, m.status, m.errText(), m.th))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.hostView())
	if m.state == StateShowing {
		b.WriteString("\n")
		b.WriteString(m.paneView())
		if !m.chromeHidden {
			b.WriteString("\n")
			b.WriteString(m.controlsRow())
			b.WriteString("\n")
			b.WriteString(view.Footer(m.index, m.decision.PageCount, m.zoom, m.fullscreen, m.th))
			b.WriteString("\n")
			b.WriteString(m.th.MetaLabel.Render(m.messages.T("fullscreen_hint")))
		}
	}
	b.WriteString("\n")
	b.WriteString(view.Message(m.loading, m.status, m.errText(), m.th))
	b.WriteString("\n")
	return b.String()
}

// hostView draws the work metadata screen the viewer mounts into.
func (m Model) hostView() string {
	var b strings.Builder
	if m.artwork == nil {
		if m.loading {
			b.WriteString(m.messages.T("viewer_loading"))
		} else {
			b.WriteString("No work loaded.")
		}
		return b.String()
	}

	b.WriteString(m.th.Section.Render(m.artwork.Title))
	b.WriteString("\n")
	b.WriteString(m.th.MetaLabel.Render("by ") + m.th.MetaValue.Render(m.artwork.UserName))
	b.WriteString("  ")
	b.WriteString(m.th.MetaLabel.Render("type ") + m.th.MetaValue.Render(m.artwork.Type.String()))
	b.WriteString("  ")
	b.WriteString(m.th.MetaLabel.Render("pages ") + m.th.MetaValue.Render(fmt.Sprintf("%d", m.artwork.PageCount)))
	b.WriteString("\n")

	strip := ""
	if m.mounted && m.cfg.ShowImageList {
		strip = view.Strip(m.thumbs, m.index, m.contentWidth(), m.cfg.ImageListID, m.th)
	}
	if strip != "" && (m.cfg.InsertPosition == config.InsertBeforeBegin || m.cfg.InsertPosition == config.InsertAfterBegin) {
		b.WriteString(strip)
		b.WriteString("\n")
	}

	// While the pane is open the host collapses the description to one line
	// so the image keeps most of the rows.
	if m.state == StateShowing {
		if text := caption.Text(m.artwork.Description); text != "" {
			b.WriteString(m.th.Caption.Render(text))
			b.WriteString("\n")
		}
	} else {
		for _, line := range caption.Lines(m.artwork.Description, m.contentWidth()) {
			b.WriteString(m.th.Caption.Render(line))
			b.WriteString("\n")
		}
	}

	if strip != "" && (m.cfg.InsertPosition == config.InsertBeforeEnd || m.cfg.InsertPosition == config.InsertAfterEnd) {
		b.WriteString(strip)
		b.WriteString("\n")
	}

	if m.state == StateGatedOut {
		b.WriteString(m.th.MetaLabel.Render("single image, no viewer"))
		b.WriteString("\n")
	}
	return b.String()
}

// controlsRow mirrors the pane toolbar: the built-in controls first, then
// the injected ones, with inactive entries dimmed.
func (m Model) controlsRow() string {
	tb := m.pane.Toolbar()
	type entry struct {
		label string
		on    bool
	}
	entries := []entry{
		{"prev", tb.Prev},
		{"next", tb.Next},
		{"fit", tb.Fit},
		{m.messages.T("one_to_one_control"), tb.OneToOne},
		{"zoom+", tb.ZoomIn},
		{"zoom-", tb.ZoomOut},
		{"rotate", tb.Rotate},
		{"flip", tb.Flip},
	}
	for _, c := range m.pane.Controls() {
		entries = append(entries, entry{c.Tooltip, c.Activatable})
	}
	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		style := m.th.Control
		if !e.on {
			style = m.th.ControlOff
		}
		parts = append(parts, style.Render(e.label))
	}
	return strings.Join(parts, " | ")
}

func (m Model) paneView() string {
	var b strings.Builder
	preview, ok := m.previews[m.index]
	if !ok {
		b.WriteString(m.messages.T("viewer_loading"))
		return b.String()
	}
	lines := strings.Split(preview, "\n")
	top := m.paneTop + m.centerOff
	top = tuistate.ClampScroll(top, len(lines), m.viewportRows())
	end := top + m.viewportRows()
	if end > len(lines) {
		end = len(lines)
	}
	if view.ContainsKittyGraphicsEscape(preview) {
		b.WriteString(preview)
	} else {
		b.WriteString(strings.Join(lines[top:end], "\n"))
	}
	return b.String()
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return 80
	}
	return m.width
}

func (m Model) errText() string {
	if m.err == nil {
		return ""
	}
	return m.err.Error()
}
