// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/docchat-tui/internal/api"
	"github.com/jeranaias/docchat-tui/internal/citation"
	"github.com/jeranaias/docchat-tui/internal/config"
	"github.com/jeranaias/docchat-tui/internal/locale"
	"github.com/jeranaias/docchat-tui/internal/session"
	"github.com/jeranaias/docchat-tui/internal/storage"
	"github.com/jeranaias/docchat-tui/internal/ui/components"
	"github.com/jeranaias/docchat-tui/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// inputLines is the textarea height; the border adds two rows.
	inputLines      = 3
	inputAreaHeight = inputLines + 2
	statusBarHeight = 1

	// healthInterval is the delay between backend health checks.
	healthInterval = 30 * time.Second
	healthTimeout  = 5 * time.Second

	// citationCacheSize bounds the memoized citation scans.
	citationCacheSize = 256
)

// =============================================================================
// OPTIONS
// =============================================================================

// HealthChecker reports backend health. *api.Client implements it.
type HealthChecker interface {
	Health(ctx context.Context) (*api.HealthStatus, error)
}

// Options wires a Model.
type Options struct {
	Controller *session.Controller
	Store      *storage.ConversationStore
	Confirmer  *DialogConfirmer // must be the controller's Confirmer

	Health    HealthChecker     // optional
	Texts     *locale.Localizer // default: English
	Theme     string            // "dark", "light" or "auto"
	ShowStats bool
	Logger    *zap.Logger // default: no-op

	// OnConfig runs after the model applied a reloaded config.
	OnConfig func(*config.Config)

	// Context is the parent of every exchange started from the TUI.
	Context context.Context
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model of the chat screen.
type Model struct {
	ctx       context.Context
	ctrl      *session.Controller
	store     *storage.ConversationStore
	confirmer *DialogConfirmer
	health    HealthChecker
	texts     *locale.Localizer
	logger    *zap.Logger
	onConfig  func(*config.Config)
	showStats bool

	theme     *styles.Theme
	markdown  *styles.Markdown
	extractor *citation.CachedExtractor
	keys      KeyMap

	// UI Components
	sidebar  *components.Sidebar
	confirm  *components.Confirm
	toasts   *components.ToastManager
	status   *components.StatusBar
	viewport viewport.Model
	input    textarea.Model
	rename   textinput.Model
	spinner  spinner.Model

	// State
	width    int
	height   int
	ready    bool
	activeID string
	renaming bool
	spinning bool

	// rendered caches glamour output per finished assistant message.
	rendered map[string]renderedMessage
}

type renderedMessage struct {
	content string
	width   int
	out     string
}

// New creates the chat model and makes sure a conversation exists.
func New(opts Options) *Model {
	if opts.Texts == nil {
		opts.Texts = locale.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Confirmer == nil {
		opts.Confirmer = NewDialogConfirmer()
	}

	theme := styles.NewTheme(opts.Theme)

	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 4096
	ta.SetHeight(inputLines)
	ta.KeyMap.InsertNewline = DefaultKeyMap().Newline
	ta.Focus()

	ti := textinput.New()
	ti.CharLimit = 120

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}

	m := &Model{
		ctx:       opts.Context,
		ctrl:      opts.Controller,
		store:     opts.Store,
		confirmer: opts.Confirmer,
		health:    opts.Health,
		texts:     opts.Texts,
		logger:    opts.Logger,
		onConfig:  opts.OnConfig,
		showStats: opts.ShowStats,
		theme:     theme,
		markdown:  styles.NewMarkdown(theme.GlamourStyle()),
		extractor: citation.NewCachedExtractor(citationCacheSize),
		keys:      DefaultKeyMap(),
		sidebar:   components.NewSidebar(theme, ""),
		confirm:   components.NewConfirm(theme),
		toasts:    components.NewToastManager(),
		status:    components.NewStatusBar(theme),
		viewport:  viewport.New(80, 20),
		input:     ta,
		rename:    ti,
		spinner:   sp,
		rendered:  make(map[string]renderedMessage),
	}
	m.applyTexts()

	m.activeID = m.ctrl.EnsureOne()
	if conv, err := m.store.Get(m.activeID); err == nil {
		m.input.SetValue(conv.Draft)
	}
	m.refresh()
	return m
}

// Init starts the cursor blink and the first health check.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.checkHealth())
}

// ActiveID returns the conversation shown in the message pane.
func (m *Model) ActiveID() string {
	return m.activeID
}

// applyTexts pushes localized strings into the widgets.
func (m *Model) applyTexts() {
	m.sidebar.SetTitle(m.texts.Text(locale.Conversations))
	m.input.Placeholder = m.texts.Text(locale.InputPlaceholder)
	m.rename.Prompt = m.texts.Text(locale.RenamePrompt)
	m.status.SetHint(m.texts.Text(locale.HelpHint))
}

// applyTheme switches to a new theme and drops cached renders.
func (m *Model) applyTheme(name string) {
	if name == m.theme.Name {
		return
	}
	m.theme = styles.NewTheme(name)
	m.theme.SetSize(m.width, m.height)
	m.markdown = styles.NewMarkdown(m.theme.GlamourStyle())
	m.rendered = make(map[string]renderedMessage)
	m.sidebar.SetTheme(m.theme)
	m.confirm.SetTheme(m.theme)
	m.status.SetTheme(m.theme)
}

// =============================================================================
// LAYOUT
// =============================================================================

// mainWidth is the width of the message pane and the input box.
func (m *Model) mainWidth() int {
	w := m.width
	if m.theme.GetLayoutMode() == styles.LayoutFull {
		w -= styles.SidebarWidth
	}
	if w < 10 {
		w = 10
	}
	return w
}

// contentWidth is the wrap width of message text.
func (m *Model) contentWidth() int {
	w := m.mainWidth() - 4
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true
	m.theme.SetSize(width, height)

	bodyHeight := height - statusBarHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	vpHeight := bodyHeight - inputAreaHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	main := m.mainWidth()
	m.viewport.Width = main
	m.viewport.Height = vpHeight
	m.input.SetWidth(main - 2)
	m.rename.Width = main - 4 - lipgloss.Width(m.rename.Prompt)

	m.sidebar.SetSize(styles.SidebarWidth, bodyHeight)
	m.confirm.SetSize(width, bodyHeight)
	m.status.SetWidth(width)
}
