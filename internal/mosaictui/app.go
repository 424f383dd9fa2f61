// Package mosaictui is the terminal chronological media browser.
package mosaictui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/tOgg1/mosaic/internal/backend"
	"github.com/tOgg1/mosaic/internal/config"
	"github.com/tOgg1/mosaic/internal/logging"
	"github.com/tOgg1/mosaic/internal/mosaic"
	"github.com/tOgg1/mosaic/internal/mosaictui/state"
	"github.com/tOgg1/mosaic/internal/mosaictui/styles"
)

const (
	headerLines = 1
	footerLines = 2
)

// Options wires a browser model.
type Options struct {
	Controller *mosaic.Controller
	State      *state.Manager

	Theme       string
	LabelMinGap int

	// Anchor is where the first load centers; zero starts at the newest item.
	Anchor time.Time

	// Source labels the backend in the header.
	Source string

	// ContentURL builds the display URL for an item, when the transport has one.
	ContentURL func(contentRef string) string

	// JumpRequests delivers external jump targets.
	JumpRequests <-chan time.Time
}

// Model is the bubbletea model for the browser.
type Model struct {
	opts   Options
	ctx    context.Context
	cancel context.CancelFunc
	logger zerolog.Logger

	ctl    *mosaic.Controller
	grid   *gridViewport
	layout styles.Grid
	keys   keyMap
	years  *styles.YearColorMapper

	spinner      spinner.Model
	spinning     bool
	prompt       textinput.Model
	promptActive bool
	showHelp     bool
	showDetail   bool

	theme       string
	selected    int
	selectedKey string
	notice      string

	width  int
	height int
}

// NewModel builds a browser model. Options.Controller is required.
func NewModel(opts Options) (*Model, error) {
	if opts.Controller == nil {
		return nil, errors.New("controller is required")
	}
	if opts.LabelMinGap <= 0 {
		opts.LabelMinGap = 2
	}
	if opts.State == nil {
		opts.State = state.New("")
	}
	if _, ok := styles.Themes[opts.Theme]; !ok {
		opts.Theme = styles.DefaultTheme.Name
	}

	prompt := textinput.New()
	prompt.Prompt = "jump to: "
	prompt.Placeholder = "2016-05-08, 2016, -3y"
	prompt.CharLimit = 40

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	theme := styles.Lookup(opts.Theme)
	return &Model{
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logging.Component("browser"),
		ctl:     opts.Controller,
		grid:    newGridViewport(opts.Controller.Window(), styles.TileHeight),
		layout:  styles.ComputeGrid(0),
		keys:    defaultKeyMap(),
		years:   styles.NewYearColorMapper(theme.YearPalette),
		spinner: spin,
		prompt:  prompt,
		theme:   opts.Theme,
	}, nil
}

// Run starts the browser against the configured backend.
func Run(cfg *config.Config, run RunOptions) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("mosaic needs an interactive terminal")
	}

	logFile, err := logging.OpenFile(cfg.LogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()
	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       logFile,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	logger := logging.Component("browser")

	client, err := backend.New(cfg.Backend)
	if err != nil {
		return fmt.Errorf("connect backend: %w", err)
	}
	defer client.Close()

	walker := mosaic.NewWalker(client, mosaic.WalkerOptions{
		InvertDirection: cfg.Backend.InvertDirection,
		MaxUntimedSkip:  cfg.Browser.MaxUntimedSkip,
		Timeout:         cfg.Browser.WalkTimeout,
	})
	ctl := mosaic.NewController(client, walker, mosaic.ControllerOptions{
		BatchSize:        cfg.Browser.BatchSize,
		InitialBatchSize: cfg.Browser.InitialBatchSize,
		EdgeThreshold:    cfg.Browser.EdgeThreshold,
	})

	st := state.New(cfg.StatePath())
	if err := st.Load(); err != nil {
		logger.Warn().Err(err).Str("path", st.Path()).Msg("ignoring unreadable browser state")
	}

	theme := cfg.TUI.Theme
	if !run.ThemeFromFlag && st.Theme() != "" {
		theme = st.Theme()
	}
	anchor := run.At
	if anchor.IsZero() && !run.Newest {
		anchor = st.Anchor().Time
	}

	opts := Options{
		Controller:  ctl,
		State:       st,
		Theme:       theme,
		LabelMinGap: cfg.Browser.LabelMinGap,
		Anchor:      anchor,
		Source:      backendLabel(cfg.Backend),
		ContentURL: func(ref string) string {
			return backend.ContentURL(client, ref)
		},
	}

	watcher, err := newJumpWatcher(cfg.JumpRequestPath())
	if err != nil {
		logger.Warn().Err(err).Msg("external jump requests disabled")
	} else {
		defer watcher.Close()
		opts.JumpRequests = watcher.Requests()
	}

	model, err := NewModel(opts)
	if err != nil {
		return err
	}
	defer model.Close()

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.TUI.Mouse {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	logger.Info().
		Str("backend", opts.Source).
		Str("anchor", anchor.Format(time.RFC3339)).
		Msg("browser starting")
	_, err = tea.NewProgram(model, programOpts...).Run()
	return err
}

// RunOptions carries command-line choices that are not configuration.
type RunOptions struct {
	At            time.Time
	Newest        bool
	ThemeFromFlag bool
}

func backendLabel(cfg config.BackendConfig) string {
	if cfg.Transport == config.TransportGRPC {
		return "grpc " + cfg.GRPCAddr
	}
	return "http " + logging.RedactURL(cfg.URL)
}

func (m *Model) Close() error {
	if m == nil {
		return nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	if m.opts.State != nil {
		return m.opts.State.Close()
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForJumpCmd(m.opts.JumpRequests)}
	if req, ok := m.ctl.Start(m.opts.Anchor); ok {
		cmds = append(cmds, m.loadCmd(req))
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(typed.Width, typed.Height)
		return m, m.afterScroll()
	case loadedMsg:
		return m, m.applyLoaded(typed.result)
	case jumpRequestMsg:
		m.opts.State.RecordJump(typed.at, "request")
		return m, tea.Batch(m.loadCmd(m.ctl.JumpTo(typed.at)), waitForJumpCmd(m.opts.JumpRequests))
	case spinner.TickMsg:
		if _, loading := m.ctl.Loading(); !loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(typed)
		return m, cmd
	case tea.MouseMsg:
		return m, m.handleMouse(typed)
	case tea.KeyMsg:
		return m, m.handleKey(typed)
	}
	return m, nil
}

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	theme := styles.Lookup(m.theme)
	header := m.renderHeader(theme)
	footer := m.renderFooter(theme)
	bodyHeight := m.bodyHeight()

	var body string
	switch {
	case m.showHelp:
		body = m.renderHelpOverlay(m.width, bodyHeight, theme)
	case m.showDetail:
		body = m.renderDetailOverlay(m.width, bodyHeight, theme)
	default:
		body = m.renderBody(theme)
	}
	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m *Model) bodyHeight() int {
	return max(0, m.height-headerLines-footerLines)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.layout = styles.ComputeGrid(width)
	m.grid.resize(m.layout.Columns, m.bodyHeight())
	m.prompt.Width = max(10, width-lipgloss.Width(m.prompt.Prompt)-2)
	if m.selected < m.ctl.Window().Len() {
		m.grid.ensureVisible(m.selected)
	}
}
