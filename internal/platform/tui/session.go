package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-gym/internal/config"
	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
	"github.com/vovakirdan/flappy-gym/internal/registry"
	"github.com/vovakirdan/flappy-gym/internal/storage"
)

type sessionView int

const (
	viewMenu sessionView = iota
	viewPlay
	viewWatch
	viewScoreboard
)

// sessionTick tags a tick with the view generation that scheduled it, so a
// tick loop left behind by a closed view dies out instead of doubling up.
type sessionTick struct {
	gen  int
	tick TickMsg
}

// SessionModel drives one interactive session: menu -> play, watch or
// scoreboard -> menu. It is used per SSH connection and by the local menu.
type SessionModel struct {
	cfg      config.FlappyConfig
	store    *storage.Store
	runtime  core.RuntimeConfig
	logger   *log.Logger
	view     sessionView
	gen      int
	menu     MenuModel
	game     Model
	watch    SpectateModel
	scores   ScoreboardModel
	quitting bool
}

// NewSessionModel creates a session that starts in the menu. store and
// logger may be nil.
func NewSessionModel(cfg config.FlappyConfig, store *storage.Store, rt core.RuntimeConfig, logger *log.Logger) SessionModel {
	return SessionModel{
		cfg:     cfg,
		store:   store,
		runtime: rt,
		logger:  logger,
		menu:    NewMenuModel(rt.ScreenW, rt.ScreenH),
	}
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	return nil
}

// tagged wraps cmd so any tick it yields carries the current generation.
func (m SessionModel) tagged(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	gen := m.gen
	return func() tea.Msg {
		msg := cmd()
		if t, ok := msg.(TickMsg); ok {
			return sessionTick{gen: gen, tick: t}
		}
		return msg
	}
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.runtime.ScreenW = msg.Width
		m.runtime.ScreenH = msg.Height
	case sessionTick:
		if msg.gen != m.gen {
			return m, nil
		}
		return m.forward(msg.tick)
	case TickMsg:
		// Untagged ticks only come from outside the session
		return m, nil
	}
	return m.forward(msg)
}

// forward routes msg to the active view and handles its transitions.
func (m SessionModel) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.view {
	case viewPlay:
		next, cmd := m.game.Update(msg)
		m.game = next.(Model)
		if m.game.IsQuitting() {
			return m.quit()
		}
		if m.game.WantsBack() {
			return m.openMenu()
		}
		return m, m.tagged(cmd)

	case viewWatch:
		next, cmd := m.watch.Update(msg)
		m.watch = next.(SpectateModel)
		if m.watch.IsQuitting() {
			return m.quit()
		}
		if m.watch.WantsBack() {
			return m.openMenu()
		}
		return m, m.tagged(cmd)

	case viewScoreboard:
		next, cmd := m.scores.Update(msg)
		m.scores = next.(ScoreboardModel)
		if m.scores.IsQuitting() {
			return m.quit()
		}
		if m.scores.IsGoingBack() {
			return m.openMenu()
		}
		return m, cmd
	}

	next, _ := m.menu.Update(msg)
	m.menu = next.(MenuModel)
	sel := m.menu.Selected()
	if sel == nil {
		return m, nil
	}

	switch sel.Choice {
	case ChoicePlay:
		return m.startPlay()
	case ChoiceWatch:
		return m.startWatch(sel.Agent)
	case ChoiceScoreboard:
		m.view = viewScoreboard
		m.scores = NewScoreboardModel(m.store, m.runtime.ScreenW, m.runtime.ScreenH)
		return m, nil
	case ChoiceQuit:
		return m.quit()
	}
	return m, nil
}

func (m SessionModel) startPlay() (tea.Model, tea.Cmd) {
	rt := m.runtime
	rt.Seed = time.Now().UnixNano()
	game, err := NewModel(flappy.NewGame(m.cfg), m.store, rt, m.logger)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("cannot start game", "error", err)
		}
		return m.openMenu()
	}

	m.gen++
	m.view = viewPlay
	m.game = game
	return m, m.tagged(m.game.Init())
}

func (m SessionModel) startWatch(agentName string) (tea.Model, tea.Cmd) {
	rt := m.runtime
	rt.Seed = time.Now().UnixNano()
	watch, err := NewSpectateModel(registry.SimpleID, agentName, registry.DefaultOptions(m.cfg), rt, m.logger)
	if err != nil {
		if m.logger != nil {
			m.logger.Error("cannot start spectator", "agent", agentName, "error", err)
		}
		return m.openMenu()
	}

	m.gen++
	m.view = viewWatch
	m.watch = watch
	return m, m.tagged(m.watch.Init())
}

func (m SessionModel) openMenu() (tea.Model, tea.Cmd) {
	// Invalidates the tick loop of the view being left
	m.gen++
	m.view = viewMenu
	m.menu = NewMenuModel(m.runtime.ScreenW, m.runtime.ScreenH)
	return m, nil
}

func (m SessionModel) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	return m, tea.Quit
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}
	switch m.view {
	case viewPlay:
		return m.game.View()
	case viewWatch:
		return m.watch.View()
	case viewScoreboard:
		return m.scores.View()
	}
	return m.menu.View()
}

// RunSession runs the menu-driven session in the local terminal.
func RunSession(cfg config.FlappyConfig, store *storage.Store, rt core.RuntimeConfig, logger *log.Logger) error {
	p := tea.NewProgram(
		NewSessionModel(cfg, store, rt, logger),
		tea.WithAltScreen(),
	)
	_, err := p.Run()
	return err
}
