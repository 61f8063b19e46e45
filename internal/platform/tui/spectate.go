package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/flappy-gym/internal/agent"
	"github.com/vovakirdan/flappy-gym/internal/core"
	"github.com/vovakirdan/flappy-gym/internal/env"
	"github.com/vovakirdan/flappy-gym/internal/games/flappy"
	"github.com/vovakirdan/flappy-gym/internal/registry"
)

// restSeconds is how long a crash stays on screen before the next episode.
const restSeconds = 1

// SpectateModel lets an agent play in the terminal, one step per tick,
// starting a new episode shortly after every crash.
type SpectateModel struct {
	envID    string
	opts     registry.Options
	newAgent agent.Factory
	agent    agent.Agent
	env      env.Env
	last     env.TimeStep
	screen   *core.Screen
	config   core.RuntimeConfig
	keys     KeyMap
	help     help.Model
	logger   *log.Logger

	episode   int
	best      int
	rest      int // Ticks spent showing the last crash
	paused    bool
	quitting  bool
	wantsBack bool
}

// NewSpectateModel creates a spectator for agentName on envID and starts
// the first episode. logger may be nil.
func NewSpectateModel(envID, agentName string, opts registry.Options, cfg core.RuntimeConfig, logger *log.Logger) (SpectateModel, error) {
	factory, err := agent.Lookup(agentName, opts.Config)
	if err != nil {
		return SpectateModel{}, fmt.Errorf("tui: %w", err)
	}
	if err := agent.Compatible(factory, envID, opts); err != nil {
		return SpectateModel{}, fmt.Errorf("tui: %w", err)
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	h := help.New()
	h.Width = cfg.ScreenW

	m := SpectateModel{
		envID:    envID,
		opts:     opts,
		newAgent: factory,
		screen:   core.NewScreen(cfg.ScreenW, core.Max(cfg.ScreenH-helpRows, 1)),
		config:   cfg,
		keys:     DefaultKeyMap(),
		help:     h,
		logger:   logger,
	}
	if err := m.startEpisode(); err != nil {
		return SpectateModel{}, err
	}
	return m, nil
}

// startEpisode builds a fresh environment seeded with Seed+episode.
func (m *SpectateModel) startEpisode() error {
	seed := m.config.Seed + int64(m.episode)
	opts := m.opts
	opts.Seed = seed

	e, err := registry.Make(m.envID, opts)
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	ts, err := e.Reset()
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	m.env = e
	m.agent = m.newAgent(seed)
	m.last = ts
	m.episode++
	m.rest = 0
	return nil
}

// Init starts the tick loop.
func (m SpectateModel) Init() tea.Cmd {
	return tickCmd(m.config.TickRate)
}

// Update handles messages and advances the agent.
func (m SpectateModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Back):
			m.wantsBack = true
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		}

	case tea.WindowSizeMsg:
		m.config.ScreenW = msg.Width
		m.config.ScreenH = msg.Height
		m.screen.Resize(msg.Width, core.Max(msg.Height-helpRows, 1))
		m.help.Width = msg.Width

	case TickMsg:
		if !m.paused {
			m.step()
		}
		return m, tickCmd(m.config.TickRate)
	}

	return m, nil
}

// step advances the agent by one action, or the rest timer after a crash.
func (m *SpectateModel) step() {
	if m.last.Done {
		m.rest++
		if m.rest < restSeconds*core.Max(m.config.TickRate, 1) {
			return
		}
		if err := m.startEpisode(); err != nil && m.logger != nil {
			m.logger.Error("cannot start episode", "error", err)
		}
		return
	}

	ts, err := m.env.Step(m.agent.Act(m.last.Observation))
	if err != nil {
		if m.logger != nil {
			m.logger.Error("agent step failed", "error", err)
		}
		return
	}
	m.last = ts
	m.best = core.Max(m.best, ts.Score)
	if ts.Done && m.logger != nil {
		m.logger.Debug("spectated episode finished", "agent", m.agent.Name(), "episode", m.episode, "score", ts.Score)
	}
}

// View renders the playfield, a status line and the help line.
func (m SpectateModel) View() string {
	if m.quitting {
		return ""
	}

	flappy.Render(m.screen, m.env.Snapshot())

	status := fmt.Sprintf(" %s  episode %d  best %d ", m.agent.Name(), m.episode, m.best)
	if m.paused {
		status += " PAUSED "
	}
	m.screen.DrawText(0, m.screen.Height()-1, status)
	if m.last.Done {
		m.screen.DrawTextCentered(m.screen.Height()/2, fmt.Sprintf(" CRASH - score %d ", m.last.Score))
	}

	return RenderScreen(m.screen) + "\n" + m.help.ShortHelpView([]key.Binding{m.keys.Pause, m.keys.Back, m.keys.Quit})
}

// Episode returns the number of the current episode, starting at 1.
func (m SpectateModel) Episode() int {
	return m.episode
}

// Best returns the best score seen so far.
func (m SpectateModel) Best() int {
	return m.best
}

// WantsBack reports whether the viewer asked to leave.
func (m SpectateModel) WantsBack() bool {
	return m.wantsBack
}

// IsQuitting reports whether the viewer asked to quit.
func (m SpectateModel) IsQuitting() bool {
	return m.quitting
}
