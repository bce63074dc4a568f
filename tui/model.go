// Package tui drives rounds of Snake in a terminal with Bubble Tea.
//
// The model owns one game.State at a time. Key presses become direction
// changes, a fixed-rate tick advances the round, and the play field is sized
// from the terminal window on every tick.
package tui

import (
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/snekterm/game"
	"github.com/brensch/snekterm/logging"
	"github.com/brensch/snekterm/store"
	tea "github.com/charmbracelet/bubbletea"
)

// Rows taken by the score bar (3) and the play-field border (2).
const (
	chromeWidth  = 2
	chromeHeight = 5
)

type Config struct {
	Tick      time.Duration
	Seed      int64 // 0 seeds from the clock
	RecordDir string
	Game      game.Config
	Logger    *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Tick: 100 * time.Millisecond,
		Game: game.DefaultConfig(),
	}
}

// TickMsg advances the round by one step.
type TickMsg time.Time

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

type Model struct {
	cfg Config
	log *slog.Logger
	rng *rand.Rand

	state       *game.State
	roundID     string
	rec         *store.Recorder
	lastOutcome game.Outcome

	winWidth  int
	winHeight int
	quitting  bool
}

func New(cfg Config) Model {
	if cfg.Tick <= 0 {
		cfg.Tick = 100 * time.Millisecond
	}
	if cfg.Game == (game.Config{}) {
		cfg.Game = game.DefaultConfig()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	m := Model{
		cfg: cfg,
		log: log,
		rng: rand.New(rand.NewSource(seed)),
	}
	m.newRound()
	return m
}

// newRound discards the current state and starts a fresh one.
func (m *Model) newRound() {
	m.finishRecording()

	m.state = game.New(m.cfg.Game, m.rng)
	m.roundID = store.NewRoundID()
	m.lastOutcome = game.OutcomeNone
	m.rec = nil

	if m.cfg.RecordDir != "" {
		rec, err := store.NewRecorder(m.cfg.RecordDir, m.roundID)
		if err != nil {
			m.log.Error("recorder unavailable", "round_id", m.roundID, "err", err)
		} else {
			m.rec = rec
		}
	}
	m.log.Info("round started", "round_id", m.roundID)
}

func (m *Model) finishRecording() {
	if m.rec == nil {
		return
	}
	path, err := m.rec.Finalize()
	if err != nil {
		m.log.Error("finalize recording", "round_id", m.roundID, "err", err)
	} else if path != "" {
		m.log.Info("round recorded", "round_id", m.roundID, "path", path, "rows", m.rec.Rows())
	}
	m.rec = nil
}

// Board returns the play-field size for the current window.
func (m Model) Board() (width, height int32) {
	return int32(m.winWidth - chromeWidth), int32(m.winHeight - chromeHeight)
}

func (m Model) State() *game.State { return m.state }
func (m Model) RoundID() string    { return m.roundID }

func (m Model) Init() tea.Cmd {
	return tickCmd(m.cfg.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.winWidth, m.winHeight = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c", "esc":
			m.finishRecording()
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.state.Over() {
				m.newRound()
			}
			return m, nil
		}
		if d, err := game.ParseDirection(key); err == nil {
			m.state.SetDirection(d)
		}
		return m, nil

	case TickMsg:
		m.step()
		return m, tickCmd(m.cfg.Tick)
	}
	return m, nil
}

func (m *Model) step() {
	if m.winWidth == 0 && m.winHeight == 0 {
		// No size yet.
		return
	}
	if m.state.Over() {
		return
	}
	width, height := m.Board()
	before := m.state.Snapshot()

	out, err := m.state.Tick(width, height)
	if err != nil {
		if errors.Is(err, game.ErrInvalidBoard) {
			m.log.Debug("window too small", "width", width, "height", height)
		} else {
			m.log.Error("tick", "round_id", m.roundID, "err", err)
		}
		return
	}
	m.lastOutcome = out

	if m.rec != nil {
		if m.rec.Rows() == 0 {
			m.record(width, height, game.OutcomeNone, before)
		}
		m.record(width, height, out, m.state.Snapshot())
	}

	switch {
	case out == game.OutcomeAte:
		m.log.Debug("food eaten", "round_id", m.roundID, "score", m.state.Score(), "food", m.state.Food().String())
	case out.Terminal():
		m.log.Info("round over",
			"round_id", m.roundID,
			"reason", m.state.Reason().String(),
			"score", m.state.Score(),
			"turns", m.state.Turn(),
			"length", m.state.Len(),
		)
		m.finishRecording()
	}
}

func (m *Model) record(width, height int32, out game.Outcome, f game.Frame) {
	if err := m.rec.Record(width, height, out, f); err != nil {
		m.log.Error("record tick", "round_id", m.roundID, "err", err)
	}
}
