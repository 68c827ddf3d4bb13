// Package tui is the interactive practice screen.
//
// The screen has a Play action and a text area for the answer. Check and
// Next Question are always offered; Show Answer appears after an incorrect
// check. A settings modal picks the voice. All state changes go through
// a [session.Session] owned by the bubbletea event loop.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrWong99/dictsy/internal/answer"
	"github.com/MrWong99/dictsy/internal/answer/hint"
	"github.com/MrWong99/dictsy/internal/observe"
	"github.com/MrWong99/dictsy/internal/problem"
	"github.com/MrWong99/dictsy/internal/session"
	"github.com/MrWong99/dictsy/internal/speech"
	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

const surface = "tui"

// Config wires the screen to its collaborators.
type Config struct {
	// Load fetches the problem list. It runs once at startup; an error or
	// an empty list leaves the screen in the loading state.
	Load func(ctx context.Context) ([]problem.Problem, error)

	// Speaker plays problems and lists voices. Nil disables Play.
	Speaker *speech.Speaker

	// Normalizer judges answers. Default: exact mode.
	Normalizer *answer.Normalizer

	// Hints explains incorrect answers after Show Answer. Nil disables them.
	Hints *hint.Matcher

	// Metrics records practice activity. Default [observe.DefaultMetrics].
	Metrics *observe.Metrics

	// PickerOptions are passed to the problem picker, e.g. a seeded source.
	PickerOptions []problem.PickerOption
}

// VoicesChangedMsg tells the screen that the voice catalogue changed.
type VoicesChangedMsg struct {
	Voices []tts.Voice
}

// AnswerSettingsMsg swaps judging settings after a config reload.
type AnswerSettingsMsg struct {
	Normalizer *answer.Normalizer
	Hints      *hint.Matcher
}

type problemsLoadedMsg struct {
	problems []problem.Problem
}

type problemsFailedMsg struct {
	err error
}

// Model is the bubbletea model of the practice screen.
type Model struct {
	ctx        context.Context
	load       func(context.Context) ([]problem.Problem, error)
	pickerOpts []problem.PickerOption
	speaker    *speech.Speaker
	normalizer *answer.Normalizer
	matcher    *hint.Matcher
	metrics    *observe.Metrics

	sess     *session.Session
	input    textarea.Model
	help     help.Model
	settings settings

	showSettings bool
	loadErr      error
	hints        []hint.Hint
	width        int
	height       int
}

// New returns the initial model. ctx bounds problem loading and playback.
func New(ctx context.Context, cfg Config) Model {
	m := Model{
		ctx:        ctx,
		load:       cfg.Load,
		pickerOpts: cfg.PickerOptions,
		speaker:    cfg.Speaker,
		normalizer: cfg.Normalizer,
		matcher:    cfg.Hints,
		metrics:    cfg.Metrics,
		help:       help.New(),
		settings:   newSettings(),
		width:      80,
		height:     24,
	}
	if m.normalizer == nil {
		m.normalizer = answer.New()
	}
	if m.metrics == nil {
		m.metrics = observe.DefaultMetrics()
	}
	// A session without a picker cannot fail.
	m.sess, _ = session.New(nil, session.WithNormalizer(m.normalizer))

	ta := textarea.New()
	ta.Placeholder = textPlaceholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 1000
	ta.SetWidth(60)
	ta.SetHeight(4)
	ta.Focus()
	m.input = ta

	m.refreshVoices()
	return m
}

// Init starts loading problems.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.loadCmd())
}

func (m Model) loadCmd() tea.Cmd {
	if m.load == nil {
		return func() tea.Msg { return problemsLoadedMsg{problems: problem.Embedded()} }
	}
	ctx, load := m.ctx, m.load
	return func() tea.Msg {
		problems, err := load(ctx)
		if err != nil {
			return problemsFailedMsg{err: err}
		}
		return problemsLoadedMsg{problems: problems}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.SetWidth(max(min(msg.Width-10, 100), 20))
		m.settings.setSize(msg.Width, msg.Height)
		return m, nil

	case problemsLoadedMsg:
		if err := m.sess.Load(problem.NewPicker(msg.problems, m.pickerOpts...)); err != nil {
			m.loadErr = err
			slog.Warn("tui: problem list unusable, staying in loading state", "err", err)
			return m, nil
		}
		m.loadErr = nil
		return m, nil

	case problemsFailedMsg:
		m.loadErr = msg.err
		slog.Warn("tui: failed to load problems, staying in loading state", "err", msg.err)
		return m, nil

	case VoicesChangedMsg:
		m.refreshVoices()
		return m, nil

	case AnswerSettingsMsg:
		if msg.Normalizer != nil {
			m.normalizer = msg.Normalizer
			m.sess.SetNormalizer(msg.Normalizer)
		}
		m.matcher = msg.Hints
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		if m.showSettings {
			return m.updateSettings(msg)
		}
		return m.updateMain(msg)
	}

	if m.showSettings {
		var cmd tea.Cmd
		m.settings, cmd = m.settings.update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Done):
		m.showSettings = false
		return m, nil
	case key.Matches(msg, keys.Choose):
		if v, ok := m.settings.highlighted(); ok && m.speaker != nil {
			if err := m.speaker.Select(v.Name); err != nil {
				slog.Warn("tui: voice selection failed", "voice", v.Name, "err", err)
			}
			m.refreshVoices()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.settings, cmd = m.settings.update(msg)
	return m, cmd
}

func (m Model) updateMain(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Settings):
		m.refreshVoices()
		m.showSettings = true
		return m, nil
	}

	if m.sess.Loading() {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Play):
		m.play()
		return m, nil

	case key.Matches(msg, keys.Check):
		if !m.sess.View().CanCheck {
			return m, nil
		}
		v, err := m.sess.Check()
		if err != nil {
			return m, nil
		}
		m.hints = nil
		if v == answer.Incorrect && m.matcher != nil {
			p, _ := m.sess.Current()
			m.hints = m.matcher.Hints(m.normalizer.Normalize(m.input.Value()), m.normalizer.Normalize(p.Text))
		}
		m.metrics.RecordCheck(m.ctx, v.String(), surface)
		return m, nil

	case key.Matches(msg, keys.Reveal):
		if err := m.sess.Reveal(); err == nil {
			m.metrics.RecordReveal(m.ctx, surface)
		} else if !errors.Is(err, session.ErrRevealNotAllowed) {
			slog.Warn("tui: reveal failed", "err", err)
		}
		return m, nil

	case key.Matches(msg, keys.Next):
		if _, err := m.sess.Next(); err != nil {
			slog.Warn("tui: next problem failed", "err", err)
			return m, nil
		}
		m.input.Reset()
		m.hints = nil
		m.metrics.RecordNext(m.ctx, surface)
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.sess.SetAnswer(after)
		m.hints = nil
	}
	return m, cmd
}

func (m Model) play() {
	if m.speaker == nil {
		return
	}
	p, err := m.sess.Current()
	if err != nil {
		return
	}
	m.speaker.Speak(m.ctx, p.Text)
}

func (m *Model) refreshVoices() {
	if m.speaker == nil {
		m.settings.setVoices(nil, "")
		return
	}
	selected := ""
	if v, ok := m.speaker.Selected(); ok {
		selected = v.Name
	}
	m.settings.setVoices(m.speaker.Voices(), selected)
}

// Session exposes the underlying session, mainly for tests.
func (m Model) Session() *session.Session {
	return m.sess
}

// SettingsOpen reports whether the voice picker is shown.
func (m Model) SettingsOpen() bool {
	return m.showSettings
}

// Hints returns the hints computed for the last incorrect check.
func (m Model) Hints() []hint.Hint {
	return m.hints
}

// View implements tea.Model.
func (m Model) View() string {
	if m.sess.Loading() {
		out := textLoading
		if m.loadErr != nil {
			out += "\n" + mutedStyle.Render(m.loadErr.Error())
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, out)
	}
	if m.showSettings {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.settings.view())
	}

	v := m.sess.View()
	var b strings.Builder

	b.WriteString(titleStyle.Render(textTitle) + "\n")
	b.WriteString("🎧 " + taglineStyle.Render(textTagline) + " ✍️\n\n")
	b.WriteString(sparkleStyle.Render("✨ "+textSubtitle) + "\n\n")
	b.WriteString(labelStyle.Render(textVoice) + " " + m.voiceName() + "\n\n")
	b.WriteString(m.input.View() + "\n")

	if v.Checked {
		b.WriteString("\n" + m.resultView(v) + "\n")
	}

	b.WriteString("\n" + m.help.ShortHelpView(m.bindings(v)))
	return mainPanel.Render(b.String())
}

func (m Model) resultView(v session.View) string {
	given := v.Answer
	if given == "" {
		given = mutedStyle.Render(textEmpty)
	}
	lines := []string{}
	panel := incorrectPanel
	if v.Verdict == answer.Correct {
		panel = correctPanel
		lines = append(lines, "🎉 "+correctStyle.Render(textCorrect))
	} else {
		lines = append(lines, "😢 "+incorrectStyle.Render(textIncorrect))
	}
	lines = append(lines, "", labelStyle.Render(textYourAnswer), answerBoxStyle.Render(given))

	if v.ReferenceVisible {
		lines = append(lines, mutedStyle.Render("↓"), labelStyle.Render(textReference), answerBoxStyle.Render(v.Problem.Text))
		if v.Revealed {
			for _, h := range m.hints {
				lines = append(lines, mutedStyle.Render(describeHint(h)))
			}
		}
	}
	return panel.Render(strings.Join(lines, "\n"))
}

func (m Model) voiceName() string {
	if m.speaker != nil {
		if v, ok := m.speaker.Selected(); ok {
			return v.Label()
		}
	}
	return mutedStyle.Render(textNoVoice)
}

func (m Model) bindings(v session.View) []key.Binding {
	b := []key.Binding{keys.Play}
	if v.CanCheck {
		b = append(b, keys.Check)
	}
	if v.CanReveal {
		b = append(b, keys.Reveal)
	}
	return append(b, keys.Next, keys.Settings, keys.Quit)
}

func describeHint(h hint.Hint) string {
	switch h.Kind {
	case hint.SoundsLike:
		return "• " + h.Got + " → " + h.Want + " (sounds alike)"
	case hint.WrongWord:
		return "• " + h.Got + " → " + h.Want
	case hint.Extra:
		return "• extra: " + h.Got
	case hint.Missing:
		return "• missing: " + h.Want
	}
	return ""
}
