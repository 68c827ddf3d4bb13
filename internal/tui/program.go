package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

// Program runs the practice screen.
type Program struct {
	program *tea.Program
	cfg     Config
}

// NewProgram prepares the screen. Extra options are appended to the
// defaults (alternate screen, cancellation by ctx).
func NewProgram(ctx context.Context, cfg Config, opts ...tea.ProgramOption) *Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	return &Program{
		program: tea.NewProgram(New(ctx, cfg), opts...),
		cfg:     cfg,
	}
}

// Send delivers msg to the running screen. It blocks until the event loop
// accepts it and returns immediately once the program has exited.
func (p *Program) Send(msg tea.Msg) {
	p.program.Send(msg)
}

// Run shows the screen until the user quits or the context is cancelled.
// Voice catalogue changes are forwarded for as long as it runs.
func (p *Program) Run() error {
	if p.cfg.Speaker != nil {
		unsubscribe := p.cfg.Speaker.Subscribe(func(voices []tts.Voice) {
			p.program.Send(VoicesChangedMsg{Voices: voices})
		})
		defer unsubscribe()
	}

	_, err := p.program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
