package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/MrWong99/dictsy/pkg/provider/tts"
)

// voiceItem adapts a voice to bubbles/list.
type voiceItem struct {
	voice    tts.Voice
	selected bool
}

func (i voiceItem) FilterValue() string { return i.voice.Name }

// voiceDelegate renders one voice per line as "name (lang)".
type voiceDelegate struct{}

func (voiceDelegate) Height() int                         { return 1 }
func (voiceDelegate) Spacing() int                        { return 0 }
func (voiceDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (voiceDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(voiceItem)
	if !ok {
		return
	}
	mark := "  "
	if it.selected {
		mark = correctStyle.Render("✓ ")
	}
	line := it.voice.Label()
	prefix := "  "
	if index == m.Index() {
		prefix = accentStyle.Render("> ")
		line = accentStyle.Render(line)
	}
	fmt.Fprint(w, prefix+mark+line)
}

// settings is the voice picker shown over the practice screen.
type settings struct {
	list list.Model
}

func newSettings() settings {
	l := list.New(nil, voiceDelegate{}, 40, 10)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	return settings{list: l}
}

// setVoices replaces the list contents and moves the cursor to the
// selected voice.
func (s *settings) setVoices(voices []tts.Voice, selected string) {
	items := make([]list.Item, len(voices))
	cursor := 0
	for i, v := range voices {
		items[i] = voiceItem{voice: v, selected: v.Name == selected}
		if v.Name == selected {
			cursor = i
		}
	}
	s.list.SetItems(items)
	s.list.Select(cursor)
}

// highlighted returns the voice under the cursor.
func (s *settings) highlighted() (tts.Voice, bool) {
	it, ok := s.list.SelectedItem().(voiceItem)
	if !ok {
		return tts.Voice{}, false
	}
	return it.voice, true
}

func (s *settings) setSize(width, height int) {
	s.list.SetSize(max(width-8, 20), max(height-10, 5))
}

func (s settings) update(msg tea.Msg) (settings, tea.Cmd) {
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s settings) view() string {
	body := labelStyle.Render(textVoiceLabel) + "\n"
	if len(s.list.Items()) == 0 {
		body += mutedStyle.Render(textNoVoice)
	} else {
		body += s.list.View()
	}
	body += "\n\n" + helpStyle.Render("enter select • esc Done")
	return modalPanel.Render(titleStyle.Render(textSettings) + "\n\n" + body)
}
