package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	taglineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	sparkleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("211"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	helpStyle    = lipgloss.NewStyle().Faint(true)

	correctStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	incorrectStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	answerBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	correctPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("42")).
			Padding(0, 1)

	incorrectPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(0, 1)

	mainPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(1, 2)

	modalPanel = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(1, 2)
)

// Screen text. The learner-facing copy is Japanese; button names stay English.
const (
	textTitle       = "Dictsy"
	textTagline     = "音声を聞いて英語を書き取ろう！"
	textSubtitle    = "Dictsyで楽しくディクテーション！"
	textVoice       = "音声:"
	textPlaceholder = "ここに英語を書き取ろう..."
	textCorrect     = "正解！"
	textIncorrect   = "不正解"
	textYourAnswer  = "あなたの解答"
	textReference   = "正解"
	textEmpty       = "（未入力）"
	textLoading     = "Loading..."
	textNoVoice     = "(none)"
	textSettings    = "Settings"
	textVoiceLabel  = "Voice:"
)
