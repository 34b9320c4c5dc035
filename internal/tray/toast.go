package tray

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// ToastWidth is the wrap width of toast text.
const ToastWidth = 40

// ToastDuration is how long a toast stays up.
const ToastDuration = 3 * time.Second

// ToastStyle determines the visual appearance of a toast.
type ToastStyle int

const (
	// ToastSuccess shows a green border.
	ToastSuccess ToastStyle = iota
	// ToastError shows a red border.
	ToastError
	// ToastInfo shows a blue border.
	ToastInfo
	// ToastWarn shows a yellow border.
	ToastWarn
)

var (
	toastSuccessColor = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#73F59F"}
	toastErrorColor   = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#FF8787"}
	toastInfoColor    = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#54A0FF"}
	toastWarnColor    = lipgloss.AdaptiveColor{Light: "#F57F17", Dark: "#FECA57"}
)

// toast is a single transient notification. Each Show bumps seq so a
// dismiss scheduled for an older toast does not hide a newer one.
type toast struct {
	message string
	style   ToastStyle
	visible bool
	seq     int
}

// dismissToastMsg hides the toast shown with the same seq.
type dismissToastMsg struct{ seq int }

func (t toast) show(message string, style ToastStyle) (toast, tea.Cmd) {
	t.message = message
	t.style = style
	t.visible = true
	t.seq++
	seq := t.seq
	return t, tea.Tick(ToastDuration, func(time.Time) tea.Msg {
		return dismissToastMsg{seq: seq}
	})
}

func (t toast) dismiss(msg dismissToastMsg) toast {
	if msg.seq != t.seq {
		return t
	}
	t.visible = false
	t.message = ""
	return t
}

func (t toast) View() string {
	if !t.visible || t.message == "" {
		return ""
	}

	style := lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder())

	switch t.style {
	case ToastError:
		style = style.BorderForeground(toastErrorColor)
	case ToastInfo:
		style = style.BorderForeground(toastInfoColor)
	case ToastWarn:
		style = style.BorderForeground(toastWarnColor)
	default:
		style = style.BorderForeground(toastSuccessColor)
	}

	return style.Render(wordwrap.String(t.message, ToastWidth))
}
