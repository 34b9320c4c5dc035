// Package tray is the terminal stand-in for a system tray: it shows the
// registry state and runs lookups and replacements on the clipboard when a
// hotkey is pressed.
package tray

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/uuidtrans/internal/clipboard"
	"github.com/zjrosen/uuidtrans/internal/keys"
	"github.com/zjrosen/uuidtrans/internal/log"
	"github.com/zjrosen/uuidtrans/internal/pool"
	"github.com/zjrosen/uuidtrans/internal/pubsub"
	"github.com/zjrosen/uuidtrans/internal/registry"
	"github.com/zjrosen/uuidtrans/internal/replace"
	"github.com/zjrosen/uuidtrans/internal/search"
)

// Toast texts.
const (
	MsgUpdating        = "Updating registry..."
	MsgUpdateDone      = "Update done."
	MsgReplaceComplete = "Replacement complete."
	MsgReplaceFailed   = "Replacement failed"
	MsgUpdateFailed    = "Update failed."
)

// Deps are the collaborators the tray drives.
type Deps struct {
	Engine    *search.Engine
	Replacer  *replace.Replacer
	Clipboard clipboard.Clipboard
	Pool      *pool.Pool

	// Rebuild re-discovers the workspace and rebuilds the registry.
	Rebuild func(ctx context.Context) (registry.RebuildReport, error)
	// Events delivers rebuilds started elsewhere, e.g. by the file watcher.
	// Optional.
	Events <-chan pubsub.Event[registry.RebuildReport]
	// SaveShowType persists the show-type toggle. Optional.
	SaveShowType func(bool) error

	Workspace string
	ShowType  bool
	KeyMap    keys.TrayKeyMap
}

// Model is the tray's bubbletea model.
type Model struct {
	deps     Deps
	ctx      context.Context
	keys     keys.TrayKeyMap
	help     help.Model
	toast    toast
	showType bool
	busy     int
	// rebuilding counts tray-triggered rebuilds in flight; their
	// registry events are not toasted a second time.
	rebuilding int
	// settled is the newest snapshot version already toasted as done.
	// Registry events at or behind it arrive late and are dropped.
	settled uint64
	last    string
}

// lookupMsg carries a finished search.
type lookupMsg struct {
	result search.Result
	field  search.Field
}

// replacedMsg carries a finished replacement that was written back.
type replacedMsg struct {
	report replace.Report
}

// rebuiltMsg carries a finished rebuild triggered from the tray.
type rebuiltMsg struct {
	report registry.RebuildReport
}

// failedMsg reports an action that could not complete.
type failedMsg struct {
	action string
	err    error
}

// New creates the tray model. ctx bounds event listening and rebuilds.
func New(ctx context.Context, deps Deps) Model {
	return Model{
		deps:     deps,
		ctx:      ctx,
		keys:     deps.KeyMap,
		help:     help.New(),
		showType: deps.ShowType,
	}
}

// Init starts listening for registry events.
func (m Model) Init() tea.Cmd {
	return m.listen()
}

func (m Model) listen() tea.Cmd {
	if m.deps.Events == nil {
		return nil
	}
	return pubsub.ListenCmd(m.ctx, m.deps.Events)
}

// ShowType reports whether results are prefixed with their type.
func (m Model) ShowType() bool {
	return m.showType
}

// Last returns the text of the most recent lookup result.
func (m Model) Last() string {
	return m.last
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case lookupMsg:
		m.busy--
		text := search.Format(msg.result, msg.field, m.showType)
		if text == "" {
			return m, nil
		}
		m.last = text
		style := ToastSuccess
		if _, ok := msg.result.(search.One); !ok {
			style = ToastWarn
		}
		return m.showToast(text, style)

	case replacedMsg:
		m.busy--
		log.Debug(log.CatTray, "Replacement written back",
			"resolved", msg.report.Resolved, "unresolved", msg.report.Unresolved)
		return m.showToast(MsgReplaceComplete, ToastSuccess)

	case rebuiltMsg:
		m.busy--
		m.rebuilding--
		m.settled = max(m.settled, msg.report.Version)
		return m.showToast(rebuildText(msg.report), ToastSuccess)

	case failedMsg:
		m.busy--
		if msg.action == "rebuild" {
			m.rebuilding--
		}
		log.ErrorErr(log.CatTray, "Action failed", msg.err, "action", msg.action)
		text := msg.err.Error()
		if strings.HasPrefix(msg.action, "replace") {
			text = MsgReplaceFailed + ": " + text
		}
		return m.showToast(text, ToastError)

	case pubsub.Event[registry.RebuildReport]:
		var cmd tea.Cmd
		if m.rebuilding == 0 {
			m, cmd = m.registryEvent(msg)
		}
		return m, tea.Batch(cmd, m.listen())

	case dismissToastMsg:
		m.toast = m.toast.dismiss(msg)
		return m, nil
	}
	return m, nil
}

// registryEvent toasts a rebuild the tray did not trigger itself. Started and
// Failed carry the version the rebuild began from, Completed the version it
// published.
func (m Model) registryEvent(msg pubsub.Event[registry.RebuildReport]) (Model, tea.Cmd) {
	switch msg.Type {
	case pubsub.RebuildStarted:
		if msg.Payload.Version >= m.settled {
			return m.toastModel(MsgUpdating, ToastInfo)
		}
	case pubsub.RebuildCompleted:
		if msg.Payload.Version > m.settled {
			m.settled = msg.Payload.Version
			return m.toastModel(rebuildText(msg.Payload), ToastSuccess)
		}
	case pubsub.RebuildFailed:
		if msg.Payload.Version >= m.settled {
			return m.toastModel(MsgUpdateFailed, ToastError)
		}
	}
	log.Debug(log.CatTray, "Dropped late registry event", "type", msg.Type, "version", msg.Payload.Version)
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.SearchID):
		return m.run("search:id", m.searchJob(m.deps.Engine.ByID, search.FieldName))

	case key.Matches(msg, m.keys.SearchName):
		return m.run("search:name", m.searchJob(m.deps.Engine.ByName, search.FieldID))

	case key.Matches(msg, m.keys.ReplaceIDs):
		return m.run("replace:ids", m.replaceJob(func(text string) (string, replace.Report, error) {
			out, report := m.deps.Replacer.IDsWithReport(text)
			return out, report, nil
		}))

	case key.Matches(msg, m.keys.ReplaceNames):
		return m.run("replace:names", m.replaceJob(func(text string) (string, replace.Report, error) {
			return m.deps.Replacer.NamesWithReport(strings.NewReader(text))
		}))

	case key.Matches(msg, m.keys.Rebuild):
		m.rebuilding++
		next, run := m.run("rebuild", m.rebuildJob())
		m = next.(Model)
		var toastCmd tea.Cmd
		m, toastCmd = m.toastModel(MsgUpdating, ToastInfo)
		return m, tea.Batch(toastCmd, run)

	case key.Matches(msg, m.keys.ToggleType):
		m.showType = !m.showType
		if m.deps.SaveShowType != nil {
			if err := m.deps.SaveShowType(m.showType); err != nil {
				log.ErrorErr(log.CatTray, "Failed to save show_type", err)
				return m.showToast("Failed to save setting: "+err.Error(), ToastError)
			}
		}
		return m.showToast(fmt.Sprintf("Show type: %s", onOff(m.showType)), ToastInfo)
	}
	return m, nil
}

// job computes the message an action ends with.
type job func(ctx context.Context) tea.Msg

// run submits j to the worker pool and returns a command that waits for its
// message. A job that panics ends as a failedMsg.
func (m Model) run(action string, j job) (tea.Model, tea.Cmd) {
	m.busy++
	p := m.deps.Pool
	ctx := m.ctx
	return m, func() tea.Msg {
		done := make(chan tea.Msg, 1)
		err := p.Submit(ctx, action, func(jobCtx context.Context) {
			var msg tea.Msg = failedMsg{action: action, err: fmt.Errorf("%s aborted", action)}
			defer func() { done <- msg }()
			msg = j(jobCtx)
		})
		if err != nil {
			return failedMsg{action: action, err: err}
		}
		return <-done
	}
}

func (m Model) searchJob(lookup func(string) search.Result, field search.Field) job {
	cb := m.deps.Clipboard
	return func(context.Context) tea.Msg {
		text, err := cb.Read()
		if err != nil {
			return failedMsg{action: "search", err: err}
		}
		return lookupMsg{result: lookup(strings.TrimSpace(text)), field: field}
	}
}

func (m Model) replaceJob(apply func(string) (string, replace.Report, error)) job {
	cb := m.deps.Clipboard
	return func(context.Context) tea.Msg {
		text, err := cb.Read()
		if err != nil {
			return failedMsg{action: "replace", err: err}
		}
		out, report, err := apply(strings.TrimSpace(text))
		if err != nil {
			return failedMsg{action: "replace", err: err}
		}
		if err := cb.Write(out); err != nil {
			return failedMsg{action: "replace", err: err}
		}
		return replacedMsg{report: report}
	}
}

func (m Model) rebuildJob() job {
	rebuild := m.deps.Rebuild
	return func(ctx context.Context) tea.Msg {
		if rebuild == nil {
			return failedMsg{action: "rebuild", err: fmt.Errorf("no workspace selected")}
		}
		report, err := rebuild(ctx)
		if err != nil {
			return failedMsg{action: "rebuild", err: err}
		}
		return rebuiltMsg{report: report}
	}
}

func (m Model) showToast(text string, style ToastStyle) (tea.Model, tea.Cmd) {
	return m.toastModel(text, style)
}

func (m Model) toastModel(text string, style ToastStyle) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.toast, cmd = m.toast.show(text, style)
	return m, cmd
}

func rebuildText(r registry.RebuildReport) string {
	if len(r.Warnings) == 0 {
		return MsgUpdateDone
	}
	return fmt.Sprintf("%s %d warning(s), see index:check.", MsgUpdateDone, len(r.Warnings))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#5F00AF", Dark: "#AF87FF"})
	labelStyle = lipgloss.NewStyle().Faint(true)
)

// View renders the tray.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("uuidtrans"))
	if m.busy > 0 {
		b.WriteString(labelStyle.Render(" (working)"))
	}
	b.WriteString("\n\n")

	workspace := m.deps.Workspace
	if workspace == "" {
		workspace = "(none)"
	}
	row := func(label, value string) {
		b.WriteString(labelStyle.Render(fmt.Sprintf("%-10s", label)))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("workspace", workspace)

	if m.deps.Engine != nil {
		snap := m.deps.Engine.Snapshot()
		row("elements", fmt.Sprintf("%d", snap.Len()))
		if snap.Version() > 0 {
			row("rebuilt", snap.BuiltAt().Format(time.TimeOnly))
		} else {
			row("rebuilt", "never")
		}
	}
	row("show type", onOff(m.showType))
	if m.last != "" {
		row("last", m.last)
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	if view := m.toast.View(); view != "" {
		b.WriteString("\n\n")
		b.WriteString(view)
	}
	return b.String()
}
