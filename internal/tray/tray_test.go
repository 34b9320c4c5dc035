package tray

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/uuidtrans/internal/clipboard"
	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/keys"
	"github.com/zjrosen/uuidtrans/internal/pool"
	"github.com/zjrosen/uuidtrans/internal/pubsub"
	"github.com/zjrosen/uuidtrans/internal/registry"
	"github.com/zjrosen/uuidtrans/internal/replace"
	"github.com/zjrosen/uuidtrans/internal/search"
)

const (
	fooID = "11111111-1111-1111-1111-111111111111"
	barID = "22222222-2222-2222-2222-222222222222"
)

type staticSource struct {
	snap *registry.Snapshot
}

func (s *staticSource) Current() *registry.Snapshot { return s.snap }

func newDeps(t *testing.T, cb clipboard.Clipboard) Deps {
	t.Helper()
	snap, _ := registry.Build([]element.Element{
		element.New(fooID, "Foo", "Service", "ws.yaml"),
		element.New(barID, "Bar", "Service", "ws.yaml"),
	}, []string{"ws.yaml"}, 1)
	engine := search.New(&staticSource{snap: snap})

	p := pool.New(pool.Config{Workers: 2})
	t.Cleanup(p.Close)

	return Deps{
		Engine:    engine,
		Replacer:  replace.New(engine),
		Clipboard: cb,
		Pool:      p,
		Rebuild: func(context.Context) (registry.RebuildReport, error) {
			return registry.RebuildReport{Version: 2, Elements: 2}, nil
		},
		Workspace: "/tmp/ws",
		KeyMap:    keys.DefaultTrayKeyMap(),
	}
}

// press sends a key and runs the resulting action command to completion.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(Model)
	require.NotNil(t, cmd)
	next, _ = m.Update(cmd())
	return next.(Model)
}

func TestSearchID_ShowsName(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory("  "+fooID+"\n")))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})

	assert.Equal(t, "Foo", m.Last())
	assert.Contains(t, m.View(), "Foo")
	assert.Equal(t, ToastSuccess, m.toast.style)
}

func TestSearchName_ShowTypeFormatsResult(t *testing.T) {
	deps := newDeps(t, clipboard.NewMemory("Bar"))
	deps.ShowType = true
	m := New(context.Background(), deps)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, "Service/"+barID, m.Last())
}

func TestSearch_NotFoundWarns(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory("Nope")))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, "No element found for name 'Nope'", m.toast.message)
	assert.Equal(t, ToastWarn, m.toast.style)
}

func TestSearch_InvalidIsSilent(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory("not an id")))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})

	assert.False(t, m.toast.visible)
	assert.Empty(t, m.Last())
}

func TestReplaceIDs_WritesBack(t *testing.T) {
	cb := clipboard.NewMemory("  call " + fooID + " then " + barID + "  ")
	m := New(context.Background(), newDeps(t, cb))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlR})

	got, err := cb.Read()
	require.NoError(t, err)
	assert.Equal(t, "call Foo then Bar", got)
	assert.Equal(t, MsgReplaceComplete, m.toast.message)
	assert.Equal(t, 1, cb.Writes())
}

func TestReplaceNames_WritesBack(t *testing.T) {
	cb := clipboard.NewMemory("Foo\nunknown\nBar\n")
	m := New(context.Background(), newDeps(t, cb))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})

	got, err := cb.Read()
	require.NoError(t, err)
	assert.Equal(t, fooID+"\nunknown\n"+barID, got, "input is trimmed before replacing")
	assert.Equal(t, MsgReplaceComplete, m.toast.message)
}

func TestReplace_ClipboardFailure(t *testing.T) {
	cb := clipboard.NewMemory("")
	cb.FailReads(errors.New("no display"))
	m := New(context.Background(), newDeps(t, cb))

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlE})

	assert.Equal(t, MsgReplaceFailed+": no display", m.toast.message)
	assert.Equal(t, ToastError, m.toast.style)
	assert.Zero(t, cb.Writes(), "nothing is written back")
}

func TestRebuild_ToastsProgressThenDone(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory("")))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	m = next.(Model)
	assert.Equal(t, MsgUpdating, m.toast.message)

	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	require.Len(t, batch, 2)
	next, _ = m.Update(batch[1]())
	m = next.(Model)

	assert.Equal(t, MsgUpdateDone, m.toast.message)
	assert.Zero(t, m.busy)
	assert.Zero(t, m.rebuilding)
}

func TestRebuild_Failure(t *testing.T) {
	deps := newDeps(t, clipboard.NewMemory(""))
	deps.Rebuild = func(context.Context) (registry.RebuildReport, error) {
		return registry.RebuildReport{}, errors.New("workspace vanished")
	}
	m := New(context.Background(), deps)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	batch := cmd().(tea.BatchMsg)
	next, _ := m.Update(batch[1]())
	m = next.(Model)

	assert.Equal(t, "workspace vanished", m.toast.message)
	assert.Equal(t, ToastError, m.toast.style)
}

func TestRegistryEvents_FromWatcher(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory("")))

	next, _ := m.Update(pubsub.Event[registry.RebuildReport]{Type: pubsub.RebuildStarted})
	m = next.(Model)
	assert.Equal(t, MsgUpdating, m.toast.message)

	next, _ = m.Update(pubsub.Event[registry.RebuildReport]{
		Type:    pubsub.RebuildCompleted,
		Payload: registry.RebuildReport{Version: 3, Warnings: make([]registry.IntegrityWarning, 2)},
	})
	m = next.(Model)
	assert.Equal(t, MsgUpdateDone+" 2 warning(s), see index:check.", m.toast.message)
}

func TestRegistryEvents_LateEventsAfterTrayRebuildAreDropped(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory("")))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlU})
	batch := cmd().(tea.BatchMsg)
	next, _ := m.Update(batch[1]())
	m = next.(Model)
	require.Equal(t, MsgUpdateDone, m.toast.message)
	seq := m.toast.seq

	// the registry's own events for version 2 land after the tray's result
	for _, ev := range []pubsub.Event[registry.RebuildReport]{
		{Type: pubsub.RebuildStarted, Payload: registry.RebuildReport{Version: 1}},
		{Type: pubsub.RebuildCompleted, Payload: registry.RebuildReport{Version: 2}},
	} {
		next, _ = m.Update(ev)
		m = next.(Model)
	}
	assert.Equal(t, seq, m.toast.seq, "no second toast")

	// a later watcher rebuild is still shown
	next, _ = m.Update(pubsub.Event[registry.RebuildReport]{
		Type:    pubsub.RebuildCompleted,
		Payload: registry.RebuildReport{Version: 3},
	})
	m = next.(Model)
	assert.Greater(t, m.toast.seq, seq)
	assert.Equal(t, MsgUpdateDone, m.toast.message)
}

func TestToggleType_Persists(t *testing.T) {
	deps := newDeps(t, clipboard.NewMemory(""))
	var saved []bool
	deps.SaveShowType = func(v bool) error {
		saved = append(saved, v)
		return nil
	}
	m := New(context.Background(), deps)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = next.(Model)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	m = next.(Model)

	assert.False(t, m.ShowType())
	assert.Equal(t, []bool{true, false}, saved)
	assert.Equal(t, "Show type: off", m.toast.message)
}

func TestPoolClosed_ReportsFailure(t *testing.T) {
	deps := newDeps(t, clipboard.NewMemory(fooID))
	deps.Pool.Close()
	m := New(context.Background(), deps)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlF})

	assert.Equal(t, pool.ErrPoolClosed.Error(), m.toast.message)
}

func TestQuit(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory("")))

	for _, k := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune{'q'}},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestToast_StaleDismissKeepsNewerToast(t *testing.T) {
	var tst toast
	tst, _ = tst.show("first", ToastInfo)
	first := dismissToastMsg{seq: tst.seq}
	tst, _ = tst.show("second", ToastInfo)

	tst = tst.dismiss(first)
	assert.True(t, tst.visible)
	assert.Equal(t, "second", tst.message)

	tst = tst.dismiss(dismissToastMsg{seq: tst.seq})
	assert.False(t, tst.visible)
	assert.Empty(t, tst.View())
}

func TestToast_WrapsLongMessages(t *testing.T) {
	var tst toast
	tst, _ = tst.show("Multiple elements found for name 'Dup': "+fooID+", "+barID, ToastWarn)

	view := tst.View()

	assert.Contains(t, view, "╭")
	assert.GreaterOrEqual(t, bytes.Count([]byte(view), []byte("\n")), 4, "message spans several lines")
}

func TestTray_Program(t *testing.T) {
	m := New(context.Background(), newDeps(t, clipboard.NewMemory(fooID)))
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("/tmp/ws"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyCtrlF})
	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Foo"))
	}, teatest.WithDuration(3*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	final, ok := tm.FinalModel(t, teatest.WithFinalTimeout(3*time.Second)).(Model)
	require.True(t, ok)
	assert.Equal(t, "Foo", final.Last())
}
