package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/event"
	"github.com/dshills/nbsense/internal/event/events"
	"github.com/dshills/nbsense/internal/intellisense"
	"github.com/dshills/nbsense/internal/kernel"
	"github.com/dshills/nbsense/internal/mode"
	"github.com/dshills/nbsense/internal/notebook"
)

const (
	testSelector = ".container img"
	testLogo     = "/static/custom/ifsharp_logo.png"
)

// nullMessenger accepts requests and never replies.
type nullMessenger struct {
	sent int
}

func (m *nullMessenger) NewMessage(msgType string, content any) *kernel.Message {
	return kernel.NewMessage("s", "u", msgType, content)
}

func (m *nullMessenger) SetCallbacks(string, kernel.Callbacks) {}

func (m *nullMessenger) Send(context.Context, *kernel.Message) error {
	m.sent++
	return nil
}

type fixture struct {
	bus      *event.Bus
	doc      *notebook.Memory
	defaults *editor.Defaults
	chrome   *MemoryChrome
	integ    *Integration
	msgr     *nullMessenger
}

func newFixture(t *testing.T, language string, md notebook.Metadata) *fixture {
	t.Helper()

	f := &fixture{
		bus:      event.NewBus(),
		doc:      notebook.NewMemory(md),
		defaults: editor.NewDefaults(),
		chrome:   NewMemoryChrome(testSelector),
		msgr:     &nullMessenger{},
	}
	f.addCell("c1", notebook.CellCode, "let x = 1")
	f.addCell("m1", notebook.CellMarkdown, "# notes")
	f.addCell("c2", notebook.CellCode, "x.")

	f.integ = NewIntegration(Deps{
		Bus:       f.bus,
		Installer: mode.NewInstaller(mode.NewRegistry(), f.defaults, language, nil),
		NewBinder: func(doc notebook.Document) *intellisense.Binder {
			opts := intellisense.DefaultOptions()
			opts.Language = language
			return intellisense.NewBinder(doc, f.msgr, opts)
		},
		Chrome: f.chrome,
	}, Settings{
		Language:     notebook.DefaultLanguage,
		LogoSelector: testSelector,
		LogoURL:      testLogo,
	})
	if err := f.integ.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(f.bus.Close)
	return f
}

func (f *fixture) addCell(id string, typ notebook.CellType, text string) *notebook.MemoryCell {
	c := notebook.NewMemoryCell(id, typ, editor.MemoryFactory{Defaults: f.defaults}.New(text))
	f.doc.Append(c)
	return c
}

func (f *fixture) publish(t *testing.T, topic event.Topic, payload any) error {
	t.Helper()
	var ev any
	switch p := payload.(type) {
	case events.NotebookLoaded:
		ev = event.New(topic, p, "test")
	case events.AppInitialized:
		ev = event.New(topic, p, "test")
	case events.CellCreated:
		ev = event.New(topic, p, "test")
	case events.CellDeleted:
		ev = event.New(topic, p, "test")
	case events.NotebookClosed:
		ev = event.New(topic, p, "test")
	default:
		t.Fatalf("unexpected payload %T", payload)
	}
	return f.bus.Publish(context.Background(), ev)
}

func (f *fixture) initialize(t *testing.T) error {
	t.Helper()
	if err := f.publish(t, events.TopicNotebookLoaded, events.NotebookLoaded{Document: f.doc}); err != nil {
		t.Fatalf("publish loaded: %v", err)
	}
	return f.publish(t, events.TopicAppInitialized, events.AppInitialized{Document: f.doc})
}

func TestIntegration_NotebookLoaded(t *testing.T) {
	tests := []struct {
		name string
		md   notebook.Metadata
		want string
	}{
		{"missing language", notebook.Metadata{}, notebook.DefaultLanguage},
		{"existing language", notebook.Metadata{"language": "python"}, "python"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, notebook.DefaultLanguage, tt.md)
			if err := f.publish(t, events.TopicNotebookLoaded, events.NotebookLoaded{Document: f.doc}); err != nil {
				t.Fatalf("publish: %v", err)
			}
			if got, _ := f.doc.Metadata().Language(); got != tt.want {
				t.Errorf("language: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIntegration_AppInitialized(t *testing.T) {
	f := newFixture(t, notebook.DefaultLanguage, nil)

	if err := f.initialize(t); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	if got := f.defaults.Mode(); got != mode.FSharp.Name {
		t.Errorf("default mode: got %q, want %q", got, mode.FSharp.Name)
	}
	binder := f.integ.Binder()
	if binder == nil {
		t.Fatal("no binder after initialization")
	}
	if binder.Len() != 2 {
		t.Errorf("adapters: got %d, want 2", binder.Len())
	}
	if binder.Adapter(f.doc.Cell("m1")) != nil {
		t.Error("markdown cell has an adapter")
	}
	if got := f.doc.Cell("c1").Highlight(); got != notebook.DefaultLanguage {
		t.Errorf("highlight: got %q", got)
	}
	if src, _ := f.chrome.ImageSource(testSelector); src != testLogo {
		t.Errorf("logo: got %q, want %q", src, testLogo)
	}

	// New cells inherit the installed mode.
	c3 := f.addCell("c3", notebook.CellCode, "")
	if got := c3.Editor().Option(editor.OptionMode); got != mode.FSharp.Name {
		t.Errorf("new cell mode: got %v", got)
	}
}

func TestIntegration_ModeFailureStillBinds(t *testing.T) {
	f := newFixture(t, "cobol", nil)

	err := f.initialize(t)
	if !errors.Is(err, mode.ErrUnknownMode) {
		t.Fatalf("err: got %v, want ErrUnknownMode", err)
	}
	var ce *ComponentError
	if !errors.As(err, &ce) || ce.Component != "mode" {
		t.Errorf("err: got %v, want mode ComponentError", err)
	}
	if f.defaults.Mode() != "" {
		t.Errorf("default mode: got %q, want empty", f.defaults.Mode())
	}
	if b := f.integ.Binder(); b == nil || b.Len() != 2 {
		t.Error("cells should be bound despite the mode failure")
	}
}

func TestIntegration_MissingLogo(t *testing.T) {
	f := newFixture(t, notebook.DefaultLanguage, nil)
	f.chrome = NewMemoryChrome()
	f.integ.deps.Chrome = f.chrome

	err := f.initialize(t)
	if !errors.Is(err, ErrNoImage) {
		t.Errorf("err: got %v, want ErrNoImage", err)
	}
	if b := f.integ.Binder(); b == nil || b.Len() != 2 {
		t.Error("cells should be bound despite the logo failure")
	}
}

func TestIntegration_CellLifecycle(t *testing.T) {
	f := newFixture(t, notebook.DefaultLanguage, nil)

	// Before initialization cell events are ignored.
	early := f.addCell("early", notebook.CellCode, "")
	if err := f.publish(t, events.TopicCellCreated, events.CellCreated{Cell: early}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if err := f.initialize(t); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	binder := f.integ.Binder()
	if binder.Len() != 3 {
		t.Errorf("adapters after init: got %d, want 3", binder.Len())
	}

	c4 := f.addCell("c4", notebook.CellCode, "List.")
	if err := f.publish(t, events.TopicCellCreated, events.CellCreated{Cell: c4}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if binder.Adapter(c4) == nil {
		t.Fatal("created cell not attached")
	}

	fired, _ := binder.HandleKey(context.Background(), c4, intellisense.KeyEvent{KeyCode: intellisense.KeyPeriod})
	if !fired || f.msgr.sent != 1 {
		t.Errorf("key on created cell: fired=%v sent=%d", fired, f.msgr.sent)
	}

	c4.Editor().MarkText(editor.Position{}, editor.Position{Ch: 4}, editor.MarkOptions{ClassName: intellisense.DefaultMarkerClass})
	f.doc.Remove("c4")
	if err := f.publish(t, events.TopicCellDeleted, events.CellDeleted{Cell: c4}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if binder.Adapter(c4) != nil {
		t.Error("deleted cell still attached")
	}
	if n := len(editor.MarksWithClass(c4.Editor(), intellisense.DefaultMarkerClass)); n != 0 {
		t.Errorf("markers after delete: got %d, want 0", n)
	}
}

func TestIntegration_NotebookClosed(t *testing.T) {
	f := newFixture(t, notebook.DefaultLanguage, nil)
	if err := f.initialize(t); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	binder := f.integ.Binder()

	if err := f.publish(t, events.TopicNotebookClosed, events.NotebookClosed{Document: f.doc}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if binder.Len() != 0 {
		t.Errorf("adapters after close: got %d, want 0", binder.Len())
	}
	if f.integ.Binder() != nil {
		t.Error("binder kept after close")
	}
	if n := f.bus.Stats().ActiveSubscribers; n != 0 {
		t.Errorf("subscribers after close: got %d, want 0", n)
	}
	if err := f.integ.Start(); !errors.Is(err, ErrStopped) {
		t.Errorf("Start after close: got %v, want ErrStopped", err)
	}
}

func TestIntegration_OtherNotebookClosed(t *testing.T) {
	f := newFixture(t, notebook.DefaultLanguage, nil)
	if err := f.initialize(t); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	other := notebook.NewMemory(nil)
	if err := f.publish(t, events.TopicNotebookClosed, events.NotebookClosed{Document: other}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if b := f.integ.Binder(); b == nil || b.Len() != 2 {
		t.Error("closing another notebook detached this one")
	}
	if n := f.bus.Stats().ActiveSubscribers; n == 0 {
		t.Error("subscriptions removed on close of another notebook")
	}
}

func TestIntegration_StartTwice(t *testing.T) {
	f := newFixture(t, notebook.DefaultLanguage, nil)
	if err := f.integ.Start(); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start: got %v, want ErrAlreadyStarted", err)
	}
}

func TestIntegration_NoBus(t *testing.T) {
	err := NewIntegration(Deps{}, Settings{}).Start()
	if !errors.Is(err, ErrComponentNotAvailable) {
		t.Errorf("Start: got %v, want ErrComponentNotAvailable", err)
	}
}

func TestIntegration_NilDocument(t *testing.T) {
	f := newFixture(t, notebook.DefaultLanguage, nil)
	err := f.publish(t, events.TopicNotebookLoaded, events.NotebookLoaded{})
	if !errors.Is(err, ErrNoDocument) {
		t.Errorf("err: got %v, want ErrNoDocument", err)
	}
}
