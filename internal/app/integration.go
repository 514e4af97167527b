package app

import (
	"context"
	"sync"

	"github.com/dshills/nbsense/internal/event"
	"github.com/dshills/nbsense/internal/event/events"
	"github.com/dshills/nbsense/internal/intellisense"
	"github.com/dshills/nbsense/internal/logging"
	"github.com/dshills/nbsense/internal/mode"
	"github.com/dshills/nbsense/internal/notebook"
)

// BinderFactory creates the intellisense binder for a document.
type BinderFactory func(doc notebook.Document) *intellisense.Binder

// Settings are the integration's configurable values.
type Settings struct {
	Language     string
	LogoSelector string
	LogoURL      string
}

// Deps are the components the integration drives.
type Deps struct {
	Bus       *event.Bus
	Installer *mode.Installer
	NewBinder BinderFactory
	Chrome    Chrome
	Logger    *logging.Logger
}

// Integration subscribes to the host lifecycle events and runs the
// metadata initializer, the mode installer and the intellisense binder in
// response.
type Integration struct {
	deps     Deps
	settings Settings
	log      *logging.Logger

	mu      sync.Mutex
	subs    []event.Subscription
	binder  *intellisense.Binder
	started bool
	stopped bool
}

// NewIntegration creates an integration. Call Start to subscribe.
func NewIntegration(deps Deps, settings Settings) *Integration {
	log := deps.Logger
	if log == nil {
		log = logging.Nop()
	}
	if settings.Language == "" {
		settings.Language = notebook.DefaultLanguage
	}
	return &Integration{
		deps:     deps,
		settings: settings,
		log:      log.WithComponent("app"),
	}
}

// Start registers the event subscriptions.
func (i *Integration) Start() error {
	if i.deps.Bus == nil {
		return NewComponentError("bus", "start", ErrComponentNotAvailable)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	switch {
	case i.stopped:
		return ErrStopped
	case i.started:
		return ErrAlreadyStarted
	}

	subscriptions := []struct {
		topic    event.Topic
		handler  event.HandlerFunc
		priority event.Priority
	}{
		{events.TopicNotebookLoaded, event.Typed(i.onNotebookLoaded), event.PriorityHigh},
		{events.TopicAppInitialized, event.Typed(i.onAppInitialized), event.PriorityNormal},
		{events.TopicCellCreated, event.Typed(i.onCellCreated), event.PriorityNormal},
		{events.TopicCellDeleted, event.Typed(i.onCellDeleted), event.PriorityNormal},
		{events.TopicNotebookClosed, event.Typed(i.onNotebookClosed), event.PriorityLow},
	}

	for _, s := range subscriptions {
		sub, err := i.deps.Bus.SubscribeFunc(s.topic, s.handler, event.WithPriority(s.priority))
		if err != nil {
			i.unsubscribeLocked()
			return NewOperationError("subscribe", s.topic.String(), err)
		}
		i.subs = append(i.subs, sub)
	}
	i.started = true
	return nil
}

// Stop detaches every adapter and removes the subscriptions.
func (i *Integration) Stop() {
	i.mu.Lock()
	binder := i.binder
	i.binder = nil
	i.stopped = true
	i.unsubscribeLocked()
	i.mu.Unlock()

	if binder != nil {
		binder.DetachAll()
	}
}

// Binder returns the binder of the current document, or nil before
// app.initialized.
func (i *Integration) Binder() *intellisense.Binder {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.binder
}

func (i *Integration) unsubscribeLocked() {
	for _, sub := range i.subs {
		_ = i.deps.Bus.Unsubscribe(sub)
	}
	i.subs = nil
}

func (i *Integration) onNotebookLoaded(_ context.Context, ev event.Event[events.NotebookLoaded]) error {
	doc := ev.Payload.Document
	if doc == nil {
		return NewOperationError("initialize metadata", "", ErrNoDocument)
	}
	notebook.EnsureLanguage(doc.Metadata(), i.settings.Language, i.log)
	return nil
}

// onAppInitialized installs the mode, binds every cell and swaps the logo.
// A failed step is logged and does not prevent the others.
func (i *Integration) onAppInitialized(ctx context.Context, ev event.Event[events.AppInitialized]) error {
	doc := ev.Payload.Document
	if doc == nil {
		return NewOperationError("initialize", "", ErrNoDocument)
	}

	var errs ErrorList

	if i.deps.Installer != nil {
		if _, err := i.deps.Installer.Install(ctx); err != nil {
			errs.Add(NewComponentError("mode", "install", err))
		}
	}

	if i.deps.NewBinder == nil {
		errs.Add(NewComponentError("intellisense", "bind", ErrComponentNotAvailable))
	} else {
		binder := i.deps.NewBinder(doc)
		i.mu.Lock()
		old := i.binder
		i.binder = binder
		i.mu.Unlock()
		if old != nil {
			old.DetachAll()
		}
		n := binder.AttachAll()
		i.log.Info("intellisense attached to %d code cells", n)
	}

	if err := SwapLogo(i.deps.Chrome, i.settings.LogoSelector, i.settings.LogoURL, i.log); err != nil {
		i.log.Warn("%v", err)
		errs.Add(err)
	}
	return errs.AsError()
}

func (i *Integration) onCellCreated(_ context.Context, ev event.Event[events.CellCreated]) error {
	binder := i.Binder()
	if binder == nil {
		i.log.Debug("cell created before initialization")
		return nil
	}
	binder.Attach(ev.Payload.Cell)
	return nil
}

func (i *Integration) onCellDeleted(_ context.Context, ev event.Event[events.CellDeleted]) error {
	if binder := i.Binder(); binder != nil {
		binder.Detach(ev.Payload.Cell)
	}
	return nil
}

func (i *Integration) onNotebookClosed(_ context.Context, ev event.Event[events.NotebookClosed]) error {
	if doc := ev.Payload.Document; doc != nil {
		if binder := i.Binder(); binder != nil && binder.Document() != doc {
			i.log.Debug("ignoring close of another notebook")
			return nil
		}
	}
	i.Stop()
	i.log.Debug("notebook closed")
	return nil
}
