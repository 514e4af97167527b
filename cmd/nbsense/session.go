package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dshills/nbsense/internal/app"
	"github.com/dshills/nbsense/internal/config"
	"github.com/dshills/nbsense/internal/editor"
	"github.com/dshills/nbsense/internal/event"
	"github.com/dshills/nbsense/internal/event/events"
	"github.com/dshills/nbsense/internal/hook"
	"github.com/dshills/nbsense/internal/intellisense"
	"github.com/dshills/nbsense/internal/kernel"
	"github.com/dshills/nbsense/internal/logging"
	"github.com/dshills/nbsense/internal/mode"
	"github.com/dshills/nbsense/internal/notebook"
)

var (
	flagKernelURL string
	flagKernelID  string
)

var sessionCmd = &cobra.Command{
	Use:   "session <file.ipynb>",
	Short: "Drive intellisense against a notebook from stdin",
	Long: `Loads a notebook into in-memory cells, runs the host lifecycle and reads
commands from stdin:

  select <cell>             select a cell
  cursor <line> <ch>        move the selected cell's cursor
  key <code> [mods...]      press a key; mods are shift, ctrl, alt, meta, down
  add <cell> <text...>      append a code cell
  delete <cell>             remove a cell
  show                      print candidates, signatures and markers
  quit                      end the session

Without a kernel, requests are printed instead of sent.`,
	Args: cobra.ExactArgs(1),
	RunE: runSession,
}

func init() {
	sessionCmd.Flags().StringVar(&flagKernelURL, "kernel", "", "kernel channels websocket URL, or the server URL when --kernel-id is set (default: kernel.url)")
	sessionCmd.Flags().StringVar(&flagKernelID, "kernel-id", "", "kernel id on the notebook server")
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	messenger, closeKernel, err := connectKernel(ctx, cfg, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}
	defer closeKernel()

	var methods intellisense.MethodsHook
	if cfg.Hooks.MethodsScript != "" {
		h, err := hook.LoadFile(cfg.Hooks.MethodsScript, hook.WithTimeout(cfg.HookTimeout()), hook.WithLogger(log))
		if err != nil {
			return app.NewComponentError("hook", "load", err)
		}
		defer h.Close()
		methods = h
	}

	if flagConfig != "" {
		w, err := config.NewWatcher(flagConfig, config.WithLogger(log))
		if err != nil {
			log.Warn("config reload disabled: %v", err)
		} else {
			defer w.Close()
			go func() {
				_ = w.Run(ctx, func(c config.Config) {
					// Everything else is fixed for the life of the session.
					log.SetLevel(c.LogLevel())
				})
			}()
		}
	}

	s, err := newSession(cfg, args[0], messenger, methods, cmd.OutOrStdout(), log)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.start(ctx); err != nil {
		log.Warn("%v", err)
	}
	return s.run(ctx, cmd.InOrStdin())
}

// connectKernel dials the configured kernel, or returns a messenger that
// prints requests when none is configured.
func connectKernel(ctx context.Context, cfg config.Config, out io.Writer, log *logging.Logger) (intellisense.Messenger, func(), error) {
	endpoint := flagKernelURL
	if endpoint == "" {
		endpoint = cfg.Kernel.URL
	}
	if endpoint == "" {
		log.Info("no kernel configured, printing requests")
		return &printMessenger{out: out, session: kernel.NewSessionID(), username: cfg.Kernel.Username}, func() {}, nil
	}

	session := kernel.NewSessionID()
	if flagKernelID != "" {
		u, err := kernel.ChannelsURL(endpoint, flagKernelID, session)
		if err != nil {
			return nil, nil, err
		}
		endpoint = u
	}

	opts := []kernel.ClientOption{
		kernel.WithSession(session),
		kernel.WithUsername(cfg.Kernel.Username),
		kernel.WithLogger(log),
	}
	if cfg.Kernel.Legacy {
		opts = append(opts, kernel.WithLegacyCallbacks())
	}

	client, err := kernel.Dial(ctx, endpoint, kernel.DialOptions{Token: cfg.Kernel.Token}, opts...)
	if err != nil {
		return nil, nil, app.NewComponentError("kernel", "connect", err)
	}
	client.Start(ctx)
	return client, func() { _ = client.Close() }, nil
}

// printMessenger writes requests as JSON lines and never receives replies.
type printMessenger struct {
	mu       sync.Mutex
	out      io.Writer
	session  string
	username string
}

func (m *printMessenger) NewMessage(msgType string, content any) *kernel.Message {
	return kernel.NewMessage(m.session, m.username, msgType, content)
}

func (m *printMessenger) SetCallbacks(string, kernel.Callbacks) {}

func (m *printMessenger) Send(_ context.Context, msg *kernel.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, err = fmt.Fprintf(m.out, "-> %s\n", data)
	return err
}

// session is one interactive notebook session.
type session struct {
	cfg      config.Config
	doc      *notebook.Memory
	factory  editor.MemoryFactory
	bus      *event.Bus
	integ    *app.Integration
	chrome   *app.MemoryChrome
	out      io.Writer
	outMu    sync.Mutex
	selected string
}

func newSession(cfg config.Config, path string, m intellisense.Messenger, methods intellisense.MethodsHook, out io.Writer, log *logging.Logger) (*session, error) {
	defaults := editor.NewDefaults()
	factory := editor.MemoryFactory{Defaults: defaults}

	doc, err := notebook.LoadFile(path, factory)
	if err != nil {
		return nil, app.NewOperationError("load", path, err)
	}

	s := &session{
		cfg:     cfg,
		doc:     doc,
		factory: factory,
		bus:     event.NewBus(),
		chrome:  app.NewMemoryChrome(cfg.Notebook.LogoSelector),
		out:     out,
	}

	binderOpts := intellisense.Options{
		Language:    cfg.Notebook.Language,
		Theme:       cfg.Notebook.Theme,
		MarkerClass: cfg.Notebook.MarkerClass,
		StaleGuard:  cfg.Intellisense.StaleGuard,
		Methods:     methods,
		OnUpdate:    s.report,
		Logger:      log,
	}

	s.integ = app.NewIntegration(app.Deps{
		Bus:       s.bus,
		Installer: mode.NewInstaller(mode.NewRegistry(), defaults, cfg.Notebook.Language, log),
		NewBinder: func(d notebook.Document) *intellisense.Binder {
			return intellisense.NewBinder(d, m, binderOpts)
		},
		Chrome: s.chrome,
		Logger: log,
	}, app.Settings{
		Language:     cfg.Notebook.Language,
		LogoSelector: cfg.Notebook.LogoSelector,
		LogoURL:      cfg.Notebook.LogoURL,
	})
	if err := s.integ.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// start publishes the load and initialization events.
func (s *session) start(ctx context.Context) error {
	if err := s.bus.Publish(ctx, event.New(events.TopicNotebookLoaded, events.NotebookLoaded{Document: s.doc}, "session")); err != nil {
		return err
	}
	return s.bus.Publish(ctx, event.New(events.TopicAppInitialized, events.AppInitialized{Document: s.doc}, "session"))
}

func (s *session) close() {
	_ = s.bus.Publish(context.Background(), event.New(events.TopicNotebookClosed, events.NotebookClosed{Document: s.doc}, "session"))
	s.bus.Close()
}

// run executes commands from r until quit, EOF or ctx is done.
func (s *session) run(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		quit, err := s.exec(ctx, scanner.Text())
		if err != nil {
			s.printf("error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

func (s *session) exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "quit", "exit":
		return true, nil
	case "select":
		return false, s.cmdSelect(args)
	case "cursor":
		return false, s.cmdCursor(args)
	case "key":
		return false, s.cmdKey(ctx, args)
	case "add":
		return false, s.cmdAdd(ctx, args)
	case "delete":
		return false, s.cmdDelete(ctx, args)
	case "show":
		s.show()
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

func (s *session) cmdSelect(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: select <cell>")
	}
	if !s.doc.Select(args[0]) {
		return fmt.Errorf("no cell %q", args[0])
	}
	s.selected = args[0]
	return nil
}

func (s *session) current() (*notebook.MemoryCell, error) {
	if s.selected == "" {
		return nil, fmt.Errorf("no cell selected")
	}
	c := s.doc.Cell(s.selected)
	if c == nil {
		return nil, fmt.Errorf("cell %q is gone", s.selected)
	}
	return c, nil
}

func (s *session) cmdCursor(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: cursor <line> <ch>")
	}
	line, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("line: %w", err)
	}
	ch, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("ch: %w", err)
	}
	c, err := s.current()
	if err != nil {
		return err
	}
	buf, ok := c.Editor().(*editor.Buffer)
	if !ok {
		return fmt.Errorf("cell %q has no movable cursor", c.ID())
	}
	buf.SetCursor(editor.Position{Line: line, Ch: ch})
	return nil
}

func parseKey(args []string) (intellisense.KeyEvent, error) {
	if len(args) == 0 {
		return intellisense.KeyEvent{}, fmt.Errorf("usage: key <code> [shift] [ctrl] [alt] [meta] [down]")
	}
	code, err := strconv.Atoi(args[0])
	if err != nil {
		return intellisense.KeyEvent{}, fmt.Errorf("key code: %w", err)
	}
	ev := intellisense.KeyEvent{KeyCode: code, Type: intellisense.KeyUp}
	for _, m := range args[1:] {
		switch strings.ToLower(m) {
		case "shift":
			ev.Modifiers |= intellisense.ModShift
		case "ctrl":
			ev.Modifiers |= intellisense.ModCtrl
		case "alt":
			ev.Modifiers |= intellisense.ModAlt
		case "meta":
			ev.Modifiers |= intellisense.ModMeta
		case "down":
			ev.Type = intellisense.KeyDown
		default:
			return intellisense.KeyEvent{}, fmt.Errorf("unknown modifier %q", m)
		}
	}
	return ev, nil
}

func (s *session) cmdKey(ctx context.Context, args []string) error {
	ev, err := parseKey(args)
	if err != nil {
		return err
	}
	c, err := s.current()
	if err != nil {
		return err
	}
	binder := s.integ.Binder()
	if binder == nil {
		return fmt.Errorf("intellisense is not attached")
	}
	fired, prevent := binder.HandleKey(ctx, c, ev)
	switch {
	case !fired:
		s.printf("no trigger\n")
	case prevent:
		s.printf("fired (default prevented)\n")
	default:
		s.printf("fired\n")
	}
	return nil
}

func (s *session) cmdAdd(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: add <cell> <text...>")
	}
	id := args[0]
	if s.doc.Cell(id) != nil {
		return fmt.Errorf("cell %q exists", id)
	}
	text := strings.Join(args[1:], " ")
	c := notebook.NewMemoryCell(id, notebook.CellCode, s.factory.New(text))
	s.doc.Append(c)
	return s.bus.Publish(ctx, event.New(events.TopicCellCreated, events.CellCreated{Cell: c}, "session"))
}

func (s *session) cmdDelete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: delete <cell>")
	}
	c := s.doc.Remove(args[0])
	if c == nil {
		return fmt.Errorf("no cell %q", args[0])
	}
	if s.selected == args[0] {
		s.selected = ""
	}
	return s.bus.Publish(ctx, event.New(events.TopicCellDeleted, events.CellDeleted{Cell: c}, "session"))
}

func (s *session) show() {
	binder := s.integ.Binder()
	for i, c := range notebook.CodeCells(s.doc) {
		sel := " "
		if c.Selected() {
			sel = "*"
		}
		s.printf("%s[%d] %s\n", sel, i, c.ID())
		if binder != nil {
			if a := binder.Adapter(c); a != nil {
				if items := a.Declarations(); len(items) > 0 {
					s.printf("    completions@%d: %s\n", a.StartColumnIndex(), strings.Join(items, ", "))
				}
				if sig := a.Signature(); sig != "" {
					s.printf("    signature: %s\n", sig)
				}
			}
		}
		for _, m := range editor.MarksWithClass(c.Editor(), s.cfg.Notebook.MarkerClass) {
			if from, to, ok := m.Find(); ok {
				s.printf("    error %d:%d-%d:%d %s\n", from.Line, from.Ch, to.Line, to.Ch, m.Title())
			}
		}
	}
}

// report prints kernel responses as they are applied.
func (s *session) report(u intellisense.Update) {
	switch u.Kind {
	case intellisense.UpdateCompletions:
		s.printf("<- %d completions from column %d\n", len(u.Declarations), u.StartColumn)
	case intellisense.UpdateDiagnostics:
		s.printf("<- %d diagnostics\n", u.Markers)
	}
}

func (s *session) printf(format string, args ...any) {
	s.outMu.Lock()
	defer s.outMu.Unlock()
	fmt.Fprintf(s.out, format, args...)
}
