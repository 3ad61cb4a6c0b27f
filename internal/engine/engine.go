// Package engine keeps the explorer tree and the open buffer in step with the script
// store.
//
// An Engine is the only writer of its State. Commands dispatch their REQUEST action
// right away and return a tea.Cmd that performs the store call; the message the
// command yields is the matching SUCCESS or FAILURE action, which must be handed back
// through Update on the same goroutine that issued the command. A bubbletea program
// does this naturally; Runner does it without a terminal.
package engine

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"scriptbench/internal/action"
	"scriptbench/internal/buffer"
	"scriptbench/internal/resource"
	"scriptbench/internal/tree"
)

const DefaultTimeout = 30 * time.Second

// State is a read-only snapshot of the engine.
type State struct {
	Tree   tree.Tree
	Buffer buffer.Buffer
	// Failure is the most recent failed operation, until ClearFailure.
	Failure *Failure
}

// Failure records one FAILURE action.
type Failure struct {
	Op  string
	URL string
	Err error
	At  time.Time
}

func (f Failure) Error() string {
	if f.Err == nil {
		return f.Op + " " + f.URL
	}
	if f.URL == "" {
		return f.Op + ": " + f.Err.Error()
	}
	return f.Op + " " + f.URL + ": " + f.Err.Error()
}

func (f Failure) Unwrap() error { return f.Err }

type Engine struct {
	client    resource.Client
	logger    *slog.Logger
	timeout   time.Duration
	dropStale bool
	observers []func(action.Action, State)
	now       func() time.Time

	state State
	// latest is the newest listing sequence issued per container url.
	latest  map[string]uint64
	lastSeq uint64
	plan    *plan
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTimeout bounds every store call.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithDropStaleListings drops a container listing when a newer listing of the same
// container has been requested since. Without it the last listing to arrive wins.
func WithDropStaleListings(on bool) Option {
	return func(e *Engine) { e.dropStale = on }
}

// WithObserver registers fn to be called after every applied action.
func WithObserver(fn func(action.Action, State)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.observers = append(e.observers, fn)
		}
	}
}

func New(client resource.Client, opts ...Option) *Engine {
	e := &Engine{
		client:  client,
		logger:  slog.New(slog.DiscardHandler),
		timeout: DefaultTimeout,
		now:     time.Now,
		state:   State{Tree: tree.New(), Buffer: buffer.Buffer{Status: buffer.StatusIdle}},
		latest:  map[string]uint64{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Client() resource.Client { return e.client }

func (e *Engine) State() State {
	s := e.state
	if s.Failure != nil {
		f := *s.Failure
		s.Failure = &f
	}
	return s
}

func (e *Engine) Tree() tree.Tree { return e.state.Tree }

func (e *Engine) Buffer() buffer.Buffer { return e.state.Buffer }

func (e *Engine) ClearFailure() { e.state.Failure = nil }

// Dispatch applies a to the tree and the buffer.
func (e *Engine) Dispatch(a action.Action) {
	e.dispatch(a)
}

func (e *Engine) dispatch(a action.Action) bool {
	switch a := a.(type) {
	case action.DirectoryReadSuccess:
		if e.stale(a.URL, a.Seq) {
			e.logger.Debug("drop stale listing", "url", a.URL, "seq", a.Seq)
			return false
		}
	case action.DirectoryReadFailure:
		if e.stale(a.URL, a.Seq) {
			e.logger.Debug("drop stale listing failure", "url", a.URL, "seq", a.Seq, "err", a.Err)
			return false
		}
	}
	if d, ok := a.(action.DeleteSuccess); ok && d.Removed == nil {
		d.Removed = e.state.Tree.SubtreeURLs(d.URL)
		a = d
	}

	e.logger.Debug("dispatch", "action", a.Kind(), "url", urlOf(a))
	e.state.Tree = tree.Reduce(e.state.Tree, a)
	e.state.Buffer = buffer.Reduce(e.state.Buffer, a)

	if action.IsFailure(a) {
		f := &Failure{Op: a.Kind(), URL: urlOf(a), Err: errOf(a), At: e.now()}
		e.state.Failure = f
		e.logger.Warn("store operation failed", "op", f.Op, "url", f.URL, "err", f.Err)
	}
	for _, fn := range e.observers {
		fn(a, e.State())
	}
	return true
}

func (e *Engine) stale(url string, seq uint64) bool {
	return e.dropStale && seq != 0 && seq < e.latest[url]
}

// Update applies msg when it is an action and returns the follow-up commands it
// calls for. Other messages are ignored.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	a, ok := msg.(action.Action)
	if !ok {
		return nil
	}
	if !e.dispatch(a) {
		return nil
	}

	var cmds []tea.Cmd
	switch a := a.(type) {
	case action.RenameSuccess:
		// Children of a renamed folder still carry the old urls.
		if a.NewURL != "" {
			if n := e.state.Tree.Find(a.NewURL); n.IsContainer() && (n.Loaded || len(n.Children) > 0) {
				cmds = append(cmds, e.readDir(a.NewURL))
			}
		}
	case action.ReadSuccess:
		cmds = append(cmds, e.applyDraft(a.URL))
	case action.ReadFailure:
		if e.plan != nil && e.plan.draft != nil && e.plan.draft.URL == a.URL {
			e.plan.draft = nil
		}
	case action.ListFailure:
		// Nothing can be revealed without the top level; retrying is up to the user.
		e.plan = nil
	case action.DirectoryReadFailure:
		if e.plan != nil {
			delete(e.plan.expand, a.URL)
			if e.plan.all {
				e.plan.failed = append(e.plan.failed, a.URL)
			}
		}
	}
	if e.plan != nil {
		cmds = append(cmds, e.advance())
	}
	return tea.Batch(cmds...)
}

// call runs fn under the engine's timeout in a tea.Cmd. fn must only use values
// captured before the command was built.
func (e *Engine) call(fn func(ctx context.Context) action.Action) tea.Cmd {
	timeout := e.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func urlOf(a action.Action) string {
	switch a := a.(type) {
	case action.DirectoryReadRequest:
		return a.URL
	case action.DirectoryReadSuccess:
		return a.URL
	case action.DirectoryReadFailure:
		return a.URL
	case action.ReadRequest:
		return a.URL
	case action.ReadSuccess:
		return a.URL
	case action.ReadFailure:
		return a.URL
	case action.SaveRequest:
		return a.URL
	case action.SaveSuccess:
		return a.URL
	case action.SaveFailure:
		return a.URL
	case action.ContentChanged:
		return a.URL
	case action.Select:
		return a.URL
	case action.Toggle:
		return a.URL
	case action.Create:
		return a.URL
	case action.DuplicateRequest:
		return a.URL
	case action.DuplicateSuccess:
		return a.URL
	case action.DuplicateFailure:
		return a.URL
	case action.RenameRequest:
		return a.URL
	case action.RenameSuccess:
		return a.URL
	case action.RenameFailure:
		return a.URL
	case action.DeleteRequest:
		return a.URL
	case action.DeleteSuccess:
		return a.URL
	case action.DeleteFailure:
		return a.URL
	case action.FolderCreateRequest:
		return a.SiblingURL
	case action.FolderCreateSuccess:
		return a.Entity.URL
	case action.FolderCreateFailure:
		return a.SiblingURL
	}
	return ""
}

func errOf(a action.Action) error {
	switch a := a.(type) {
	case action.ListFailure:
		return a.Err
	case action.DirectoryReadFailure:
		return a.Err
	case action.ReadFailure:
		return a.Err
	case action.SaveFailure:
		return a.Err
	case action.DuplicateFailure:
		return a.Err
	case action.RenameFailure:
		return a.Err
	case action.DeleteFailure:
		return a.Err
	case action.FolderCreateFailure:
		return a.Err
	}
	return nil
}
