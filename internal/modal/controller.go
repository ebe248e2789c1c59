package modal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/gateway"
	"github.com/yowainwright/tynamo/internal/reconcile"
	"github.com/yowainwright/tynamo/internal/timecodec"
)

var (
	ErrNoSession      = errors.New("modal: no session open")
	ErrWrongSession   = errors.New("modal: a different session is open")
	ErrNoSelection    = errors.New("modal: no process selected")
	ErrSuperseded     = errors.New("modal: superseded by a newer action")
	ErrCommitInFlight = errors.New("modal: commit already in progress")
)

// Store is the part of the reconciliation store the flows depend on.
type Store interface {
	View() reconcile.View
	RefreshApps(ctx context.Context) error
	RefreshUsage(ctx context.Context) error
}

// Controller owns the current modal session and runs its transitions.
// Gateway calls are made without holding the lock, so callers may invoke
// Controller methods from any goroutine.
type Controller struct {
	gw     gateway.Gateway
	store  Store
	logger *zap.Logger

	mu       sync.Mutex
	current  Session
	gen      uint64
	inFlight bool
}

func NewController(gw gateway.Gateway, store Store, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		gw:      gw,
		store:   store,
		logger:  logger.Named("modal"),
		current: Closed,
	}
}

// Session returns a copy of the current session.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.clone()
}

func (c *Controller) Kind() Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Kind()
}

// Busy reports whether a commit is waiting on the gateway.
func (c *Controller) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// replace installs s as the current session and invalidates any pending
// open. Must be called with c.mu held.
func (c *Controller) replace(s Session) {
	c.gen++
	c.current = s
}

func (c *Controller) report(action string, err error) {
	c.logger.Error(action+" failed",
		zap.String("command", gateway.CommandOf(err)),
		zap.Error(err),
	)
}

// OpenAdd fetches live processes and opens the Add flow with the first
// candidate selected. If any other transition happens while the fetch is
// in flight the result is dropped and ErrSuperseded returned. A failed
// fetch leaves the current session untouched.
func (c *Controller) OpenAdd(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	procs, err := c.gw.ListProcesses(ctx)
	if err != nil {
		c.report("open add", err)
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return ErrSuperseded
	}
	c.replace(newAddSession(procs))
	return nil
}

func (c *Controller) addSession() (*AddSession, error) {
	switch s := c.current.(type) {
	case *AddSession:
		return s, nil
	case closedSession:
		return nil, ErrNoSession
	default:
		return nil, ErrWrongSession
	}
}

// SelectProcess sets the Add selection. Names that are not candidates are
// rejected.
func (c *Controller) SelectProcess(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.addSession()
	if err != nil {
		return err
	}
	for _, p := range s.Candidates {
		if p.Name == name {
			s.Selected = name
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not a candidate", ErrNoSelection, name)
}

// MoveSelection moves the Add selection by delta, clamped to the list.
func (c *Controller) MoveSelection(delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.addSession()
	if err != nil {
		return err
	}
	s.move(delta)
	return nil
}

// begin marks a commit in flight for the session it validates.
func (c *Controller) begin(validate func() error) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inFlight {
		return "", ErrCommitInFlight
	}
	if err := validate(); err != nil {
		return "", err
	}
	c.inFlight = true
	return c.current.ID(), nil
}

// finish clears the in-flight mark and, when closeIt is set, closes the
// session that began the commit if it is still the current one.
func (c *Controller) finish(id string, closeIt bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inFlight = false
	if closeIt && c.current.ID() == id {
		c.replace(Closed)
	}
}

func (c *Controller) refreshAfterMutation(ctx context.Context) {
	// Failures are reported by the store and leave the old snapshots.
	c.store.RefreshApps(ctx)
	c.store.RefreshUsage(ctx)
}

// CommitAdd adds the selected process. On failure the flow stays open so
// the user can retry or pick another process.
func (c *Controller) CommitAdd(ctx context.Context) error {
	var proc core.ProcessInfo
	id, err := c.begin(func() error {
		s, err := c.addSession()
		if err != nil {
			return err
		}
		p, ok := s.Current()
		if !ok {
			return ErrNoSelection
		}
		proc = p
		return nil
	})
	if err != nil {
		return err
	}

	if err := c.gw.AddApp(ctx, proc.Name, proc.ExePath); err != nil {
		c.finish(id, false)
		c.report("add app", err)
		return err
	}

	c.finish(id, true)
	c.refreshAfterMutation(ctx)
	return nil
}

// OpenEdit opens the Edit flow for the tracked app named name, seeding the
// time from the current view.
func (c *Controller) OpenEdit(name string) error {
	view := c.store.View()
	app, ok := view.App(name)
	if !ok {
		return fmt.Errorf("open edit: %q is not tracked", name)
	}
	usage, known := view.UsageOf(name)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.replace(newEditSession(app, usage, known))
	return nil
}

func (c *Controller) editSession() (*EditSession, error) {
	switch s := c.current.(type) {
	case *EditSession:
		return s, nil
	case closedSession:
		return nil, ErrNoSession
	default:
		return nil, ErrWrongSession
	}
}

func (c *Controller) SetEditTime(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.editSession()
	if err != nil {
		return err
	}
	s.TimeText = text
	return nil
}

func (c *Controller) SetEditDisplayName(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, err := c.editSession()
	if err != nil {
		return err
	}
	s.DisplayName = name
	return nil
}

// ResetEditTime sets the scratch time to zero without committing.
func (c *Controller) ResetEditTime() error {
	return c.SetEditTime(timecodec.Zero)
}

// CommitEdit writes the scratch time and display name as two separate
// commands. Both are attempted even if the first fails and there is no
// rollback. The flow closes regardless; failures are reported and
// returned joined.
func (c *Controller) CommitEdit(ctx context.Context) error {
	var s EditSession
	id, err := c.begin(func() error {
		cur, err := c.editSession()
		if err != nil {
			return err
		}
		s = *cur
		return nil
	})
	if err != nil {
		return err
	}

	// Malformed text parses as zero.
	seconds := timecodec.Parse(s.TimeText)
	name := s.Target.Name

	timeErr := c.gw.UpdateApp(ctx, name, seconds)
	if timeErr != nil {
		c.report("update time", timeErr)
	}
	nameErr := c.gw.UpdateDisplayName(ctx, name, s.DisplayName)
	if nameErr != nil {
		c.report("update display name", nameErr)
	}

	c.finish(id, true)
	c.refreshAfterMutation(ctx)
	return errors.Join(timeErr, nameErr)
}

// OpenDelete opens the Delete flow for the tracked app named name.
func (c *Controller) OpenDelete(name string) error {
	app, ok := c.store.View().App(name)
	if !ok {
		return fmt.Errorf("open delete: %q is not tracked", name)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.replace(newDeleteSession(app))
	return nil
}

// CommitDelete removes the target, keeping its usage unless deleteUsage is
// set. On failure the flow stays open.
func (c *Controller) CommitDelete(ctx context.Context, deleteUsage bool) error {
	var target core.TrackedApp
	id, err := c.begin(func() error {
		switch s := c.current.(type) {
		case *DeleteSession:
			target = s.Target
			return nil
		case closedSession:
			return ErrNoSession
		default:
			return ErrWrongSession
		}
	})
	if err != nil {
		return err
	}

	if err := c.gw.RemoveApp(ctx, target.Name, deleteUsage); err != nil {
		c.finish(id, false)
		c.report("remove app", err)
		return err
	}

	c.finish(id, true)
	c.refreshAfterMutation(ctx)
	return nil
}

// Cancel closes the current session, if any, without a gateway call.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replace(Closed)
}

// Escape closes whichever session is open. It reports whether one was.
func (c *Controller) Escape() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	open := c.current.Kind() != KindNone
	c.replace(Closed)
	return open
}

// OutsideActivation handles a pointer activation outside the bounds of the
// modal of kind. Only that modal closes; anything else is left alone.
func (c *Controller) OutsideActivation(kind Kind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if kind == KindNone || c.current.Kind() != kind {
		return false
	}
	c.replace(Closed)
	return true
}

// TogglePause flips the paused state of name and refreshes usage on
// success.
func (c *Controller) TogglePause(ctx context.Context, name string) (bool, error) {
	paused, err := c.gw.TogglePause(ctx, name)
	if err != nil {
		c.report("toggle pause", err)
		return false, err
	}
	c.store.RefreshUsage(ctx)
	return paused, nil
}
