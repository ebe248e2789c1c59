// Package modal implements the Add, Edit and Delete interaction flows. At
// most one flow is open at a time: the current session is a single tagged
// value, never a set of independent flags.
package modal

import (
	"github.com/google/uuid"

	"github.com/yowainwright/tynamo/internal/core"
	"github.com/yowainwright/tynamo/internal/timecodec"
)

type Kind int

const (
	KindNone Kind = iota
	KindAdd
	KindEdit
	KindDelete
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAdd:
		return "add"
	case KindEdit:
		return "edit"
	case KindDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Session is one of Closed, *AddSession, *EditSession or *DeleteSession.
type Session interface {
	Kind() Kind
	// ID is unique per opening, so a result for an earlier session can be
	// told apart from the current one.
	ID() string
	clone() Session
}

type closedSession struct{}

func (closedSession) Kind() Kind { return KindNone }
func (closedSession) ID() string { return "" }
func (closedSession) clone() Session { return Closed }

// Closed is the session value when no modal is open.
var Closed Session = closedSession{}

func newID() string {
	return uuid.NewString()
}

// AddSession holds the deduplicated process candidates and the selection.
type AddSession struct {
	id         string
	Candidates []core.ProcessInfo
	Selected   string
}

func newAddSession(procs []core.ProcessInfo) *AddSession {
	s := &AddSession{
		id:         newID(),
		Candidates: core.UniqueByName(procs),
	}
	if len(s.Candidates) > 0 {
		s.Selected = s.Candidates[0].Name
	}
	return s
}

func (s *AddSession) Kind() Kind { return KindAdd }
func (s *AddSession) ID() string { return s.id }

func (s *AddSession) clone() Session {
	c := *s
	c.Candidates = append([]core.ProcessInfo(nil), s.Candidates...)
	return &c
}

// Current returns the candidate matching the selection.
func (s *AddSession) Current() (core.ProcessInfo, bool) {
	if s.Selected == "" {
		return core.ProcessInfo{}, false
	}
	for _, p := range s.Candidates {
		if p.Name == s.Selected {
			return p, true
		}
	}
	return core.ProcessInfo{}, false
}

// Index returns the position of the selection in Candidates, or -1.
func (s *AddSession) Index() int {
	for i, p := range s.Candidates {
		if p.Name == s.Selected {
			return i
		}
	}
	return -1
}

func (s *AddSession) move(delta int) {
	n := len(s.Candidates)
	if n == 0 {
		return
	}
	i := s.Index()
	if i < 0 {
		i = 0
	} else {
		i += delta
	}
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	s.Selected = s.Candidates[i].Name
}

// EditSession holds the scratch time text and display name for Target.
type EditSession struct {
	id          string
	Target      core.TrackedApp
	TimeText    string
	DisplayName string
}

func newEditSession(target core.TrackedApp, usage int64, known bool) *EditSession {
	text := timecodec.Zero
	if known {
		text = timecodec.Format(usage)
	}
	return &EditSession{
		id:          newID(),
		Target:      target,
		TimeText:    text,
		DisplayName: target.DisplayName,
	}
}

func (s *EditSession) Kind() Kind { return KindEdit }
func (s *EditSession) ID() string { return s.id }

func (s *EditSession) clone() Session {
	c := *s
	return &c
}

// DeleteSession targets one tracked app.
type DeleteSession struct {
	id     string
	Target core.TrackedApp
}

func newDeleteSession(target core.TrackedApp) *DeleteSession {
	return &DeleteSession{id: newID(), Target: target}
}

func (s *DeleteSession) Kind() Kind { return KindDelete }
func (s *DeleteSession) ID() string { return s.id }

func (s *DeleteSession) clone() Session {
	c := *s
	return &c
}
