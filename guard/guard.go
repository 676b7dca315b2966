package guard

import (
	"sync"

	"github.com/jrsteele09/go-lawfirm-console/internal/errors"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/users"
	"github.com/rs/zerolog/log"
)

// SessionSource is the read side of the session controller.
type SessionSource interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) (unsubscribe func())
}

var _ SessionSource = (*session.Controller)(nil)

// Recorder counts guard decisions.
type Recorder interface {
	RecordDecision(view string, decision string)
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, string) {}

// Guard applies Requirements to the live session.
type Guard struct {
	session      SessionSource
	requirements Requirements
	recorder     Recorder
}

type Option func(*Guard)

func WithRecorder(r Recorder) Option {
	return func(g *Guard) {
		if r != nil {
			g.recorder = r
		}
	}
}

func New(source SessionSource, requirements Requirements, opts ...Option) (*Guard, error) {
	if source == nil {
		return nil, errors.New("[guard New] session source is required")
	}
	if requirements == nil {
		requirements = DefaultRequirements()
	}
	g := &Guard{session: source, requirements: requirements, recorder: nopRecorder{}}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *Guard) Requirements() Requirements {
	return g.requirements
}

// Check evaluates view against the current snapshot. The boolean is false for
// an unknown view, in which case the decision is meaningless.
func (g *Guard) Check(view View) (Decision, bool) {
	roles, ok := g.requirements.Roles(view)
	if !ok {
		return RedirectLogin, false
	}
	d := EvaluateSnapshot(g.session.Snapshot(), roles)
	g.recorder.RecordDecision(view.String(), d.String())
	return d, true
}

// Visible lists the views user may open, for building navigation.
func (g *Guard) Visible(user *users.Identity) []View {
	var visible []View
	for _, v := range g.requirements.Views() {
		roles, _ := g.requirements.Roles(v)
		if Evaluate(session.Authenticated, user, roles) == Render {
			visible = append(visible, v)
		}
	}
	return visible
}

// Watch calls fn with the decision for view now and again whenever a session
// change alters it. Snapshots older than the newest one seen are ignored and
// calls to fn are serialised. fn must not change the session synchronously.
func (g *Guard) Watch(view View, fn func(Decision)) (stop func(), err error) {
	roles, ok := g.requirements.Roles(view)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "[Guard Watch] view %q", view)
	}

	var (
		deliverMu sync.Mutex // held across fn so decisions leave in version order
		mu        sync.Mutex
		version   uint64
		last      Decision
		primed    bool
		stopped   bool
	)
	deliver := func(s session.Snapshot) {
		d := EvaluateSnapshot(s, roles)

		deliverMu.Lock()
		defer deliverMu.Unlock()

		mu.Lock()
		if stopped || (primed && s.Version < version) {
			mu.Unlock()
			return
		}
		changed := !primed || d != last
		version, last, primed = max(version, s.Version), d, true
		mu.Unlock()
		if !changed {
			return
		}

		log.Debug().Str("view", view.String()).Str("decision", d.String()).Uint64("version", s.Version).Msg("Guard decision changed")
		fn(d)
	}

	unsubscribe := g.session.Subscribe(deliver)
	deliver(g.session.Snapshot())

	return func() {
		mu.Lock()
		stopped = true
		mu.Unlock()
		unsubscribe()
	}, nil
}
