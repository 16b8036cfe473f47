package wizard

import (
	"errors"
	"fmt"
)

// Step is a wizard screen. Steps are linear and ordered.
type Step int

const (
	StepGuardian Step = iota
	StepPlayers
	StepDocuments
	StepMedical
	StepReview
)

var stepNames = [...]string{"guardian", "players", "documents", "medical", "review"}

func (s Step) String() string {
	if s < StepGuardian || s > StepReview {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool { return s >= StepGuardian && s <= StepReview }

// ParseStep converts a step name to a Step.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step %q", name)
}

// EventKind is a navigation request.
type EventKind int

const (
	EventNext EventKind = iota
	EventBack
	EventJump
	EventSubmit
)

func (k EventKind) String() string {
	switch k {
	case EventNext:
		return "next"
	case EventBack:
		return "back"
	case EventJump:
		return "jump"
	case EventSubmit:
		return "submit"
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is fed to the state machine. Target is only used by EventJump.
type Event struct {
	Kind   EventKind
	Target Step
}

var (
	Next   = Event{Kind: EventNext}
	Back   = Event{Kind: EventBack}
	Submit = Event{Kind: EventSubmit}
)

// JumpTo returns a jump event.
func JumpTo(s Step) Event { return Event{Kind: EventJump, Target: s} }

var (
	// ErrBlocked is returned when a transition's guard rejects it.
	ErrBlocked = errors.New("step requirements not met")
	// ErrNoTransition is returned for an event the current step does not accept.
	ErrNoTransition = errors.New("transition not allowed")
)

// guard inspects wizard state and returns nil to allow a transition.
// Guards run with the wizard mutex held.
type guard func(w *Wizard, ev Event) error

type transitionKey struct {
	from Step
	kind EventKind
}

type transition struct {
	guard guard
	to    func(from Step, ev Event) Step
}

func forward(from Step, _ Event) Step  { return from + 1 }
func backward(from Step, _ Event) Step { return from - 1 }
func stay(from Step, _ Event) Step     { return from }
func target(_ Step, ev Event) Step     { return ev.Target }

func always(*Wizard, Event) error { return nil }

// transitions is the complete legal transition set.
// Anything not listed here is rejected with ErrNoTransition.
var transitions = map[transitionKey]transition{
	{StepGuardian, EventNext}:  {guard: guardianComplete, to: forward},
	{StepPlayers, EventNext}:   {guard: playersComplete, to: forward},
	{StepDocuments, EventNext}: {guard: documentsComplete, to: forward},
	{StepMedical, EventNext}:   {guard: always, to: forward},
	{StepReview, EventSubmit}:  {guard: waiversAccepted, to: stay},

	{StepPlayers, EventBack}:   {guard: always, to: backward},
	{StepDocuments, EventBack}: {guard: always, to: backward},
	{StepMedical, EventBack}:   {guard: always, to: backward},
	{StepReview, EventBack}:    {guard: always, to: backward},

	{StepGuardian, EventJump}:  {guard: jumpAllowed, to: target},
	{StepPlayers, EventJump}:   {guard: jumpAllowed, to: target},
	{StepDocuments, EventJump}: {guard: jumpAllowed, to: target},
	{StepMedical, EventJump}:   {guard: jumpAllowed, to: target},
	{StepReview, EventJump}:    {guard: jumpAllowed, to: target},
}

// exitGuards are the Next guards, used to check forward jumps step by step.
var exitGuards = map[Step]guard{
	StepGuardian:  guardianComplete,
	StepPlayers:   playersComplete,
	StepDocuments: documentsComplete,
	StepMedical:   always,
}

func guardianComplete(w *Wizard, _ Event) error {
	if !w.guardianSet {
		return fmt.Errorf("%w: guardian details are required", ErrBlocked)
	}
	return nil
}

func playersComplete(w *Wizard, _ Event) error {
	if w.editing != nil {
		return fmt.Errorf("%w: finish or cancel the player being edited", ErrBlocked)
	}
	if len(w.players) == 0 {
		return fmt.Errorf("%w: add at least one player", ErrBlocked)
	}
	return nil
}

func documentsComplete(w *Wizard, _ Event) error {
	if w.skipDocuments || w.allDocumentsComplete() {
		return nil
	}
	return fmt.Errorf("%w: upload documents for every player or choose to upload later", ErrBlocked)
}

func waiversAccepted(w *Wizard, _ Event) error {
	if !w.waivers.All() {
		return fmt.Errorf("%w: all waivers must be accepted", ErrBlocked)
	}
	return nil
}

// jumpAllowed permits any backward jump. A forward jump must stay within the
// furthest step reached and every step it passes must still be satisfied.
func jumpAllowed(w *Wizard, ev Event) error {
	if !ev.Target.Valid() {
		return fmt.Errorf("%w: unknown step %d", ErrNoTransition, int(ev.Target))
	}
	if ev.Target <= w.step {
		return nil
	}
	if ev.Target > w.furthest {
		return fmt.Errorf("%w: %s has not been reached", ErrBlocked, ev.Target)
	}
	for s := w.step; s < ev.Target; s++ {
		if err := exitGuards[s](w, Next); err != nil {
			return fmt.Errorf("%s: %w", s, err)
		}
	}
	return nil
}

// fire applies ev to the current step. The caller holds w.mu.
func (w *Wizard) fire(ev Event) (Step, error) {
	t, ok := transitions[transitionKey{w.step, ev.Kind}]
	if !ok {
		return w.step, fmt.Errorf("%w: %s from %s", ErrNoTransition, ev.Kind, w.step)
	}
	if err := t.guard(w, ev); err != nil {
		return w.step, err
	}
	w.step = t.to(w.step, ev)
	if w.step > w.furthest {
		w.furthest = w.step
	}
	return w.step, nil
}

// Can reports whether ev would currently be accepted.
func (w *Wizard) Can(ev Event) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := transitions[transitionKey{w.step, ev.Kind}]
	return ok && t.guard(w, ev) == nil
}
