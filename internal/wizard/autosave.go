package wizard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/clubreg/portal/internal/models"
)

// SaveStatus is the advisory auto-save indicator.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

const (
	DefaultAutosaveDelay = 2 * time.Second
	DefaultSavedDisplay  = 3 * time.Second
)

type saveFunc func(ctx context.Context, d *models.Draft) error

// autosaver is a trailing debounce in front of a single-flight save queue.
//
// Every Schedule replaces the pending snapshot and restarts the timer, so a
// burst of edits produces one save of the newest snapshot. At most one save
// runs at a time; a timer that fires while a save is in flight marks the
// queue for a rerun, which saves whatever is pending once the current save
// returns. An older snapshot can therefore never be written after a newer one.
type autosaver struct {
	clock   Clock
	delay   time.Duration
	display time.Duration
	save    saveFunc
	observe func(err error, elapsed time.Duration)

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	seq      int // identifies the live debounce timer
	timer    Timer
	revertT  Timer
	gen      int // identifies the status a revert timer may clear
	pending  *models.Draft
	inFlight bool
	rerun    bool
	idle     chan struct{}
	status   SaveStatus
	lastErr  error
	closed   bool
}

func newAutosaver(clock Clock, delay, display time.Duration, save saveFunc) *autosaver {
	ctx, cancel := context.WithCancel(context.Background())
	return &autosaver{
		clock:   clock,
		delay:   delay,
		display: display,
		save:    save,
		ctx:     ctx,
		cancel:  cancel,
		status:  SaveIdle,
	}
}

// Schedule makes d the pending snapshot and restarts the debounce timer.
func (a *autosaver) Schedule(d *models.Draft) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.pending = d
	a.armLocked()
}

func (a *autosaver) armLocked() {
	if a.timer != nil {
		a.timer.Stop()
	}
	a.seq++
	seq := a.seq
	a.timer = a.clock.AfterFunc(a.delay, func() { a.fire(seq) })
}

func (a *autosaver) fire(seq int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || seq != a.seq {
		return
	}
	a.timer = nil
	if a.inFlight {
		a.rerun = true
		return
	}
	a.runLocked()
}

// runLocked saves pending snapshots one at a time. It is entered and left
// with a.mu held and releases it only around the save call.
func (a *autosaver) runLocked() error {
	for a.pending != nil && !a.closed {
		snap := a.pending
		a.pending = nil
		a.rerun = false
		a.inFlight = true
		a.idle = make(chan struct{})
		a.setStatusLocked(SaveSaving)
		a.mu.Unlock()

		start := a.clock.Now()
		err := a.save(a.ctx, snap)
		if a.observe != nil {
			a.observe(err, a.clock.Now().Sub(start))
		}

		a.mu.Lock()
		a.inFlight = false
		close(a.idle)

		if err != nil {
			slog.Warn("Draft auto-save failed", "error", err, "step", snap.CurrentStep, "players", len(snap.Players))
			a.lastErr = err
			a.setStatusLocked(SaveError)
			if a.pending == nil {
				// Keep the failed snapshot so the next flush retries it.
				a.pending = snap
			} else if a.rerun && !a.closed {
				a.armLocked()
			}
			return err
		}

		a.lastErr = nil
		a.setStatusLocked(SaveSaved)
		if !a.rerun {
			return nil
		}
	}
	return nil
}

func (a *autosaver) setStatusLocked(s SaveStatus) {
	a.status = s
	a.gen++
	if a.revertT != nil {
		a.revertT.Stop()
		a.revertT = nil
	}
	if s != SaveSaved {
		return
	}
	gen := a.gen
	a.revertT = a.clock.AfterFunc(a.display, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.gen == gen {
			a.status = SaveIdle
		}
	})
}

// Flush cancels the debounce timer, waits for an in-flight save and then
// saves the pending snapshot, if any, immediately.
func (a *autosaver) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for a.inFlight {
		ch := a.idle
		a.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			a.mu.Lock()
			return ctx.Err()
		}
		a.mu.Lock()
	}
	if a.closed {
		return ErrClosed
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.seq++
	return a.runLocked()
}

// Status returns the indicator state and the last save error, if any.
func (a *autosaver) Status() (SaveStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status, a.lastErr
}

// Close stops all timers and drops the pending snapshot.
func (a *autosaver) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.pending = nil
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	if a.revertT != nil {
		a.revertT.Stop()
		a.revertT = nil
	}
	a.cancel()
}
