package timeline

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"taf-timeline/internal/models"
	"taf-timeline/internal/repositories"
	"taf-timeline/internal/services/status"
	"taf-timeline/pkg/logger"
)

// State is a step of the delete-then-insert protocol.
type State int

const (
	StateIdle State = iota
	StateDeleting
	StateBuilding
	StateInserting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDeleting:
		return "deleting"
	case StateBuilding:
		return "building"
	case StateInserting:
		return "inserting"
	case StateDone:
		return "done"
	}
	return "unknown"
}

// StateStore persists the id bookkeeping of the last built batch.
type StateStore interface {
	LoadSyncState(ctx context.Context) (models.SyncState, error)
	SaveSyncState(ctx context.Context, st models.SyncState) error
}

// SyncSession holds everything one run touches. It is created fresh per run.
type SyncSession struct {
	RunID    string
	Response models.ForecastResponse
	Previous models.SyncState
	Pins     []models.Pin

	deriver   *Deriver
	state     State
	deleteIdx int
	insertIdx int
	err       error
}

func (s *SyncSession) State() State {
	return s.state
}

// Reconciler deletes the previous batch, builds the new one and inserts it.
// Exactly one remote call is in flight at a time.
type Reconciler struct {
	timeline repositories.TimelineRepository
	store    StateStore
	status   status.Sender
	now      func() time.Time
	l        *logger.Logger
}

func NewReconciler(
	timeline repositories.TimelineRepository,
	store StateStore,
	sender status.Sender,
	l *logger.Logger,
) *Reconciler {
	return &Reconciler{
		timeline: timeline,
		store:    store,
		status:   sender,
		now:      time.Now,
		l:        l,
	}
}

// WithClock overrides the clock used to anchor issue times.
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Handle runs the protocol for a fetched report and reports the terminal status.
func (r *Reconciler) Handle(ctx context.Context, runID string, resp models.ForecastResponse) (string, error) {
	l := r.l.With(map[string]any{"run_id": runID})
	l.Info("begin handling", map[string]any{"station": resp.Station, "time": resp.Time})

	if err := validateResponse(resp); err != nil {
		return r.finish(ctx, l, runID, err)
	}

	prev, err := r.store.LoadSyncState(ctx)
	if err != nil {
		l.Warning("cannot load sync state, skipping deletion", map[string]any{"err": err.Error()})
		prev = models.EmptySyncState()
	}

	sess := &SyncSession{
		RunID:    runID,
		Response: resp,
		Previous: prev,
		deriver:  NewDeriver(r.now),
		state:    StateIdle,
	}

	for sess.state != StateDone {
		r.step(ctx, l, sess)
	}

	return r.finish(ctx, l, runID, sess.err)
}

// Fail reports a terminal failure that happened before a report was fetched.
func (r *Reconciler) Fail(ctx context.Context, runID string, err error) (string, error) {
	return r.finish(ctx, r.l.With(map[string]any{"run_id": runID}), runID, err)
}

func validateResponse(resp models.ForecastResponse) error {
	if resp.HasError {
		return errors.Wrapf(models.ErrFetch, "api error: %s", resp.Error)
	}
	if resp.Time == "" {
		return errors.Wrap(models.ErrTime, "empty issue time")
	}
	return nil
}

// step advances the session by one transition, issuing at most one remote call.
func (r *Reconciler) step(ctx context.Context, l *logger.Logger, s *SyncSession) {
	switch s.state {
	case StateIdle:
		s.deleteIdx = 0
		s.state = StateDeleting

	case StateDeleting:
		if s.deleteIdx > s.Previous.LastIDNum {
			s.state = StateBuilding
			return
		}
		id := s.Previous.LastIDRoot + strconv.Itoa(s.deleteIdx)
		s.deleteIdx++
		l.Debug("remove pin", map[string]any{"id": id})
		if err := r.timeline.DeletePin(ctx, id); err != nil {
			l.Warning("pin delete failed", map[string]any{"id": id, "err": err.Error()})
		}

	case StateBuilding:
		pins, lastIndex, err := Translate(s.Response, s.deriver)
		if err != nil {
			s.err = err
			s.state = StateDone
			return
		}
		s.Pins = pins

		next := models.SyncState{LastIDRoot: s.Response.PinIDRoot(), LastIDNum: lastIndex}
		if err := r.store.SaveSyncState(ctx, next); err != nil {
			l.Error(errors.Wrap(err, "save sync state"), map[string]any{"last_id_root": next.LastIDRoot})
		}
		l.Info("pins built", map[string]any{"pins": len(pins), "last_id_num": lastIndex})

		s.insertIdx = len(pins)
		s.state = StateInserting

	case StateInserting:
		if s.insertIdx <= 0 {
			s.state = StateDone
			return
		}
		s.insertIdx--
		pin := s.Pins[s.insertIdx]
		l.Debug("send pin", map[string]any{"id": pin.ID})
		if err := r.timeline.PutPin(ctx, pin); err != nil {
			l.Warning("pin insert failed", map[string]any{"id": pin.ID, "err": err.Error()})
		}
	}
}

func (r *Reconciler) finish(ctx context.Context, l *logger.Logger, runID string, err error) (string, error) {
	st := models.StatusFor(err)
	if err != nil {
		l.Error(err, map[string]any{"status": st})
	}
	if sendErr := status.Report(ctx, r.status, runID, st); sendErr != nil {
		l.Warning("status send failed", map[string]any{"err": sendErr.Error()})
	}
	l.Info("end of handling", map[string]any{"status": st})
	return st, err
}
