package timeline

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taf-timeline/internal/models"
	"taf-timeline/pkg/logger"
)

type call struct {
	op string
	id string
}

type mockTimeline struct {
	mu        sync.Mutex
	calls     []call
	inFlight  int
	maxFlight int
	failIDs   map[string]bool
}

func (m *mockTimeline) enter(op, id string) error {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxFlight {
		m.maxFlight = m.inFlight
	}
	m.calls = append(m.calls, call{op: op, id: id})
	fail := m.failIDs[id]
	m.mu.Unlock()

	m.mu.Lock()
	m.inFlight--
	m.mu.Unlock()
	if fail {
		return errors.New("http 500")
	}
	return nil
}

func (m *mockTimeline) PutPin(_ context.Context, pin models.Pin) error {
	return m.enter("put", pin.ID)
}

func (m *mockTimeline) DeletePin(_ context.Context, id string) error {
	return m.enter("delete", id)
}

type memState struct {
	st      models.SyncState
	loadErr error
	saved   []models.SyncState
}

func (m *memState) LoadSyncState(context.Context) (models.SyncState, error) {
	return m.st, m.loadErr
}

func (m *memState) SaveSyncState(_ context.Context, st models.SyncState) error {
	m.st = st
	m.saved = append(m.saved, st)
	return nil
}

type recordSender struct {
	statuses []string
}

func (r *recordSender) Send(_ context.Context, _ string, message map[string]string) error {
	r.statuses = append(r.statuses, message[models.StatusKey])
	return nil
}

func newTestReconciler(tl *mockTimeline, st *memState, s *recordSender) *Reconciler {
	l := logger.NewZapLogger("test", io.Discard)
	return NewReconciler(tl, st, s, l).
		WithClock(fixedClock(time.Date(2025, 7, 23, 12, 0, 0, 0, time.UTC)))
}

func TestReconciler_DeletesThenInsertsInReverse(t *testing.T) {
	tl := &mockTimeline{}
	st := &memState{st: models.SyncState{LastIDRoot: "AVWX-TAF-KJFK-221130Z-", LastIDNum: 2}}
	s := &recordSender{}

	got, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", sampleResponse())
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdated, got)

	assert.Equal(t, []call{
		{"delete", "AVWX-TAF-KJFK-221130Z-0"},
		{"delete", "AVWX-TAF-KJFK-221130Z-1"},
		{"delete", "AVWX-TAF-KJFK-221130Z-2"},
		{"put", "AVWX-TAF-KJFK-231130Z-3"},
		{"put", "AVWX-TAF-KJFK-231130Z-2"},
		{"put", "AVWX-TAF-KJFK-231130Z-1"},
	}, tl.calls)
	assert.Equal(t, 1, tl.maxFlight)

	assert.Equal(t, models.SyncState{LastIDRoot: "AVWX-TAF-KJFK-231130Z-", LastIDNum: 3}, st.st)
	assert.Equal(t, []string{models.StatusUpdated}, s.statuses)
}

func TestReconciler_NothingToDelete(t *testing.T) {
	tl := &mockTimeline{}
	st := &memState{st: models.EmptySyncState()}
	s := &recordSender{}

	_, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", sampleResponse())
	require.NoError(t, err)

	require.Len(t, tl.calls, 3)
	for _, c := range tl.calls {
		assert.Equal(t, "put", c.op)
	}
}

func TestReconciler_RemoteFailuresDoNotStopTheChain(t *testing.T) {
	tl := &mockTimeline{failIDs: map[string]bool{
		"AVWX-TAF-KJFK-221130Z-0": true,
		"AVWX-TAF-KJFK-231130Z-2": true,
	}}
	st := &memState{st: models.SyncState{LastIDRoot: "AVWX-TAF-KJFK-221130Z-", LastIDNum: 1}}
	s := &recordSender{}

	got, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", sampleResponse())
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdated, got)
	assert.Len(t, tl.calls, 5)
}

func TestReconciler_ErrorKeySkipsAllRemoteCalls(t *testing.T) {
	tl := &mockTimeline{}
	st := &memState{st: models.SyncState{LastIDRoot: "AVWX-TAF-KJFK-221130Z-", LastIDNum: 2}}
	s := &recordSender{}

	resp := sampleResponse()
	resp.HasError = true
	resp.Error = "Station Lookup Error"

	got, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetch))
	assert.Equal(t, models.StatusErrorFetch, got)
	assert.Empty(t, tl.calls)
	assert.Empty(t, st.saved)
	assert.Equal(t, []string{models.StatusErrorFetch}, s.statuses)
}

func TestReconciler_MissingTime(t *testing.T) {
	tl := &mockTimeline{}
	st := &memState{st: models.SyncState{LastIDRoot: "AVWX-TAF-KJFK-221130Z-", LastIDNum: 2}}
	s := &recordSender{}

	resp := sampleResponse()
	resp.Time = ""

	got, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", resp)
	require.Error(t, err)
	assert.Equal(t, models.StatusErrorTime, got)
	assert.Empty(t, tl.calls)
	assert.Equal(t, "AVWX-TAF-KJFK-221130Z-", st.st.LastIDRoot, "previous state untouched")
}

func TestReconciler_UnknownFlightRulesAfterDeletes(t *testing.T) {
	tl := &mockTimeline{}
	st := &memState{st: models.SyncState{LastIDRoot: "AVWX-TAF-KJFK-221130Z-", LastIDNum: 0}}
	s := &recordSender{}

	resp := sampleResponse()
	resp.Forecast[3].FlightRules = "???"

	got, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", resp)
	require.Error(t, err)
	assert.Equal(t, models.StatusErrorFetch, got)
	assert.Equal(t, []call{{"delete", "AVWX-TAF-KJFK-221130Z-0"}}, tl.calls)
	assert.Empty(t, st.saved)
}

func TestReconciler_LoadFailureSkipsDeletion(t *testing.T) {
	tl := &mockTimeline{}
	st := &memState{loadErr: errors.New("disk gone")}
	s := &recordSender{}

	_, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", sampleResponse())
	require.NoError(t, err)
	for _, c := range tl.calls {
		assert.Equal(t, "put", c.op)
	}
}

func TestReconciler_NoUsablePinsStillUpdated(t *testing.T) {
	tl := &mockTimeline{}
	st := &memState{st: models.EmptySyncState()}
	s := &recordSender{}

	resp := models.ForecastResponse{Station: "KJFK", Time: "231130Z", Forecast: []models.Segment{{RawLine: "AMD"}}}

	got, err := newTestReconciler(tl, st, s).Handle(context.Background(), "run-1", resp)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdated, got)
	assert.Empty(t, tl.calls)
	assert.Equal(t, 0, st.st.LastIDNum)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "deleting", StateDeleting.String())
	assert.Equal(t, "inserting", StateInserting.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestReconciler_Fail(t *testing.T) {
	tl := &mockTimeline{}
	s := &recordSender{}

	got, err := newTestReconciler(tl, &memState{}, s).Fail(context.Background(), "run-1", errors.Wrap(models.ErrConfig, "nothing set"))
	require.Error(t, err)
	assert.Equal(t, models.StatusGoSettings, got)
	assert.Equal(t, []string{models.StatusGoSettings}, s.statuses)
	assert.Empty(t, tl.calls)
}
