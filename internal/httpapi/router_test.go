package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/identity"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

const (
	motherToken = "tok-mother"
	chwToken    = "tok-chw"
	nurseToken  = "tok-nurse"
)

type envelope[T any] struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Result  T      `json:"result"`
}

type apiFixture struct {
	server *httptest.Server
	hub    *dispatcher.Hub
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	logger := zap.NewNop()

	events := repository.NewMemoryEventLog()
	escalations := repository.NewMemoryEscalationsRepository(events)
	checkins := repository.NewMemoryCheckInsRepository(events)
	appointments := repository.NewMemoryAppointmentsRepository(events)
	assignments := repository.NewMemoryAssignmentsRepository()

	_, err := assignments.Reassign(context.Background(), "mother-1", "chw-1")
	require.NoError(t, err)

	roster := service.NewRosterCache(assignments, time.Minute, logger)
	hub := dispatcher.NewHub(roster, 0, logger)
	d := dispatcher.New(nil, hub, logger)

	store := identity.NewStore()
	store.Register(motherToken, domain.Actor{ID: "mother-1", Name: "Jane", Role: domain.RoleMother})
	store.Register(chwToken, domain.Actor{ID: "chw-1", Name: "Alice", Role: domain.RoleCHW})
	store.Register(nurseToken, domain.Actor{ID: "nurse-1", Name: "Grace", Role: domain.RoleNurse})

	escSvc := service.NewEscalationService(escalations, checkins, roster, d, logger)
	apptSvc := service.NewAppointmentService(appointments, assignments, d, logger)
	checkinSvc := service.NewCheckInService(checkins, roster, d, logger)
	assignSvc := service.NewAssignmentService(assignments, roster, logger)
	syncSvc := service.NewSyncService(events, roster)

	router := NewRouter(logger)
	router.RegisterSyncRoutes(
		NewAuthMiddleware(store, logger),
		NewEscalationHandler(escSvc, logger),
		NewExportHandler(escSvc, logger),
		NewAppointmentHandler(apptSvc, logger),
		NewCheckInHandler(checkinSvc, logger),
		NewSyncHandler(syncSvc, hub, logger),
		NewRosterHandler(assignSvc, logger),
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &apiFixture{server: srv, hub: hub}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, f.server.URL+path, rd)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(raw, &env))
	return env
}

func (f *apiFixture) raiseEscalation(t *testing.T) domain.Escalation {
	t.Helper()
	resp, raw := f.do(t, http.MethodPost, "/sync/api/v1/escalations", chwToken, map[string]interface{}{
		"mother_id":        "mother-1",
		"mother_name":      "Jane",
		"case_description": "Severe swelling in both feet",
		"priority":         "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env := decode[domain.Escalation](t, raw)
	require.Equal(t, ResultSuccess, env.Code)
	return env.Result
}

func TestRoutes_MissingTokenUnauthorized(t *testing.T) {
	f := newAPIFixture(t)

	resp, raw := f.do(t, http.MethodGet, "/sync/api/v1/escalations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	env := decode[interface{}](t, raw)
	assert.Equal(t, ResultError, env.Code)
	assert.Equal(t, "error", env.Type)
}

func TestHealthz_Unauthenticated(t *testing.T) {
	f := newAPIFixture(t)

	resp, raw := f.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), `"status":"ok"`)
}

func TestEscalationLifecycle_OverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	e := f.raiseEscalation(t)

	// The raising CHW and the mother both see the pending case.
	resp, raw := f.do(t, http.MethodGet, "/sync/api/v1/escalations", motherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]domain.Escalation](t, raw)
	require.Len(t, list.Result, 1)

	// A nurse claims it out of the pending queue.
	resp, raw = f.do(t, http.MethodPut, "/sync/api/v1/escalations/"+e.ID+"/status", nurseToken,
		service.UpdateStatusRequest{Status: string(domain.EscalationInProgress), UpdatedAt: e.UpdatedAt})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	claimed := decode[domain.Escalation](t, raw).Result
	assert.Equal(t, domain.EscalationInProgress, claimed.Status)
	require.NotNil(t, claimed.NurseID)
	assert.Equal(t, "nurse-1", *claimed.NurseID)

	// A retry against the pre-claim version loses the race.
	resp, _ = f.do(t, http.MethodPut, "/sync/api/v1/escalations/"+e.ID+"/status", nurseToken,
		service.UpdateStatusRequest{Status: string(domain.EscalationResolved), UpdatedAt: e.UpdatedAt})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Resolve from the current version.
	resp, raw = f.do(t, http.MethodPut, "/sync/api/v1/escalations/"+e.ID+"/status", nurseToken,
		service.UpdateStatusRequest{Status: string(domain.EscalationResolved), UpdatedAt: claimed.UpdatedAt})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resolved := decode[domain.Escalation](t, raw).Result
	assert.Equal(t, domain.EscalationResolved, resolved.Status)
	assert.NotNil(t, resolved.ResolvedAt)
}

func TestEscalationStatus_MotherForbidden(t *testing.T) {
	f := newAPIFixture(t)
	e := f.raiseEscalation(t)

	resp, _ := f.do(t, http.MethodPut, "/sync/api/v1/escalations/"+e.ID+"/status", motherToken,
		service.UpdateStatusRequest{Status: string(domain.EscalationInProgress), UpdatedAt: e.UpdatedAt})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestEscalationDelete_RequiresBaseVersion(t *testing.T) {
	f := newAPIFixture(t)
	e := f.raiseEscalation(t)

	resp, _ := f.do(t, http.MethodDelete, "/sync/api/v1/escalations/"+e.ID, chwToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	base := e.UpdatedAt.Format(time.RFC3339Nano)
	resp, _ = f.do(t, http.MethodDelete,
		"/sync/api/v1/escalations/"+e.ID+"?updated_at="+strings.ReplaceAll(base, "+", "%2B"), chwToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestComposeDraft_RouteBeatsItemPrefix(t *testing.T) {
	f := newAPIFixture(t)

	comment := "Blurred vision since morning"
	resp, raw := f.do(t, http.MethodPost, "/sync/api/v1/checkins", motherToken,
		service.CreateCheckInRequest{Response: string(domain.CheckInNotOK), Comment: &comment})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	c := decode[domain.CheckIn](t, raw).Result

	resp, raw = f.do(t, http.MethodGet, "/sync/api/v1/escalations/compose?checkin_id="+c.ID, chwToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	draft := decode[map[string]interface{}](t, raw).Result
	assert.Equal(t, "mother-1", draft["mother_id"])
	assert.Equal(t, "high", draft["priority"])
}

func TestEvents_CursorAdvancesPastInvisibleEvents(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodPost, "/sync/api/v1/checkins", motherToken,
		service.CreateCheckInRequest{Response: string(domain.CheckInOK)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	type page struct {
		Events []json.RawMessage `json:"events"`
		Cursor int64             `json:"cursor"`
	}

	// The assigned CHW receives the check-in event.
	resp, raw := f.do(t, http.MethodGet, "/sync/api/v1/events?cursor=0", chwToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chwPage := decode[page](t, raw).Result
	assert.Len(t, chwPage.Events, 1)
	assert.Equal(t, int64(1), chwPage.Cursor)

	// A nurse cannot see check-ins, but the cursor still advances so the
	// client never re-polls the same gap.
	resp, raw = f.do(t, http.MethodGet, "/sync/api/v1/events?cursor=0", nurseToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	nursePage := decode[page](t, raw).Result
	assert.Empty(t, nursePage.Events)
	assert.Equal(t, int64(1), nursePage.Cursor)
}

func TestExport_NurseOnly(t *testing.T) {
	f := newAPIFixture(t)
	f.raiseEscalation(t)

	resp, _ := f.do(t, http.MethodGet, "/sync/api/v1/escalations/export", chwToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := f.do(t, http.MethodGet, "/sync/api/v1/escalations/export", nurseToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, raw)
}

func TestCollection_MethodNotAllowed(t *testing.T) {
	f := newAPIFixture(t)

	resp, _ := f.do(t, http.MethodPatch, "/sync/api/v1/escalations", chwToken, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStream_PushesEventsOverWebsocket(t *testing.T) {
	f := newAPIFixture(t)

	// Browsers cannot set headers on the upgrade request; the token rides the
	// query string instead.
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/sync/api/v1/ws?token=" + chwToken
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The subscription is registered just after the upgrade completes.
	require.Eventually(t, func() bool { return f.hub.Len() == 1 },
		2*time.Second, 10*time.Millisecond)

	resp, _ := f.do(t, http.MethodPost, "/sync/api/v1/checkins", motherToken,
		service.CreateCheckInRequest{Response: string(domain.CheckInNotOK)})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev domain.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, "checkin:new", ev.Name)
	assert.Equal(t, domain.KindCheckIn, ev.EntityKind)
}

func TestAppointments_MotherSelfRequest(t *testing.T) {
	f := newAPIFixture(t)

	resp, raw := f.do(t, http.MethodPost, "/sync/api/v1/appointments", motherToken, map[string]interface{}{
		"scheduled_time": time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339Nano),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	env := decode[domain.Appointment](t, raw)
	require.Equal(t, ResultSuccess, env.Code)
	assert.Equal(t, "mother-1", env.Result.MotherID)
	assert.Equal(t, "chw-1", env.Result.HealthWorkerID, "her active assignment supplies the worker")
}
