package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"bookinghub/backend/internal/auth"
	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/monitoring"
	"bookinghub/backend/internal/notify"
	"bookinghub/backend/internal/store"
	"bookinghub/backend/internal/store/remote"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeAppointmentsService struct {
	listFn       func(ctx context.Context) ([]domain.Appointment, error)
	getFn        func(ctx context.Context, id string) (domain.Appointment, bool, error)
	createFn     func(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error)
	updateFn     func(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error)
	deleteFn     func(ctx context.Context, id string) (bool, error)
	byDateFn     func(ctx context.Context, date string) ([]domain.Appointment, error)
	byRangeFn    func(ctx context.Context, start, end string) ([]domain.Appointment, error)
	upcomingFn   func(ctx context.Context, limit int) ([]domain.Appointment, error)
	statisticsFn func(ctx context.Context) (domain.Statistics, error)
	clientsFn    func(ctx context.Context) ([]domain.Client, error)
}

func (f *fakeAppointmentsService) List(ctx context.Context) ([]domain.Appointment, error) {
	if f.listFn == nil {
		panic("listFn not set")
	}
	return f.listFn(ctx)
}

func (f *fakeAppointmentsService) Get(ctx context.Context, id string) (domain.Appointment, bool, error) {
	if f.getFn == nil {
		panic("getFn not set")
	}
	return f.getFn(ctx, id)
}

func (f *fakeAppointmentsService) Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error) {
	if f.createFn == nil {
		panic("createFn not set")
	}
	return f.createFn(ctx, in)
}

func (f *fakeAppointmentsService) Update(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error) {
	if f.updateFn == nil {
		panic("updateFn not set")
	}
	return f.updateFn(ctx, id, patch)
}

func (f *fakeAppointmentsService) Delete(ctx context.Context, id string) (bool, error) {
	if f.deleteFn == nil {
		panic("deleteFn not set")
	}
	return f.deleteFn(ctx, id)
}

func (f *fakeAppointmentsService) ListByDate(ctx context.Context, date string) ([]domain.Appointment, error) {
	if f.byDateFn == nil {
		panic("byDateFn not set")
	}
	return f.byDateFn(ctx, date)
}

func (f *fakeAppointmentsService) ListByDateRange(ctx context.Context, start, end string) ([]domain.Appointment, error) {
	if f.byRangeFn == nil {
		panic("byRangeFn not set")
	}
	return f.byRangeFn(ctx, start, end)
}

func (f *fakeAppointmentsService) Upcoming(ctx context.Context, limit int) ([]domain.Appointment, error) {
	if f.upcomingFn == nil {
		panic("upcomingFn not set")
	}
	return f.upcomingFn(ctx, limit)
}

func (f *fakeAppointmentsService) Statistics(ctx context.Context) (domain.Statistics, error) {
	if f.statisticsFn == nil {
		panic("statisticsFn not set")
	}
	return f.statisticsFn(ctx)
}

func (f *fakeAppointmentsService) Clients(ctx context.Context) ([]domain.Client, error) {
	if f.clientsFn == nil {
		panic("clientsFn not set")
	}
	return f.clientsFn(ctx)
}

type sentNotification struct {
	kind notify.Kind
	id   string
}

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []sentNotification
	sendErr error
}

func (r *recordingNotifier) Dispatch(kind notify.Kind, a domain.Appointment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{kind: kind, id: a.ID})
}

func (r *recordingNotifier) Send(_ context.Context, kind notify.Kind, a domain.Appointment) error {
	r.Dispatch(kind, a)
	return r.sendErr
}

func (r *recordingNotifier) all() []sentNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentNotification(nil), r.sent...)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestHandler(svc *fakeAppointmentsService, n *recordingNotifier) http.Handler {
	return NewServer(Deps{
		Appointments: svc,
		Notifier:     n,
		Metrics:      monitoring.New(),
		Log:          discardLogger(),
	}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out.Data
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var out struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return out.Message
}

func sampleAppointment(id string) domain.Appointment {
	return domain.Appointment{
		ID: id, Name: "John Doe", Email: "john@example.com",
		Date: "2026-03-10", Time: "10:00", Service: "Consultation",
		Status: domain.StatusScheduled,
	}
}

func TestListAppointments_Dispatch(t *testing.T) {
	svc := &fakeAppointmentsService{
		listFn: func(context.Context) ([]domain.Appointment, error) {
			return []domain.Appointment{sampleAppointment("all")}, nil
		},
		byDateFn: func(_ context.Context, date string) ([]domain.Appointment, error) {
			if date != "2026-03-10" {
				t.Errorf("date = %q, want %q", date, "2026-03-10")
			}
			return []domain.Appointment{sampleAppointment("day")}, nil
		},
		byRangeFn: func(_ context.Context, start, end string) ([]domain.Appointment, error) {
			if start != "2026-03-01" || end != "2026-03-31" {
				t.Errorf("range = %s..%s", start, end)
			}
			return []domain.Appointment{sampleAppointment("range")}, nil
		},
	}
	h := newTestHandler(svc, &recordingNotifier{})

	cases := map[string]string{
		"/api/appointments":                                 "all",
		"/api/appointments?date=2026-03-10":                 "day",
		"/api/appointments?start=2026-03-01&end=2026-03-31": "range",
	}
	for path, wantID := range cases {
		rec := do(t, h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want %d", path, rec.Code, http.StatusOK)
		}
		got := decodeData[[]domain.Appointment](t, rec)
		if len(got) != 1 || got[0].ID != wantID {
			t.Fatalf("%s: data = %+v, want id %q", path, got, wantID)
		}
	}
}

func TestListAppointments_BadQuery(t *testing.T) {
	h := newTestHandler(&fakeAppointmentsService{}, &recordingNotifier{})

	for _, path := range []string{
		"/api/appointments?date=03/10/2026",
		"/api/appointments?start=2026-03-01",
		"/api/appointments/upcoming?limit=-1",
		"/api/appointments/upcoming?limit=ten",
	} {
		if rec := do(t, h, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want %d", path, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestUpcoming_PassesLimit(t *testing.T) {
	var gotLimit int
	svc := &fakeAppointmentsService{
		upcomingFn: func(_ context.Context, limit int) ([]domain.Appointment, error) {
			gotLimit = limit
			return []domain.Appointment{}, nil
		},
	}
	h := newTestHandler(svc, &recordingNotifier{})

	if rec := do(t, h, http.MethodGet, "/api/appointments/upcoming?limit=5", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotLimit != 5 {
		t.Fatalf("limit = %d, want 5", gotLimit)
	}
}

func TestGetAppointment_NotFound(t *testing.T) {
	svc := &fakeAppointmentsService{
		getFn: func(context.Context, string) (domain.Appointment, bool, error) {
			return domain.Appointment{}, false, nil
		},
	}
	rec := do(t, newTestHandler(svc, &recordingNotifier{}), http.MethodGet, "/api/appointments/nope", "")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if msg := decodeMessage(t, rec); msg != msgNotFound {
		t.Fatalf("message = %q, want %q", msg, msgNotFound)
	}
}

func TestCreateAppointment_ValidatesAndConfirms(t *testing.T) {
	var got domain.NewAppointment
	svc := &fakeAppointmentsService{
		createFn: func(_ context.Context, in domain.NewAppointment) (domain.Appointment, error) {
			got = in
			return in.Build("new-id", time.Now()), nil
		},
	}
	n := &recordingNotifier{}
	h := newTestHandler(svc, n)

	rec := do(t, h, http.MethodPost, "/api/appointments", `{"name":" Ana ","email":"ana@x.com","date":"2026-03-10","time":"09:30","service":"Checkup"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if got.Name != "Ana" {
		t.Fatalf("name = %q, want trimmed %q", got.Name, "Ana")
	}
	appt := decodeData[domain.Appointment](t, rec)
	if appt.ID != "new-id" || appt.Status != domain.StatusScheduled {
		t.Fatalf("appointment = %+v", appt)
	}
	if sent := n.all(); len(sent) != 1 || sent[0] != (sentNotification{kind: notify.KindConfirmation, id: "new-id"}) {
		t.Fatalf("notifications = %+v, want one confirmation", sent)
	}

	rec = do(t, h, http.MethodPost, "/api/appointments", `{"name":"Ana","email":"ana@x.com","date":"2026-03-10","time":"9am","service":"Checkup"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeMessage(t, rec); msg != "time must be HH:MM" {
		t.Fatalf("message = %q, want %q", msg, "time must be HH:MM")
	}

	if rec := do(t, h, http.MethodPost, "/api/appointments", `{not json`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateAppointment_MapsStoreErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"timeout", store.ErrTimeout, http.StatusGatewayTimeout},
		{"upstream", &remote.StatusError{StatusCode: 500}, http.StatusBadGateway},
		{"unavailable", store.ErrUnavailable, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeAppointmentsService{
				createFn: func(context.Context, domain.NewAppointment) (domain.Appointment, error) {
					return domain.Appointment{}, tc.err
				},
			}
			n := &recordingNotifier{}
			rec := do(t, newTestHandler(svc, n), http.MethodPost, "/api/appointments", `{"name":"a","email":"a@x.com","date":"2026-03-10","time":"09:30","service":"s"}`)
			if rec.Code != tc.want {
				t.Fatalf("status = %d, want %d", rec.Code, tc.want)
			}
			if len(n.all()) != 0 {
				t.Fatalf("notification sent for failed create")
			}
		})
	}
}

func TestUpdateAppointment_CancellationNotifiesOnce(t *testing.T) {
	current := sampleAppointment("a1")
	svc := &fakeAppointmentsService{
		getFn: func(_ context.Context, id string) (domain.Appointment, bool, error) {
			return current, id == "a1", nil
		},
		updateFn: func(_ context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error) {
			current = patch.Apply(current, time.Now())
			return current, true, nil
		},
	}
	n := &recordingNotifier{}
	h := newTestHandler(svc, n)

	for i := 0; i < 2; i++ {
		rec := do(t, h, http.MethodPatch, "/api/appointments/a1", `{"status":"cancelled"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
	}
	if sent := n.all(); len(sent) != 1 || sent[0].kind != notify.KindCancellation {
		t.Fatalf("notifications = %+v, want one cancellation", sent)
	}

	if rec := do(t, h, http.MethodPatch, "/api/appointments/missing", `{"notes":"x"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if rec := do(t, h, http.MethodPatch, "/api/appointments/a1", `{}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty patch status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestDeleteAppointment(t *testing.T) {
	scheduled := sampleAppointment("a1")
	done := sampleAppointment("a2")
	done.Status = domain.StatusCompleted
	rows := map[string]domain.Appointment{"a1": scheduled, "a2": done}

	svc := &fakeAppointmentsService{
		getFn: func(_ context.Context, id string) (domain.Appointment, bool, error) {
			a, ok := rows[id]
			return a, ok, nil
		},
		deleteFn: func(_ context.Context, id string) (bool, error) {
			_, ok := rows[id]
			delete(rows, id)
			return ok, nil
		},
	}
	n := &recordingNotifier{}
	h := newTestHandler(svc, n)

	for _, id := range []string{"a1", "a2"} {
		if rec := do(t, h, http.MethodDelete, "/api/appointments/"+id, ""); rec.Code != http.StatusNoContent {
			t.Fatalf("delete %s status = %d, want %d", id, rec.Code, http.StatusNoContent)
		}
	}
	if rec := do(t, h, http.MethodDelete, "/api/appointments/a1", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	sent := n.all()
	if len(sent) != 1 || sent[0] != (sentNotification{kind: notify.KindCancellation, id: "a1"}) {
		t.Fatalf("notifications = %+v, want cancellation for a1 only", sent)
	}
}

func TestSendReminder(t *testing.T) {
	svc := &fakeAppointmentsService{
		getFn: func(_ context.Context, id string) (domain.Appointment, bool, error) {
			return sampleAppointment(id), id == "a1", nil
		},
	}
	n := &recordingNotifier{}
	h := newTestHandler(svc, n)

	if rec := do(t, h, http.MethodPost, "/api/appointments/a1/reminder", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if sent := n.all(); len(sent) != 1 || sent[0].kind != notify.KindReminder {
		t.Fatalf("notifications = %+v, want one reminder", sent)
	}

	if rec := do(t, h, http.MethodPost, "/api/appointments/zz/reminder", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	n.sendErr = errors.New("resend down")
	rec := do(t, h, http.MethodPost, "/api/appointments/a1/reminder", "")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
}

func TestStatisticsAndClients(t *testing.T) {
	svc := &fakeAppointmentsService{
		statisticsFn: func(context.Context) (domain.Statistics, error) {
			return domain.Statistics{Total: 2, ServiceBreakdown: map[string]int{"s": 2}, TopServices: []domain.ServiceCount{{Service: "s", Count: 2}}}, nil
		},
		clientsFn: func(context.Context) ([]domain.Client, error) {
			return []domain.Client{{Email: "a@x.com", TotalAppointments: 2}}, nil
		},
	}
	h := newTestHandler(svc, &recordingNotifier{})

	stats := decodeData[domain.Statistics](t, do(t, h, http.MethodGet, "/api/stats", ""))
	if stats.Total != 2 || stats.ServiceBreakdown["s"] != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	clients := decodeData[[]domain.Client](t, do(t, h, http.MethodGet, "/api/clients", ""))
	if len(clients) != 1 || clients[0].TotalAppointments != 2 {
		t.Fatalf("clients = %+v", clients)
	}
}

func TestEmailStatus_DefaultsToTestMode(t *testing.T) {
	h := newTestHandler(&fakeAppointmentsService{}, &recordingNotifier{})
	st := decodeData[notify.EmailStatus](t, do(t, h, http.MethodGet, "/api/email/status", ""))
	if st.Configured || !st.TestMode || st.FromEmail != notify.DefaultFromEmail {
		t.Fatalf("status = %+v", st)
	}
}

func TestAuth_ProtectsAPI(t *testing.T) {
	hash, err := auth.HashPassword("123456")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	svc := &fakeAppointmentsService{
		listFn: func(context.Context) ([]domain.Appointment, error) { return []domain.Appointment{}, nil },
	}
	h := NewServer(Deps{
		Appointments: svc,
		Auth:         auth.New(auth.Config{AdminEmail: "admin@test.com", PasswordHash: hash, JWTSecret: "s3cret"}),
		Log:          discardLogger(),
	}).Handler()

	if rec := do(t, h, http.MethodGet, "/api/appointments", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := do(t, h, http.MethodGet, "/api/appointments", "", "Authorization", "Bearer garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	if rec := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"admin@test.com","password":"wrong"}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec := do(t, h, http.MethodPost, "/api/auth/login", `{"email":"admin@test.com","password":"123456"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, want %d", rec.Code, http.StatusOK)
	}
	token := decodeData[struct {
		Token string `json:"token"`
	}](t, rec).Token

	if rec := do(t, h, http.MethodGet, "/api/appointments", "", "Authorization", "Bearer "+token); rec.Code != http.StatusOK {
		t.Fatalf("authorized status = %d, want %d", rec.Code, http.StatusOK)
	}
	if rec := do(t, h, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewServer(Deps{
		Appointments: &fakeAppointmentsService{},
		Auth:         auth.New(auth.Config{AdminEmail: "admin@test.com", JWTSecret: "s3cret"}),
		LoginLimiter: NewRateLimiter(ctx, 0.001, 2),
		Log:          discardLogger(),
	}).Handler()

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, do(t, h, http.MethodPost, "/api/auth/login", `{"email":"x","password":"y"}`).Code)
	}
	want := []int{http.StatusUnauthorized, http.StatusUnauthorized, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestRequestTimeout_SetsDeadline(t *testing.T) {
	svc := &fakeAppointmentsService{
		listFn: func(ctx context.Context) ([]domain.Appointment, error) {
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("request context has no deadline")
			}
			return []domain.Appointment{}, nil
		},
	}
	h := NewServer(Deps{Appointments: svc, RequestTimeout: time.Second, Log: discardLogger()}).Handler()
	if rec := do(t, h, http.MethodGet, "/api/appointments", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	svc := &fakeAppointmentsService{
		listFn: func(context.Context) ([]domain.Appointment, error) { return []domain.Appointment{}, nil },
	}
	h := newTestHandler(svc, &recordingNotifier{})
	do(t, h, http.MethodGet, "/api/appointments", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `path="/api/appointments"`) {
		t.Fatalf("metrics missing request series")
	}
}
