package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/workshops/internal/abuse"
	"github.com/aura-webinar/workshops/internal/auth"
	"github.com/aura-webinar/workshops/internal/events"
	"github.com/aura-webinar/workshops/internal/kvscope"
	"github.com/aura-webinar/workshops/internal/middleware"
	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
	"github.com/aura-webinar/workshops/internal/storage/memory"
	"github.com/aura-webinar/workshops/internal/storage/storagetest"
)

var fixedNow = time.Date(2025, 11, 12, 9, 0, 0, 0, time.UTC)

type fakeExporter struct {
	objects    map[string][]byte
	deleted    []string
	presignErr error
	expire     time.Duration
}

func (f *fakeExporter) Upload(_ context.Context, key, _ string, body io.Reader) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if f.objects == nil {
		f.objects = map[string][]byte{}
	}
	f.objects[key] = b
	return nil
}

func (f *fakeExporter) PresignedDownloadURL(_ context.Context, key string) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://exports.example.com/" + key + "?sig=x", nil
}

func (f *fakeExporter) PresignExpire() time.Duration { return f.expire }

func (f *fakeExporter) DeleteObject(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

type harness struct {
	router *gin.Engine
	jwt    *auth.JWTService
	scopes *kvscope.MemoryStore
	cnt    *abuse.Counter
}

func newHarness(t *testing.T, store storage.Port, exp Exporter) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	jwtSvc := auth.NewJWTService("test-secret", 1)
	scopes := kvscope.NewMemoryStore(time.Hour)
	counter := abuse.NewCounter(func() time.Time { return fixedNow }, nil)
	h := NewHandler(Config{
		Store:          store,
		Catalog:        events.Default(),
		Counter:        counter,
		Scopes:         scopes,
		Exporter:       exp,
		CurrentEventID: events.DefaultEventID,
		Now:            func() time.Time { return fixedNow },
	}, nil)

	r := gin.New()
	h.Routes(r.Group("/admin", middleware.JWT(jwtSvc)))
	return harness{router: r, jwt: jwtSvc, scopes: scopes, cnt: counter}
}

func (hs harness) call(t *testing.T, method, path, role string) (*httptest.ResponseRecorder, json.RawMessage) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if role != "" {
		token, _, err := hs.jwt.Generate("someone", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	hs.router.ServeHTTP(w, req)

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env.Data
}

func seededStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	for _, r := range []models.Registration{
		storagetest.Registration(events.DefaultEventID, "a@example.com", models.StatusRegistered),
		storagetest.Registration(events.DefaultEventID, "b@example.com", models.StatusRegistered),
		storagetest.Registration(events.DefaultEventID, "c@example.com", models.StatusWaitlisted),
		storagetest.Registration("other-event", "d@example.com", models.StatusRegistered),
	} {
		_, err := store.InsertRegistration(ctx, r)
		require.NoError(t, err)
	}
	return store
}

func TestListRegistrations(t *testing.T) {
	hs := newHarness(t, seededStore(t), nil)

	w, data := hs.call(t, http.MethodGet, "/admin/events/current/registrations", auth.RoleViewer)

	require.Equal(t, http.StatusOK, w.Code)
	var got ListResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Registrations, 3)
	require.Equal(t, Summary{Capacity: 12, Registered: 2, Waitlisted: 1, Remaining: 10}, got.Summary)
}

func TestListRegistrations_Auth(t *testing.T) {
	hs := newHarness(t, seededStore(t), nil)

	w, _ := hs.call(t, http.MethodGet, "/admin/events/current/registrations", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = hs.call(t, http.MethodGet, "/admin/events/current/registrations", "intern")
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestListRegistrations_Errors(t *testing.T) {
	w, _ := newHarness(t, seededStore(t), nil).call(t, http.MethodGet, "/admin/events/nope/registrations", auth.RoleAdmin)
	require.Equal(t, http.StatusNotFound, w.Code)

	w, _ = newHarness(t, storage.Unconfigured{}, nil).call(t, http.MethodGet, "/admin/events/current/registrations", auth.RoleAdmin)
	require.Equal(t, http.StatusInternalServerError, w.Code)

	w, _ = newHarness(t, deniedPort{}, nil).call(t, http.MethodGet, "/admin/events/current/registrations", auth.RoleAdmin)
	require.Equal(t, http.StatusForbidden, w.Code)
}

type deniedPort struct{ storage.Unconfigured }

func (deniedPort) GetRegistrations(context.Context, string) ([]models.Registration, error) {
	return nil, storage.ErrPermissionDenied
}

func TestExportRegistrations(t *testing.T) {
	exp := &fakeExporter{expire: 15 * time.Minute}
	hs := newHarness(t, seededStore(t), exp)

	w, _ := hs.call(t, http.MethodPost, "/admin/events/current/registrations/export", auth.RoleViewer)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, data := hs.call(t, http.MethodPost, "/admin/events/current/registrations/export", auth.RoleAdmin)
	require.Equal(t, http.StatusCreated, w.Code)

	var got ExportResponse
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, 3, got.Rows)
	require.Equal(t, "exports/youthai-explorer-2025-nov/youthai-explorer-2025-nov-20251112T090000Z.csv", got.Key)
	require.Equal(t, "2025-11-12T09:15:00Z", got.ExpiresAt)
	require.Contains(t, got.URL, got.Key)

	rows, err := csv.NewReader(bytes.NewReader(exp.objects[got.Key])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	require.Equal(t, rosterHeader, rows[0])
}

func TestExportRegistrations_Failures(t *testing.T) {
	w, _ := newHarness(t, seededStore(t), nil).call(t, http.MethodPost, "/admin/events/current/registrations/export", auth.RoleAdmin)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	exp := &fakeExporter{presignErr: errors.New("no creds")}
	w, _ = newHarness(t, seededStore(t), exp).call(t, http.MethodPost, "/admin/events/current/registrations/export", auth.RoleAdmin)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Len(t, exp.deleted, 1)
	require.Empty(t, exp.objects)
}

func TestAbuseStatusAndReset(t *testing.T) {
	hs := newHarness(t, memory.New(), nil)
	scope := hs.scopes.Scope("client-1234")
	for i := 0; i < abuse.MaxAttempts; i++ {
		hs.cnt.CanSubmit(context.Background(), scope)
	}

	w, data := hs.call(t, http.MethodGet, "/admin/abuse/client-1234", auth.RoleViewer)
	require.Equal(t, http.StatusOK, w.Code)
	var rep abuse.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	require.True(t, rep.Locked)

	w, _ = hs.call(t, http.MethodDelete, "/admin/abuse/client-1234", auth.RoleViewer)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = hs.call(t, http.MethodDelete, "/admin/abuse/client-1234", auth.RoleAdmin)
	require.Equal(t, http.StatusNoContent, w.Code)
	require.True(t, hs.cnt.CanSubmit(context.Background(), scope).Allowed)
}
