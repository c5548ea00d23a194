package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/storage"
	"github.com/aura-webinar/workshops/internal/storage/memory"
	"github.com/aura-webinar/workshops/internal/storage/storagetest"
)

// fakeAPI serves the registrations REST contract from an in-memory store.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.New()
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	mux.HandleFunc("POST /registrations/check", func(w http.ResponseWriter, r *http.Request) {
		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		reg, _ := store.CheckExistingRegistration(r.Context(), req.StudentEmail, req.EventID)
		if reg == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"registration": reg})
	})
	mux.HandleFunc("GET /registrations/count", func(w http.ResponseWriter, r *http.Request) {
		n, _ := store.GetRegistrationCount(r.Context(), r.URL.Query().Get("eventId"))
		writeJSON(w, http.StatusOK, map[string]int{"count": n})
	})
	mux.HandleFunc("POST /registrations", func(w http.ResponseWriter, r *http.Request) {
		var rec models.Registration
		if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		ins, err := store.InsertRegistration(r.Context(), rec)
		if err != nil {
			writeJSON(w, http.StatusConflict, map[string]string{"code": codeDuplicate})
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"registration": ins})
	})
	mux.HandleFunc("GET /registrations", func(w http.ResponseWriter, r *http.Request) {
		list, _ := store.GetRegistrations(r.Context(), r.URL.Query().Get("eventId"))
		writeJSON(w, http.StatusOK, map[string]any{"registrations": list})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Port(t *testing.T) {
	storagetest.RunPortSuite(t, func(t *testing.T) storage.Port {
		c, err := New(Config{BaseURL: fakeAPI(t).URL})
		require.NoError(t, err)
		return c
	})
}

func TestNew_RequiresBaseURL(t *testing.T) {
	_, err := New(Config{})
	require.ErrorIs(t, err, storage.ErrNotInitialized)
	_, err = New(Config{BaseURL: "not a url"})
	require.ErrorIs(t, err, storage.ErrNotInitialized)
}

func TestClient_PermissionDenied(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL, APIKey: "secret"})
	require.NoError(t, err)
	_, err = c.CheckExistingRegistration(context.Background(), "a@example.com", "ev")
	require.ErrorIs(t, err, storage.ErrPermissionDenied)
	require.Equal(t, "Bearer secret", gotAuth)
	_, err = c.GetRegistrationCount(context.Background(), "ev")
	require.ErrorIs(t, err, storage.ErrPermissionDenied)
}

func TestClient_DuplicateCodeInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"DUPLICATE"}`))
	}))
	defer srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.InsertRegistration(context.Background(), storagetest.Registration("ev", "a@example.com", models.StatusRegistered))
	require.ErrorIs(t, err, storage.ErrDuplicate)
}

func TestClient_ServerErrorAndTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	c, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)
	_, err = c.GetRegistrations(context.Background(), "ev")
	require.ErrorIs(t, err, ErrAPI)

	srv.Close()
	_, err = c.GetRegistrationCount(context.Background(), "ev")
	require.ErrorIs(t, err, storage.ErrTransport)
}
