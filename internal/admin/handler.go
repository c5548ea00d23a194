// Package admin serves the authenticated roster and abuse-counter endpoints.
package admin

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/workshops/internal/abuse"
	"github.com/aura-webinar/workshops/internal/auth"
	"github.com/aura-webinar/workshops/internal/events"
	"github.com/aura-webinar/workshops/internal/kvscope"
	"github.com/aura-webinar/workshops/internal/middleware"
	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/internal/registrations"
	"github.com/aura-webinar/workshops/internal/storage"
	"github.com/aura-webinar/workshops/pkg/response"
	s3store "github.com/aura-webinar/workshops/pkg/storage"
)

// Exporter stores roster files and hands out temporary download links.
type Exporter interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) error
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
	DeleteObject(ctx context.Context, key string) error
	PresignExpire() time.Duration
}

// ListResponse is the body of GET /admin/events/:id/registrations.
type ListResponse struct {
	Event         models.WorkshopEvent  `json:"event"`
	Summary       Summary               `json:"summary"`
	Registrations []models.Registration `json:"registrations"`
}

// ExportResponse is the body of POST /admin/events/:id/registrations/export.
type ExportResponse struct {
	Key       string `json:"key"`
	URL       string `json:"url"`
	Rows      int    `json:"rows"`
	ExpiresAt string `json:"expires_at"`
}

// Handler handles admin HTTP endpoints.
type Handler struct {
	store          storage.Port
	catalog        *events.Catalog
	counter        *abuse.Counter
	scopes         kvscope.Store
	exporter       Exporter
	currentEventID string
	now            func() time.Time
	logger         *zap.Logger
}

// Config wires a Handler. Exporter may be nil, which disables exports.
type Config struct {
	Store          storage.Port
	Catalog        *events.Catalog
	Counter        *abuse.Counter
	Scopes         kvscope.Store
	Exporter       Exporter
	CurrentEventID string
	Now            func() time.Time
}

// NewHandler creates an admin handler.
func NewHandler(cfg Config, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Store == nil {
		cfg.Store = storage.Unconfigured{}
	}
	return &Handler{
		store:          cfg.Store,
		catalog:        cfg.Catalog,
		counter:        cfg.Counter,
		scopes:         cfg.Scopes,
		exporter:       cfg.Exporter,
		currentEventID: cfg.CurrentEventID,
		now:            cfg.Now,
		logger:         logger,
	}
}

// Routes mounts the admin routes on a group that already runs middleware.JWT.
// Viewers may read; only admins may export or reset counters.
func (h *Handler) Routes(g gin.IRoutes) {
	read := middleware.RequireRole(auth.RoleAdmin, auth.RoleViewer)
	write := middleware.RequireRole(auth.RoleAdmin)

	g.GET("/events/:id/registrations", read, h.ListRegistrations)
	g.POST("/events/:id/registrations/export", write, h.ExportRegistrations)
	g.GET("/abuse/:client", read, h.AbuseStatus)
	g.DELETE("/abuse/:client", write, h.ResetAbuse)
}

func (h *Handler) event(c *gin.Context) (models.WorkshopEvent, bool) {
	id := c.Param("id")
	if id == registrations.CurrentEventAlias {
		id = h.currentEventID
	}
	ev, ok := h.catalog.Get(id)
	if !ok {
		response.NotFound(c, "event not found")
	}
	return ev, ok
}

// ListRegistrations handles GET /admin/events/:id/registrations.
func (h *Handler) ListRegistrations(c *gin.Context) {
	ev, ok := h.event(c)
	if !ok {
		return
	}
	recs, err := h.store.GetRegistrations(c.Request.Context(), ev.ID)
	if err != nil {
		h.storageError(c, ev.ID, err)
		return
	}
	if recs == nil {
		recs = []models.Registration{}
	}
	response.OK(c, ListResponse{Event: ev, Summary: summarize(ev, recs), Registrations: recs})
}

// ExportRegistrations handles POST /admin/events/:id/registrations/export.
func (h *Handler) ExportRegistrations(c *gin.Context) {
	if h.exporter == nil {
		response.ServiceUnavailable(c, "roster export is not configured")
		return
	}
	ev, ok := h.event(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	recs, err := h.store.GetRegistrations(ctx, ev.ID)
	if err != nil {
		h.storageError(c, ev.ID, err)
		return
	}

	var buf bytes.Buffer
	if err := WriteRoster(&buf, recs); err != nil {
		h.logger.Error("write roster failed", zap.Error(err), zap.String("event_id", ev.ID))
		response.Internal(c, "failed to build export")
		return
	}

	now := h.now()
	key := s3store.ExportKey(ev.ID, now)
	if err := h.exporter.Upload(ctx, key, s3store.ContentTypeCSV, &buf); err != nil {
		h.logger.Error("export upload failed", zap.Error(err), zap.String("key", key))
		response.ServiceUnavailable(c, "failed to upload export")
		return
	}
	url, err := h.exporter.PresignedDownloadURL(ctx, key)
	if err != nil {
		h.logger.Error("presign export failed", zap.Error(err), zap.String("key", key))
		if delErr := h.exporter.DeleteObject(ctx, key); delErr != nil {
			h.logger.Warn("orphaned export not deleted", zap.Error(delErr), zap.String("key", key))
		}
		response.Internal(c, "failed to create download link")
		return
	}

	h.logger.Info("roster exported",
		zap.String("event_id", ev.ID),
		zap.Int("rows", len(recs)),
		zap.String("admin", c.GetString(middleware.ContextAdminUser)),
	)
	response.Created(c, ExportResponse{
		Key:       key,
		URL:       url,
		Rows:      len(recs),
		ExpiresAt: now.Add(h.exporter.PresignExpire()).UTC().Format(time.RFC3339),
	})
}

// AbuseStatus handles GET /admin/abuse/:client.
func (h *Handler) AbuseStatus(c *gin.Context) {
	scope := h.scopes.Scope(c.Param("client"))
	response.OK(c, h.counter.Status(c.Request.Context(), scope))
}

// ResetAbuse handles DELETE /admin/abuse/:client.
func (h *Handler) ResetAbuse(c *gin.Context) {
	client := c.Param("client")
	if err := h.counter.Reset(c.Request.Context(), h.scopes.Scope(client)); err != nil {
		h.logger.Error("reset abuse counter failed", zap.Error(err), zap.String("client_id", client))
		response.Internal(c, "failed to reset counter")
		return
	}
	h.logger.Info("abuse counter reset", zap.String("client_id", client), zap.String("admin", c.GetString(middleware.ContextAdminUser)))
	response.NoContent(c)
}

func (h *Handler) storageError(c *gin.Context, eventID string, err error) {
	kind, msg := registrations.Classify(err)
	h.logger.Error("list registrations failed", zap.Error(err), zap.String("event_id", eventID), zap.String("kind", string(kind)))
	switch {
	case errors.Is(err, storage.ErrPermissionDenied):
		response.Forbidden(c, "storage backend refused the read")
	case kind == registrations.KindTransport:
		response.ServiceUnavailable(c, msg)
	default:
		response.Internal(c, msg)
	}
}
