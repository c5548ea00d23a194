package registrations

import (
	"net/url"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aura-webinar/workshops/internal/eligibility"
	"github.com/aura-webinar/workshops/internal/events"
	"github.com/aura-webinar/workshops/internal/kvscope"
	"github.com/aura-webinar/workshops/internal/middleware"
	"github.com/aura-webinar/workshops/internal/models"
	"github.com/aura-webinar/workshops/pkg/response"
)

// CurrentEventAlias may be used in place of an event id to mean the configured current event.
const CurrentEventAlias = "current"

// RegisterResponse is the body of a successful registration.
type RegisterResponse struct {
	Registration    *models.Registration      `json:"registration"`
	Status          models.RegistrationStatus `json:"status"`
	Message         string                    `json:"message"`
	Warning         string                    `json:"warning,omitempty"`
	ConfirmationURL string                    `json:"confirmation_url"`
}

// StatusResponse is the body of GET /events/:id/status.
type StatusResponse struct {
	Event           models.WorkshopEvent   `json:"event"`
	IsOpen          bool                   `json:"is_open"`
	Reason          string                 `json:"reason"`
	Deadline        string                 `json:"deadline,omitempty"`
	DeadlineDisplay string                 `json:"deadline_display,omitempty"`
	Countdown       string                 `json:"countdown,omitempty"`
	TimeRemaining   *eligibility.Remaining `json:"time_remaining,omitempty"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	workflow       *Workflow
	engine         *eligibility.Engine
	catalog        *events.Catalog
	scopes         kvscope.Store
	currentEventID string
	logger         *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(workflow *Workflow, engine *eligibility.Engine, catalog *events.Catalog, scopes kvscope.Store, currentEventID string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		workflow:       workflow,
		engine:         engine,
		catalog:        catalog,
		scopes:         scopes,
		currentEventID: currentEventID,
		logger:         logger,
	}
}

// Routes mounts the public registration routes. The group must run middleware.ClientID.
func (h *Handler) Routes(r gin.IRoutes) {
	r.GET("/events/:id/status", h.Status)
	r.POST("/events/:id/register", h.Register)
}

func (h *Handler) eventID(c *gin.Context) string {
	id := c.Param("id")
	if id == CurrentEventAlias {
		return h.currentEventID
	}
	return id
}

// Status handles GET /events/:id/status.
func (h *Handler) Status(c *gin.Context) {
	id := h.eventID(c)
	ev, ok := h.catalog.Get(id)
	if !ok {
		response.NotFound(c, eligibility.ReasonNotFound)
		return
	}
	st := h.engine.CheckStatus(id)
	out := StatusResponse{Event: ev, IsOpen: st.IsOpen, Reason: st.Reason}
	if st.Deadline != nil {
		rem := h.engine.TimeRemaining(*st.Deadline)
		out.Deadline = st.Deadline.Format("2006-01-02T15:04:05.000Z07:00")
		out.DeadlineDisplay = eligibility.FormatDeadline(st.Deadline)
		out.Countdown = eligibility.FormatCountdown(rem)
		out.TimeRemaining = &rem
	}
	response.OK(c, out)
}

// Register handles POST /events/:id/register.
func (h *Handler) Register(c *gin.Context) {
	var form Form
	if err := c.ShouldBindJSON(&form); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	form.EventID = h.eventID(c)

	clientID := middleware.GetClientID(c)
	out := h.workflow.Submit(c.Request.Context(), form, h.scopes.Scope(clientID))

	if out.State == StateSucceeded {
		rec := out.Record
		msg := "Registration successful!"
		if rec.Status == models.StatusWaitlisted {
			msg = "The workshop is full. You have been added to the waitlist."
		}
		response.Created(c, RegisterResponse{
			Registration:    rec,
			Status:          rec.Status,
			Message:         msg,
			Warning:         out.Warning,
			ConfirmationURL: confirmationURL(rec),
		})
		return
	}
	switch out.Kind {
	case KindValidation:
		response.UnprocessableEntity(c, out.Message, out.Fields)
	case KindEligibilityClosed:
		response.Forbidden(c, out.Message)
	case KindAbuseLockout:
		response.TooManyRequests(c, out.Message)
	case KindDuplicate:
		response.Conflict(c, out.Message)
	case KindTransport:
		response.ServiceUnavailable(c, out.Message)
	default:
		response.Internal(c, out.Message)
	}
}

func confirmationURL(rec *models.Registration) string {
	q := url.Values{}
	q.Set("status", string(rec.Status))
	q.Set("student", rec.StudentName)
	return "/confirmation?" + q.Encode()
}
