package v1

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/noterag/internal/profile"
	"github.com/hrygo/noterag/internal/observability"
	appmiddleware "github.com/hrygo/noterag/server/middleware"
	"github.com/hrygo/noterag/server/service/rag"
	"github.com/hrygo/noterag/store"
)

// Answerer answers questions from the indexed notes.
type Answerer interface {
	Answer(ctx context.Context, question string) (*rag.Answer, error)
}

// NoteManager creates, reads and deletes notes.
type NoteManager interface {
	CreateNote(ctx context.Context, text string) (*store.WorkflowInstance, error)
	GetNote(ctx context.Context, id int32) (*store.Note, error)
	ListNotes(ctx context.Context, limit, offset int) ([]*store.Note, error)
	DeleteNote(ctx context.Context, id int32) error
	GetWorkflow(ctx context.Context, id string) (*store.WorkflowInstance, []*store.WorkflowStep, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type APIV1Service struct {
	Profile       *profile.Profile
	AnswerService Answerer
	NoteService   NoteManager
	Health        Pinger

	rateLimiter *appmiddleware.RateLimiter
}

func NewAPIV1Service(profile *profile.Profile, answerService Answerer, noteService NoteManager, health Pinger) *APIV1Service {
	return &APIV1Service{
		Profile:       profile,
		AnswerService: answerService,
		NoteService:   noteService,
		Health:        health,
		rateLimiter:   appmiddleware.NewRateLimiter(),
	}
}

// RegisterRoutes installs the error handler, validator, shared middlewares and
// every route on echoServer.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.HTTPErrorHandler = HTTPErrorHandler
	echoServer.Validator = &requestValidator{validate: validator.New()}
	echoServer.Use(RequestContextMiddleware(), MetricsMiddleware())

	limited := s.rateLimiter.Middleware()
	echoServer.GET("/", s.GetAnswer, limited)
	echoServer.POST("/notes", s.CreateNote, limited)
	echoServer.GET("/notes", s.ListNotes)
	echoServer.GET("/notes/:id", s.GetNote)
	echoServer.DELETE("/notes/:id", s.DeleteNote)
	echoServer.GET("/workflows/:id", s.GetWorkflow)
	echoServer.GET("/healthz", s.GetHealth)
	echoServer.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(observability.Registry, promhttp.HandlerOpts{})))
}

type requestValidator struct {
	validate *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validate.Struct(i)
}

// GetHealth answers 200 when the database is reachable.
// GET /healthz
func (s *APIV1Service) GetHealth(c echo.Context) error {
	if err := s.Health.Ping(c.Request().Context()); err != nil {
		observability.LoggerFromContext(c.Request().Context()).Warn("health check failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
