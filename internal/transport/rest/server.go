// Package rest serves the appointment API over HTTP/JSON with gin. It speaks
// the same contract internal/store/remote consumes.
package rest

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookinghub/backend/internal/auth"
	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/monitoring"
	"bookinghub/backend/internal/notify"
)

const DefaultRequestTimeout = 10 * time.Second

type appointmentsService interface {
	List(ctx context.Context) ([]domain.Appointment, error)
	Get(ctx context.Context, id string) (domain.Appointment, bool, error)
	Create(ctx context.Context, in domain.NewAppointment) (domain.Appointment, error)
	Update(ctx context.Context, id string, patch domain.Patch) (domain.Appointment, bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByDate(ctx context.Context, date string) ([]domain.Appointment, error)
	ListByDateRange(ctx context.Context, start, end string) ([]domain.Appointment, error)
	Upcoming(ctx context.Context, limit int) ([]domain.Appointment, error)
	Statistics(ctx context.Context) (domain.Statistics, error)
	Clients(ctx context.Context) ([]domain.Client, error)
}

type authenticator interface {
	Enabled() bool
	Login(email, password string) (string, time.Time, error)
	Verify(raw string) (*auth.Claims, error)
}

type notifier interface {
	Dispatch(kind notify.Kind, a domain.Appointment)
	Send(ctx context.Context, kind notify.Kind, a domain.Appointment) error
}

type emailStatusReporter interface {
	Status() notify.EmailStatus
}

// Deps wires the server. Only Appointments is required.
type Deps struct {
	Appointments   appointmentsService
	Auth           authenticator
	Notifier       notifier
	Email          emailStatusReporter
	Metrics        *monitoring.Metrics
	LoginLimiter   *RateLimiter
	RequestTimeout time.Duration
	Log            *slog.Logger
}

type Server struct {
	svc     appointmentsService
	auth    authenticator
	notify  notifier
	email   emailStatusReporter
	metrics *monitoring.Metrics
	limiter *RateLimiter
	timeout time.Duration
	log     *slog.Logger
}

func NewServer(d Deps) *Server {
	log := d.Log
	if log == nil {
		log = slog.Default()
	}
	timeout := d.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	s := &Server{
		svc:     d.Appointments,
		auth:    d.Auth,
		notify:  d.Notifier,
		email:   d.Email,
		metrics: d.Metrics,
		limiter: d.LoginLimiter,
		timeout: timeout,
		log:     log.With(slog.String("component", "rest.appointments")),
	}
	if s.notify == nil {
		s.notify = noopNotifier{}
	}
	return s
}

// Handler builds the routing tree.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), observe(s.metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	api := r.Group("/api", requestTimeout(s.timeout))
	api.POST("/auth/login", rateLimit(s.limiter), s.login)

	protected := api.Group("")
	if s.authEnabled() {
		protected.Use(requireAuth(s.auth))
	}
	protected.GET("/appointments", s.listAppointments)
	protected.GET("/appointments/upcoming", s.upcoming)
	protected.GET("/appointments/:id", s.getAppointment)
	protected.POST("/appointments", s.createAppointment)
	protected.PATCH("/appointments/:id", s.updateAppointment)
	protected.DELETE("/appointments/:id", s.deleteAppointment)
	protected.POST("/appointments/:id/reminder", s.sendReminder)
	protected.GET("/stats", s.statistics)
	protected.GET("/clients", s.clients)
	protected.GET("/email/status", s.emailStatus)

	return r
}

func (s *Server) authEnabled() bool {
	return s.auth != nil && s.auth.Enabled()
}

type noopNotifier struct{}

func (noopNotifier) Dispatch(notify.Kind, domain.Appointment) {}

func (noopNotifier) Send(context.Context, notify.Kind, domain.Appointment) error { return nil }
