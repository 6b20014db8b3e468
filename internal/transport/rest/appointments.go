package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bookinghub/backend/internal/auth"
	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/notify"
	"bookinghub/backend/internal/store"
	"bookinghub/backend/internal/store/remote"
)

const msgNotFound = "appointment not found"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) login(c *gin.Context) {
	log := s.log.With(slog.String("route", "Login"))

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_json"))
		abort(c, http.StatusBadRequest, "request body must be JSON")
		return
	}
	if s.auth == nil {
		abort(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, exp, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Info("login rejected", slog.String("email", req.Email))
			abort(c, http.StatusUnauthorized, "invalid email or password")
			return
		}
		log.Error("login failed", slog.Any("err", err))
		abort(c, http.StatusInternalServerError, "internal error")
		return
	}

	log.Info("login succeeded", slog.String("email", req.Email))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"token": token, "expiresAt": exp}})
}

func (s *Server) listAppointments(c *gin.Context) {
	log := s.log.With(slog.String("route", "ListAppointments"))
	ctx := c.Request.Context()

	date := strings.TrimSpace(c.Query("date"))
	start := strings.TrimSpace(c.Query("start"))
	end := strings.TrimSpace(c.Query("end"))

	var (
		appts []domain.Appointment
		err   error
	)
	switch {
	case date != "":
		if !domain.ValidDate(date) {
			log.Warn("invalid request", slog.String("reason", "bad_date"), slog.String("date", date))
			abort(c, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		appts, err = s.svc.ListByDate(ctx, date)
	case start != "" || end != "":
		if !domain.ValidDate(start) || !domain.ValidDate(end) {
			log.Warn("invalid request", slog.String("reason", "bad_range"), slog.String("start", start), slog.String("end", end))
			abort(c, http.StatusBadRequest, "start and end must be YYYY-MM-DD")
			return
		}
		appts, err = s.svc.ListByDateRange(ctx, start, end)
	default:
		appts, err = s.svc.List(ctx)
	}
	if err != nil {
		s.fail(c, log, "appointments list failed", err)
		return
	}

	log.Debug("appointments listed", slog.Int("count", len(appts)))
	c.JSON(http.StatusOK, gin.H{"data": appts})
}

func (s *Server) upcoming(c *gin.Context) {
	log := s.log.With(slog.String("route", "Upcoming"))

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			log.Warn("invalid request", slog.String("reason", "bad_limit"), slog.String("limit", raw))
			abort(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	appts, err := s.svc.Upcoming(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, log, "upcoming list failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": appts})
}

func (s *Server) getAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "GetAppointment"))
	id := c.Param("id")

	appt, found, err := s.svc.Get(c.Request.Context(), id)
	if err != nil {
		s.fail(c, log, "appointment get failed", err, slog.String("appointment_id", id))
		return
	}
	if !found {
		log.Info("appointment not found", slog.String("appointment_id", id))
		abort(c, http.StatusNotFound, msgNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": appt})
}

func (s *Server) createAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "CreateAppointment"))

	var in domain.NewAppointment
	if err := c.ShouldBindJSON(&in); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_json"))
		abort(c, http.StatusBadRequest, "request body must be JSON")
		return
	}
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		s.fail(c, log, "invalid request", err)
		return
	}

	appt, err := s.svc.Create(c.Request.Context(), in)
	s.metrics.ObserveMutation("create", err)
	if err != nil {
		s.fail(c, log, "appointment create failed", err)
		return
	}

	log.Info("appointment created",
		slog.String("appointment_id", appt.ID),
		slog.String("date", appt.Date),
		slog.String("time", appt.Time),
	)
	s.notify.Dispatch(notify.KindConfirmation, appt)
	c.JSON(http.StatusCreated, gin.H{"data": appt})
}

func (s *Server) updateAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "UpdateAppointment"))
	ctx := c.Request.Context()
	id := c.Param("id")

	var patch domain.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		log.Warn("invalid request", slog.String("reason", "bad_json"), slog.String("appointment_id", id))
		abort(c, http.StatusBadRequest, "request body must be JSON")
		return
	}
	if err := patch.Validate(); err != nil {
		s.fail(c, log, "invalid request", err, slog.String("appointment_id", id))
		return
	}

	before, found, err := s.svc.Get(ctx, id)
	if err != nil {
		s.fail(c, log, "appointment get failed", err, slog.String("appointment_id", id))
		return
	}
	if !found {
		log.Info("appointment not found", slog.String("appointment_id", id))
		abort(c, http.StatusNotFound, msgNotFound)
		return
	}

	appt, found, err := s.svc.Update(ctx, id, patch)
	s.metrics.ObserveMutation("update", err)
	if err != nil {
		s.fail(c, log, "appointment update failed", err, slog.String("appointment_id", id))
		return
	}
	if !found {
		log.Info("appointment not found", slog.String("appointment_id", id))
		abort(c, http.StatusNotFound, msgNotFound)
		return
	}

	log.Info("appointment updated", slog.String("appointment_id", id), slog.String("status", string(appt.Status)))
	if appt.Status == domain.StatusCancelled && before.Status != domain.StatusCancelled {
		s.notify.Dispatch(notify.KindCancellation, appt)
	}
	c.JSON(http.StatusOK, gin.H{"data": appt})
}

func (s *Server) deleteAppointment(c *gin.Context) {
	log := s.log.With(slog.String("route", "DeleteAppointment"))
	ctx := c.Request.Context()
	id := c.Param("id")

	before, found, err := s.svc.Get(ctx, id)
	if err != nil {
		s.fail(c, log, "appointment get failed", err, slog.String("appointment_id", id))
		return
	}
	if !found {
		log.Info("appointment not found", slog.String("appointment_id", id))
		abort(c, http.StatusNotFound, msgNotFound)
		return
	}

	removed, err := s.svc.Delete(ctx, id)
	s.metrics.ObserveMutation("delete", err)
	if err != nil {
		s.fail(c, log, "appointment delete failed", err, slog.String("appointment_id", id))
		return
	}
	if !removed {
		log.Info("appointment not found", slog.String("appointment_id", id))
		abort(c, http.StatusNotFound, msgNotFound)
		return
	}

	log.Info("appointment deleted", slog.String("appointment_id", id))
	if before.Status == domain.StatusScheduled {
		s.notify.Dispatch(notify.KindCancellation, before)
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) sendReminder(c *gin.Context) {
	log := s.log.With(slog.String("route", "SendReminder"))
	ctx := c.Request.Context()
	id := c.Param("id")

	appt, found, err := s.svc.Get(ctx, id)
	if err != nil {
		s.fail(c, log, "appointment get failed", err, slog.String("appointment_id", id))
		return
	}
	if !found {
		log.Info("appointment not found", slog.String("appointment_id", id))
		abort(c, http.StatusNotFound, msgNotFound)
		return
	}

	if err := s.notify.Send(ctx, notify.KindReminder, appt); err != nil {
		log.Error("reminder send failed", slog.Any("err", err), slog.String("appointment_id", id))
		abort(c, http.StatusBadGateway, "Failed to send email")
		return
	}

	log.Info("reminder sent", slog.String("appointment_id", id))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"sent": true}})
}

func (s *Server) statistics(c *gin.Context) {
	log := s.log.With(slog.String("route", "Statistics"))

	stats, err := s.svc.Statistics(c.Request.Context())
	if err != nil {
		s.fail(c, log, "statistics failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

func (s *Server) clients(c *gin.Context) {
	log := s.log.With(slog.String("route", "Clients"))

	clients, err := s.svc.Clients(c.Request.Context())
	if err != nil {
		s.fail(c, log, "clients failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

func (s *Server) emailStatus(c *gin.Context) {
	status := notify.EmailStatus{TestMode: true, FromEmail: notify.DefaultFromEmail}
	if s.email != nil {
		status = s.email.Status()
	}
	c.JSON(http.StatusOK, gin.H{"data": status})
}

// fail maps err onto a status code and logs it at a level matching who is at
// fault.
func (s *Server) fail(c *gin.Context, log *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append([]any{slog.Any("err", err)}, attrs...)

	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		log.Warn("invalid request", attrs...)
		abort(c, http.StatusBadRequest, vErr.Error())
		return
	}
	if errors.Is(err, store.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn(msg, attrs...)
		abort(c, http.StatusGatewayTimeout, "request timed out")
		return
	}
	if errors.Is(err, store.ErrUnavailable) {
		log.Error(msg, attrs...)
		abort(c, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	var sErr *remote.StatusError
	if errors.As(err, &sErr) {
		log.Error(msg, attrs...)
		abort(c, http.StatusBadGateway, "upstream error")
		return
	}
	log.Error(msg, attrs...)
	abort(c, http.StatusInternalServerError, "internal error")
}
