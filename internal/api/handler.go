// Package api exposes the notification service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/pos-notifier/internal/business"
	"github.com/example/pos-notifier/internal/common"
	"github.com/example/pos-notifier/internal/dispatch"
	"github.com/example/pos-notifier/internal/notify"
	"github.com/example/pos-notifier/internal/record"
	"github.com/example/pos-notifier/internal/vocabulary"
)

const businessHeader = "x-business-id"

type Notifier interface {
	SendNotification(ctx context.Context, req notify.SendRequest) notify.Result
	Template(ctx context.Context, kind vocabulary.Kind, recordID, businessID int64) (notify.Preview, error)
}

// SendRequest mirrors the form the template editor posts.
type SendRequest struct {
	TemplateFor      string `json:"template_for" validate:"required"`
	TransactionID    int64  `json:"transaction_id" validate:"required,gt=0"`
	NotificationType string `json:"notification_type" validate:"required,oneof=email_only sms_only both"`
	ToEmail          string `json:"to_email" validate:"omitempty,email"`
	MobileNumber     string `json:"mobile_number" validate:"omitempty,max=32"`
	Subject          string `json:"subject"`
	EmailBody        string `json:"email_body"`
	SMSBody          string `json:"sms_body"`
}

type Handler struct {
	notifier Notifier
	validate *validator.Validate
	tracer   trace.Tracer
	logger   zerolog.Logger
}

func NewHandler(notifier Notifier, logger zerolog.Logger) *Handler {
	return &Handler{
		notifier: notifier,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		tracer:   otel.Tracer("api"),
		logger:   common.Component(logger, "api"),
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/v1/notifications", func(r chi.Router) {
		r.Post("/send", h.send)
		r.Get("/{kind}/records/{id}/template", h.template)
	})
	return r
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "send")
	defer span.End()

	businessID, err := businessFrom(r)
	if err != nil {
		h.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}

	res := h.notifier.SendNotification(ctx, notify.SendRequest{
		Kind:       vocabulary.Kind(req.TemplateFor),
		RecordID:   req.TransactionID,
		BusinessID: businessID,
		ToEmail:    req.ToEmail,
		Phone:      req.MobileNumber,
		Subject:    req.Subject,
		EmailBody:  req.EmailBody,
		SMSBody:    req.SMSBody,
		Channel:    dispatch.Channel(req.NotificationType),
	})
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) template(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "template")
	defer span.End()

	businessID, err := businessFrom(r)
	if err != nil {
		h.respondErr(ctx, w, http.StatusBadRequest, err)
		return
	}
	recordID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || recordID <= 0 {
		h.respondErr(ctx, w, http.StatusBadRequest, errors.New("record id must be a positive integer"))
		return
	}

	preview, err := h.notifier.Template(ctx, vocabulary.Kind(chi.URLParam(r, "kind")), recordID, businessID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, preview)
	case errors.Is(err, vocabulary.ErrUnknownKind), errors.Is(err, record.ErrNotFound), errors.Is(err, business.ErrNotFound):
		h.respondErr(ctx, w, http.StatusNotFound, err)
	default:
		span.RecordError(err)
		logger := common.WithContext(ctx, h.logger)
		logger.Error().Err(err).Msg("template preview failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "msg": notify.MsgFailed})
	}
}

func (h *Handler) respondErr(ctx context.Context, w http.ResponseWriter, status int, err error) {
	logger := common.WithContext(ctx, h.logger)
	logger.Warn().Err(err).Int("status", status).Msg("notification request rejected")
	writeJSON(w, status, map[string]any{"success": false, "msg": err.Error()})
}

func businessFrom(r *http.Request) (int64, error) {
	raw := r.Header.Get(businessHeader)
	if raw == "" {
		return 0, errors.New("missing x-business-id header")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("x-business-id must be a positive integer")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
