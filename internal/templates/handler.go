package templates

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/gymlog/internal/auth"
	"github.com/2beens/gymlog/internal/telemetry/metrics"
	"github.com/2beens/gymlog/internal/telemetry/tracing"
	"github.com/2beens/gymlog/internal/workouts"
	"github.com/2beens/gymlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=templates_test

type templatesService interface {
	ListTemplates(ctx context.Context, owner workouts.Owner) ([]Template, error)
	SaveTemplate(ctx context.Context, owner workouts.Owner, req SaveTemplateRequest) (*Template, error)
	DeleteTemplate(ctx context.Context, owner workouts.Owner, id string) error
}

type Handler struct {
	service templatesService
	metrics *metrics.Manager
}

func NewHandler(service templatesService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/templates", h.HandleList).Methods("GET", "OPTIONS").Name("templates-list")
	router.HandleFunc("/templates", h.HandleSave).Methods("POST", "OPTIONS").Name("templates-save")
	router.HandleFunc("/templates", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("templates-delete")
}

func ownerFromRequest(w http.ResponseWriter, r *http.Request) (workouts.Owner, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return workouts.Owner{}, false
	}
	return workouts.OwnedBy(userID), true
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.list")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	templates, err := h.service.ListTemplates(ctx, owner)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "list templates", err, "Failed to read templates")
		return
	}

	pkg.WriteJSON(w, http.StatusOK, templates)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.save")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	var req SaveTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("save template, unmarshal json: %s", err)
		span.SetStatus(codes.Error, "invalid-body")
		pkg.WriteError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	template, err := h.service.SaveTemplate(ctx, owner, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "save template", err, "Failed to save template")
		return
	}

	h.metrics.CounterTemplatesSaved.Inc()
	span.SetAttributes(attribute.String("template.id", template.ID.String()))

	pkg.WriteJSON(w, http.StatusOK, SaveTemplateResponse{
		Success:  true,
		Template: template,
	})
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.templates.delete")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		pkg.WriteError(w, http.StatusBadRequest, "ID required")
		return
	}

	if err := h.service.DeleteTemplate(ctx, owner, id); err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "delete template", err, "Failed to delete template")
		return
	}

	pkg.WriteSuccess(w)
}
