package workouts

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/gymlog/internal/auth"
	"github.com/2beens/gymlog/internal/telemetry/metrics"
	"github.com/2beens/gymlog/internal/telemetry/tracing"
	"github.com/2beens/gymlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=workouts_test

const maxRecentLimit = 50

type workoutsService interface {
	SaveWorkout(ctx context.Context, owner Owner, req SaveWorkoutRequest) (int, error)
	DeleteWorkout(ctx context.Context, owner Owner, date string) error
	ListWorkouts(ctx context.Context, owner Owner) ([]Workout, error)
	RecentExercises(ctx context.Context, owner Owner, limit int) ([]Exercise, error)
}

type Handler struct {
	service workoutsService
	metrics *metrics.Manager
}

func NewHandler(service workoutsService, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		service: service,
		metrics: metricsManager,
	}
}

func (h *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/workouts", h.HandleList).Methods("GET", "OPTIONS").Name("workouts-list")
	router.HandleFunc("/workouts", h.HandleSave).Methods("POST", "OPTIONS").Name("workouts-save")
	router.HandleFunc("/workouts", h.HandleDelete).Methods("DELETE", "OPTIONS").Name("workouts-delete")
	router.HandleFunc("/workouts/recent", h.HandleRecent).Methods("GET", "OPTIONS").Name("workouts-recent")
}

// ownerFromRequest reads the user put in the context by the auth middleware.
func ownerFromRequest(w http.ResponseWriter, r *http.Request) (Owner, bool) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return Owner{}, false
	}
	return OwnedBy(userID), true
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	workouts, err := h.service.ListWorkouts(ctx, owner)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "list workouts", err, "Failed to read workouts")
		return
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))
	pkg.WriteJSON(w, http.StatusOK, workouts)
}

func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.save")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	var req SaveWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Tracef("save workout, unmarshal json: %s", err)
		span.SetStatus(codes.Error, "invalid-body")
		pkg.WriteError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	workoutID, err := h.service.SaveWorkout(ctx, owner, req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "save workout", err, "Failed to save workout")
		return
	}

	h.metrics.CounterWorkoutsSaved.Inc()
	h.metrics.CounterExercisesAppended.Add(float64(len(req.Exercises)))
	span.SetAttributes(attribute.Int("workout.id", workoutID))
	log.Debugf("workout %d saved for %s, %d exercises", workoutID, owner, len(req.Exercises))

	pkg.WriteSuccess(w)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		pkg.WriteError(w, http.StatusBadRequest, "Date required")
		return
	}

	if err := h.service.DeleteWorkout(ctx, owner, date); err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "delete workout", err, "Failed to delete workout")
		return
	}

	pkg.WriteSuccess(w)
}

func (h *Handler) HandleRecent(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.recent")
	defer span.End()

	owner, ok := ownerFromRequest(w, r)
	if !ok {
		return
	}

	limit := DefaultRecentLimit
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			pkg.WriteError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(parsed, maxRecentLimit)
	}

	exercises, err := h.service.RecentExercises(ctx, owner, limit)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "recent exercises", err, "Failed to read workouts")
		return
	}

	pkg.WriteJSON(w, http.StatusOK, exercises)
}
