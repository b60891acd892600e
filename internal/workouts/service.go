package workouts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymlog/internal/telemetry/tracing"
	"github.com/2beens/gymlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=workouts_test

type workoutsRepo interface {
	SaveWorkout(ctx context.Context, owner Owner, date string, exercises []Exercise) (int, error)
	DeleteWorkout(ctx context.Context, owner Owner, date string) error
	ListByOwner(ctx context.Context, owner Owner) ([]Workout, error)
}

type Service struct {
	repo workoutsRepo
}

func NewService(repo workoutsRepo) *Service {
	return &Service{
		repo: repo,
	}
}

// SaveWorkout validates the payload and appends its exercises to the owner's
// workout on that date, creating the workout when needed. One bad entry
// rejects the whole payload. The stored date is the zero padded DD/MM/YYYY form.
func (s *Service) SaveWorkout(ctx context.Context, owner Owner, req SaveWorkoutRequest) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !owner.IsSet() {
		return -1, pkg.ErrUnauthorized
	}

	date, exercises, err := validateSaveRequest(req)
	if err != nil {
		return -1, err
	}

	span.SetAttributes(
		attribute.String("workout.date", date),
		attribute.Int("workout.exercises", len(exercises)),
	)

	id, err := s.repo.SaveWorkout(ctx, owner, date, exercises)
	if err != nil {
		return -1, fmt.Errorf("save workout: %w", err)
	}

	return id, nil
}

func validateSaveRequest(req SaveWorkoutRequest) (string, []Exercise, error) {
	if strings.TrimSpace(req.Date) == "" {
		return "", nil, pkg.NewValidationError("date", "Invalid data: date is required")
	}
	date, err := NormalizeDate(strings.TrimSpace(req.Date))
	if err != nil {
		return "", nil, pkg.NewValidationError("date", "Invalid data: date must be DD/MM/YYYY")
	}

	if len(req.Exercises) == 0 {
		return "", nil, pkg.NewValidationError("exercises", "Invalid data: at least one exercise is required")
	}

	exercises := make([]Exercise, 0, len(req.Exercises))
	for i, e := range req.Exercises {
		e.Name = strings.TrimSpace(e.Name)
		missing := ""
		switch {
		case e.Name == "":
			missing = "name"
		case e.Sets.IsEmpty():
			missing = "sets"
		case e.Reps.IsEmpty():
			missing = "reps"
		case e.Weight.IsEmpty():
			missing = "weight"
		}
		if missing != "" {
			field := fmt.Sprintf("exercises[%d].%s", i, missing)
			return "", nil, pkg.NewValidationError(field, fmt.Sprintf("Invalid data: %s is required", field))
		}
		exercises = append(exercises, Exercise{
			Name:   e.Name,
			Sets:   e.Sets,
			Reps:   e.Reps,
			Weight: e.Weight,
		})
	}

	return date, exercises, nil
}

// DeleteWorkout removes the owner's workout on date with all its exercises.
// Deleting a date with no workout is not an error.
func (s *Service) DeleteWorkout(ctx context.Context, owner Owner, date string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !owner.IsSet() {
		return pkg.ErrUnauthorized
	}

	date = strings.TrimSpace(date)
	if date == "" {
		return pkg.NewValidationError("date", "Date required")
	}
	// rows saved through SaveWorkout are normalized, older ones are matched verbatim
	if normalized, err := NormalizeDate(date); err == nil {
		date = normalized
	}

	if err := s.repo.DeleteWorkout(ctx, owner, date); err != nil {
		if errors.Is(err, ErrWorkoutNotFound) {
			return nil
		}
		return fmt.Errorf("delete workout: %w", err)
	}

	return nil
}

// ListWorkouts returns the owner's workouts, newest date first.
func (s *Service) ListWorkouts(ctx context.Context, owner Owner) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !owner.IsSet() {
		return nil, pkg.ErrUnauthorized
	}

	workouts, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	if workouts == nil {
		workouts = []Workout{}
	}

	SortByDateDesc(workouts)

	return workouts, nil
}

// RecentExercises returns the latest entry of each distinct exercise name of
// the owner. limit <= 0 means DefaultRecentLimit.
func (s *Service) RecentExercises(ctx context.Context, owner Owner, limit int) (_ []Exercise, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.workouts.recent")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	workouts, err := s.ListWorkouts(ctx, owner)
	if err != nil {
		return nil, err
	}

	return RecentFrom(workouts, limit), nil
}
