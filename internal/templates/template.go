package templates

import (
	"time"

	"github.com/google/uuid"

	"github.com/2beens/gymlog/internal/workouts"
)

// Template is a reusable exercise preset, not tied to any workout.
type Template struct {
	ID        uuid.UUID       `json:"id"`
	Owner     workouts.Owner  `json:"userId"`
	Name      string          `json:"name"`
	Sets      workouts.Amount `json:"sets"`
	Reps      workouts.Amount `json:"reps"`
	Weight    workouts.Amount `json:"weight"`
	CreatedAt time.Time       `json:"createdAt"`
}

type SaveTemplateRequest struct {
	Name   string          `json:"name"`
	Sets   workouts.Amount `json:"sets"`
	Reps   workouts.Amount `json:"reps"`
	Weight workouts.Amount `json:"weight"`
}

type SaveTemplateResponse struct {
	Success  bool      `json:"success"`
	Template *Template `json:"template"`
}
