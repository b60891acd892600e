package legacy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/2beens/gymlog/internal/users"
	"github.com/2beens/gymlog/internal/workouts"
)

type unownedClaimer interface {
	ClaimUnowned(ctx context.Context, userID uuid.UUID) (int64, error)
}

type userFinder interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

// ResolveOwner maps an email to an owner. An empty email means no owner.
func ResolveOwner(ctx context.Context, finder userFinder, email string) (workouts.Owner, error) {
	email = users.NormalizeEmail(email)
	if email == "" {
		return workouts.NoOwner(), nil
	}

	user, err := finder.GetByEmail(ctx, email)
	if err != nil {
		return workouts.Owner{}, fmt.Errorf("find user %s: %w", email, err)
	}

	return workouts.OwnedBy(user.ID), nil
}

type ClaimResult struct {
	Workouts  int64
	Templates int64
}

// ClaimAll hands every unowned workout and template to the user with email.
func ClaimAll(
	ctx context.Context,
	finder userFinder,
	workoutsClaimer unownedClaimer,
	templatesClaimer unownedClaimer,
	email string,
) (ClaimResult, error) {
	if strings.TrimSpace(email) == "" {
		return ClaimResult{}, errors.New("email is required")
	}

	owner, err := ResolveOwner(ctx, finder, email)
	if err != nil {
		return ClaimResult{}, err
	}
	userID, _ := owner.UserID()

	var result ClaimResult
	if result.Workouts, err = workoutsClaimer.ClaimUnowned(ctx, userID); err != nil {
		return result, fmt.Errorf("claim workouts: %w", err)
	}
	if result.Templates, err = templatesClaimer.ClaimUnowned(ctx, userID); err != nil {
		return result, fmt.Errorf("claim templates: %w", err)
	}

	return result, nil
}
