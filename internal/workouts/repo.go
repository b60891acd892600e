package workouts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymlog/internal/telemetry/tracing"
)

var ErrWorkoutNotFound = errors.New("workout not found")

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// ownerFilter matches rows of the given owner, or unowned rows when the owner is not set.
func ownerFilter(column string, owner Owner) squirrel.Sqlizer {
	if userID, ok := owner.UserID(); ok {
		return squirrel.Eq{column: userID}
	}
	return squirrel.Eq{column: nil}
}

// SaveWorkout finds or creates the workout of owner on date and appends the
// exercises to it, all in one transaction. Two concurrent saves for the same
// (owner, date) end up in a single workout row.
func (r *Repo) SaveWorkout(ctx context.Context, owner Owner, date string, exercises []Exercise) (_ int, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return -1, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	var workoutID int
	if owner.IsSet() {
		workoutID, err = upsertOwnedWorkout(ctx, tx, owner, date)
	} else {
		workoutID, err = findOrCreateUnownedWorkout(ctx, tx, date)
	}
	if err != nil {
		return -1, err
	}

	if len(exercises) > 0 {
		// a single multi row insert keeps the id order equal to the payload order
		insert := psql.Insert("exercises").Columns("workout_id", "name", "sets", "reps", "weight")
		for _, e := range exercises {
			insert = insert.Values(workoutID, e.Name, string(e.Sets), string(e.Reps), string(e.Weight))
		}
		query, args, err := insert.ToSql()
		if err != nil {
			return -1, fmt.Errorf("build exercises insert: %w", err)
		}
		if _, err = tx.Exec(ctx, query, args...); err != nil {
			return -1, fmt.Errorf("insert exercises: %w", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return -1, fmt.Errorf("commit: %w", err)
	}

	span.SetAttributes(
		attribute.Int("workout.id", workoutID),
		attribute.Int("workout.exercises", len(exercises)),
	)

	return workoutID, nil
}

func upsertOwnedWorkout(ctx context.Context, tx pgx.Tx, owner Owner, date string) (int, error) {
	query, args, err := psql.
		Insert("workouts").
		Columns("user_id", "date").
		Values(owner.NullUUID(), date).
		// no-op update so RETURNING yields the existing row as well
		Suffix("ON CONFLICT (user_id, date) DO UPDATE SET date = EXCLUDED.date RETURNING id").
		ToSql()
	if err != nil {
		return -1, fmt.Errorf("build workout upsert: %w", err)
	}

	var id int
	if err := tx.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return -1, fmt.Errorf("upsert workout: %w", err)
	}
	return id, nil
}

// NULL never conflicts in the unique index, so unowned rows are looked up first.
func findOrCreateUnownedWorkout(ctx context.Context, tx pgx.Tx, date string) (int, error) {
	var id int
	err := tx.QueryRow(
		ctx,
		`SELECT id FROM workouts WHERE user_id IS NULL AND date = $1 ORDER BY id LIMIT 1 FOR UPDATE;`,
		date,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return -1, fmt.Errorf("select unowned workout: %w", err)
	}

	if err := tx.QueryRow(
		ctx,
		`INSERT INTO workouts (user_id, date) VALUES (NULL, $1) RETURNING id;`,
		date,
	).Scan(&id); err != nil {
		return -1, fmt.Errorf("insert unowned workout: %w", err)
	}
	return id, nil
}

// DeleteWorkout removes the workout of owner on date together with its
// exercises. It returns ErrWorkoutNotFound when there was nothing to delete.
func (r *Repo) DeleteWorkout(ctx context.Context, owner Owner, date string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query, args, err := psql.
		Delete("workouts").
		Where(ownerFilter("user_id", owner)).
		Where(squirrel.Eq{"date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build workout delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrWorkoutNotFound
	}

	return nil
}

// ListByOwner returns the workouts of owner with their exercises in insertion
// order. Workouts come newest row first, callers sort them by date.
func (r *Repo) ListByOwner(ctx context.Context, owner Owner) (_ []Workout, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.listByOwner")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query, args, err := psql.
		Select(
			"w.id", "w.user_id", "w.date", "w.created_at",
			"e.id", "e.name", "e.sets", "e.reps", "e.weight",
		).
		From("workouts w").
		LeftJoin("exercises e ON e.workout_id = w.id").
		Where(ownerFilter("w.user_id", owner)).
		OrderBy("w.id DESC", "e.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build workouts select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select workouts: %w", err)
	}
	defer rows.Close()

	var workouts []Workout
	for rows.Next() {
		var (
			workoutID  int
			userID     uuid.NullUUID
			date       string
			createdAt  time.Time
			exerciseID *int
			name       *string
			sets       *string
			reps       *string
			weight     *string
		)
		if err := rows.Scan(
			&workoutID, &userID, &date, &createdAt,
			&exerciseID, &name, &sets, &reps, &weight,
		); err != nil {
			return nil, fmt.Errorf("scan workout row: %w", err)
		}

		if len(workouts) == 0 || workouts[len(workouts)-1].ID != workoutID {
			workouts = append(workouts, Workout{
				ID:        workoutID,
				Owner:     Owner{id: userID},
				Date:      date,
				CreatedAt: createdAt,
				Exercises: []Exercise{},
			})
		}

		// left join yields a single NULL exercise row for an empty workout
		if exerciseID == nil {
			continue
		}
		w := &workouts[len(workouts)-1]
		w.Exercises = append(w.Exercises, Exercise{
			ID:        *exerciseID,
			WorkoutID: workoutID,
			Name:      *name,
			Sets:      Amount(*sets),
			Reps:      Amount(*reps),
			Weight:    Amount(*weight),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workout rows: %w", err)
	}

	span.SetAttributes(attribute.Int("workouts.count", len(workouts)))

	return workouts, nil
}

// ClaimUnowned hands every unowned workout to userID. Unowned workouts on a
// date the user already has are merged into the user's workout, as are
// unowned duplicates of one date. Returns the number of workouts that were
// claimed or merged.
func (r *Repo) ClaimUnowned(ctx context.Context, userID uuid.UUID) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.workouts.claimUnowned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	steps := []struct {
		name     string
		query    string
		withUser bool
		counted  bool
	}{
		{
			name: "collapse unowned duplicates",
			query: `UPDATE exercises e SET workout_id = keep.id
				FROM workouts w
				JOIN (SELECT date, min(id) AS id FROM workouts WHERE user_id IS NULL GROUP BY date) keep
					ON keep.date = w.date
				WHERE e.workout_id = w.id AND w.user_id IS NULL AND w.id <> keep.id;`,
		},
		{
			name: "delete unowned duplicates",
			query: `DELETE FROM workouts w
				USING (SELECT date, min(id) AS id FROM workouts WHERE user_id IS NULL GROUP BY date) keep
				WHERE w.user_id IS NULL AND w.date = keep.date AND w.id <> keep.id;`,
		},
		{
			name: "merge into owned workouts",
			query: `UPDATE exercises e SET workout_id = owned.id
				FROM workouts unowned
				JOIN workouts owned ON owned.date = unowned.date AND owned.user_id = $1
				WHERE e.workout_id = unowned.id AND unowned.user_id IS NULL;`,
			withUser: true,
		},
		{
			name: "delete merged workouts",
			query: `DELETE FROM workouts unowned
				USING workouts owned
				WHERE unowned.user_id IS NULL AND owned.user_id = $1 AND owned.date = unowned.date;`,
			withUser: true,
			counted:  true,
		},
		{
			name:     "claim workouts",
			query:    `UPDATE workouts SET user_id = $1 WHERE user_id IS NULL;`,
			withUser: true,
			counted:  true,
		},
	}

	var affected int64
	for _, step := range steps {
		var args []any
		if step.withUser {
			args = append(args, userID)
		}
		tag, err := tx.Exec(ctx, step.query, args...)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", step.name, err)
		}
		if step.counted {
			affected += tag.RowsAffected()
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	span.SetAttributes(attribute.Int64("workouts.claimed", affected))

	return affected, nil
}
