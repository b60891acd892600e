package templates

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"

	"github.com/2beens/gymlog/internal/telemetry/tracing"
	"github.com/2beens/gymlog/internal/workouts"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var templateColumns = []string{"id", "user_id", "name", "sets", "reps", "weight", "created_at"}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func ownerFilter(owner workouts.Owner) squirrel.Sqlizer {
	if userID, ok := owner.UserID(); ok {
		return squirrel.Eq{"user_id": userID}
	}
	return squirrel.Eq{"user_id": nil}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*Template, error) {
	var (
		t      Template
		userID uuid.NullUUID
		sets   string
		reps   string
		weight string
	)
	if err := row.Scan(&t.ID, &userID, &t.Name, &sets, &reps, &weight, &t.CreatedAt); err != nil {
		return nil, err
	}
	if userID.Valid {
		t.Owner = workouts.OwnedBy(userID.UUID)
	}
	t.Sets = workouts.Amount(sets)
	t.Reps = workouts.Amount(reps)
	t.Weight = workouts.Amount(weight)
	return &t, nil
}

// List returns the owner's templates, most recently created first.
func (r *Repo) List(ctx context.Context, owner workouts.Owner) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query, args, err := psql.
		Select(templateColumns...).
		From("templates").
		Where(ownerFilter(owner)).
		OrderBy("created_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build templates select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select templates: %w", err)
	}
	defer rows.Close()

	templates := []Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate template rows: %w", err)
	}

	span.SetAttributes(attribute.Int("templates.count", len(templates)))

	return templates, nil
}

// Create stores a new template and returns it with the generated id and timestamp.
func (r *Repo) Create(ctx context.Context, owner workouts.Owner, req SaveTemplateRequest) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query, args, err := psql.
		Insert("templates").
		Columns("user_id", "name", "sets", "reps", "weight").
		Values(owner.NullUUID(), req.Name, string(req.Sets), string(req.Reps), string(req.Weight)).
		Suffix("RETURNING id, user_id, name, sets, reps, weight, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build template insert: %w", err)
	}

	t, err := scanTemplate(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}

	span.SetAttributes(attribute.String("template.id", t.ID.String()))

	return t, nil
}

// Delete removes the template only if it belongs to owner. The number of
// deleted rows is 0 for an unknown id and for someone else's template alike.
func (r *Repo) Delete(ctx context.Context, owner workouts.Owner, id uuid.UUID) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	query, args, err := psql.
		Delete("templates").
		Where(squirrel.Eq{"id": id}).
		Where(ownerFilter(owner)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build template delete: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("delete template: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ClaimUnowned assigns every unowned template to userID.
func (r *Repo) ClaimUnowned(ctx context.Context, userID uuid.UUID) (_ int64, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.templates.claimUnowned")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `UPDATE templates SET user_id = $1 WHERE user_id IS NULL;`, userID)
	if err != nil {
		return 0, fmt.Errorf("claim templates: %w", err)
	}

	span.SetAttributes(attribute.Int64("templates.claimed", tag.RowsAffected()))

	return tag.RowsAffected(), nil
}
