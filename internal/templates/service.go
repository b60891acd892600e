package templates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymlog/internal/telemetry/tracing"
	"github.com/2beens/gymlog/internal/workouts"
	"github.com/2beens/gymlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=service_mocks_test.go -package=templates_test

type templatesRepo interface {
	List(ctx context.Context, owner workouts.Owner) ([]Template, error)
	Create(ctx context.Context, owner workouts.Owner, req SaveTemplateRequest) (*Template, error)
	Delete(ctx context.Context, owner workouts.Owner, id uuid.UUID) (int64, error)
}

type Service struct {
	repo templatesRepo
}

func NewService(repo templatesRepo) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) ListTemplates(ctx context.Context, owner workouts.Owner) (_ []Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.templates.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !owner.IsSet() {
		return nil, pkg.ErrUnauthorized
	}

	templates, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if templates == nil {
		templates = []Template{}
	}

	return templates, nil
}

func (s *Service) SaveTemplate(ctx context.Context, owner workouts.Owner, req SaveTemplateRequest) (_ *Template, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.templates.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !owner.IsSet() {
		return nil, pkg.ErrUnauthorized
	}

	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return nil, pkg.NewValidationError("name", "Invalid data: name is required")
	case req.Sets.IsEmpty():
		return nil, pkg.NewValidationError("sets", "Invalid data: sets is required")
	case req.Reps.IsEmpty():
		return nil, pkg.NewValidationError("reps", "Invalid data: reps is required")
	case req.Weight.IsEmpty():
		return nil, pkg.NewValidationError("weight", "Invalid data: weight is required")
	}

	t, err := s.repo.Create(ctx, owner, req)
	if err != nil {
		return nil, fmt.Errorf("save template: %w", err)
	}

	return t, nil
}

// DeleteTemplate deletes the template when it belongs to owner. Unknown ids,
// malformed ids and other owners' templates all end in a silent success.
func (s *Service) DeleteTemplate(ctx context.Context, owner workouts.Owner, id string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.templates.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if !owner.IsSet() {
		return pkg.ErrUnauthorized
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return pkg.NewValidationError("id", "ID required")
	}

	templateID, err := uuid.Parse(id)
	if err != nil {
		// no template can carry this id
		log.Tracef("delete template, malformed id [%s]: %s", id, err)
		return nil
	}

	deleted, err := s.repo.Delete(ctx, owner, templateID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if deleted == 0 {
		log.Tracef("delete template [%s] for %s: nothing deleted", templateID, owner)
	}

	return nil
}
