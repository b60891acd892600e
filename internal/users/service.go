package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymlog/internal/telemetry/tracing"
	"github.com/2beens/gymlog/pkg"
)

const (
	minNameLength     = 2
	minPasswordLength = 6
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

type usersRepo interface {
	Create(ctx context.Context, name, email, passwordHash string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	MarkGuideSeen(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo usersRepo
	// injectable for tests, bcrypt is slow on purpose
	HashPasswordFunc  func(password string) (string, error)
	CheckPasswordFunc func(password, hash string) bool
}

func NewService(repo usersRepo) *Service {
	return &Service{
		repo:              repo,
		HashPasswordFunc:  pkg.HashPassword,
		CheckPasswordFunc: pkg.CheckPasswordHash,
	}
}

// NormalizeEmail is applied before every store and lookup, so emails compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	// reject display name forms like "Mario <m@x.com>"
	if addr.Address != email {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	return strings.Contains(strings.Trim(domain, "."), ".")
}

func (s *Service) Register(ctx context.Context, params RegisterParams) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.register")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name := strings.TrimSpace(params.Name)
	email := NormalizeEmail(params.Email)

	if utf8.RuneCountInString(name) < minNameLength {
		return nil, pkg.NewValidationError("name", "Name must contain at least 2 characters")
	}
	if !validEmail(email) {
		return nil, pkg.NewValidationError("email", "Invalid email")
	}
	if utf8.RuneCountInString(params.Password) < minPasswordLength {
		return nil, pkg.NewValidationError("password", "Password must contain at least 6 characters")
	}
	if len(params.Password) > maxPasswordBytes {
		return nil, pkg.NewValidationError("password", "Password is too long")
	}

	passwordHash, err := s.HashPasswordFunc(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	// the unique index on email decides the race between two registrations
	user, err := s.repo.Create(ctx, name, email, passwordHash)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Debugf("users service, registered user %s", user.ID)

	return user, nil
}

// Authenticate returns the user for valid credentials. Unknown email and wrong
// password both yield (nil, nil) so callers cannot tell them apart.
func (s *Service) Authenticate(ctx context.Context, email, password string) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.authenticate")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	email = NormalizeEmail(email)
	if !validEmail(email) || utf8.RuneCountInString(password) < minPasswordLength {
		return nil, nil
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// burn the same time as a real comparison
			s.CheckPasswordFunc(password, dummyHash())
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if !s.CheckPasswordFunc(password, user.PasswordHash) {
		return nil, nil
	}

	return user, nil
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (_ *User, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// session outlived its user
			return nil, fmt.Errorf("%w: %w", pkg.ErrUnauthorized, err)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

func (s *Service) MarkGuideSeen(ctx context.Context, userID uuid.UUID) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "service.users.markGuideSeen")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := s.repo.MarkGuideSeen(ctx, userID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("%w: %w", pkg.ErrUnauthorized, err)
		}
		return fmt.Errorf("mark guide seen: %w", err)
	}
	return nil
}

var dummyHash = sync.OnceValue(func() string {
	hash, err := pkg.HashPassword("not-a-real-password")
	if err != nil {
		log.Errorf("users service, generate dummy hash: %s", err)
	}
	return hash
})
