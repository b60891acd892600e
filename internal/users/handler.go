package users

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/gymlog/internal/auth"
	"github.com/2beens/gymlog/internal/middleware"
	"github.com/2beens/gymlog/internal/telemetry/metrics"
	"github.com/2beens/gymlog/internal/telemetry/tracing"
	"github.com/2beens/gymlog/pkg"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=users_test

const (
	invalidCredentialsMsg = "Invalid email or password"
	// where browser form logins land after a failed attempt
	loginFailedRedirect = "/login?error=CredentialsSignin"
)

type usersService interface {
	Register(ctx context.Context, params RegisterParams) (*User, error)
	Authenticate(ctx context.Context, email, password string) (*User, error)
	Get(ctx context.Context, userID uuid.UUID) (*User, error)
	MarkGuideSeen(ctx context.Context, userID uuid.UUID) error
}

type sessionManager interface {
	Login(ctx context.Context, userID uuid.UUID, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) error
}

type cookieStore interface {
	SaveToken(w http.ResponseWriter, r *http.Request, token string) error
	Clear(w http.ResponseWriter, r *http.Request) error
	TokenFromRequest(r *http.Request) string
}

type Handler struct {
	service  usersService
	sessions sessionManager
	cookies  cookieStore
	metrics  *metrics.Manager
}

func NewHandler(
	service usersService,
	sessions sessionManager,
	cookies cookieStore,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		service:  service,
		sessions: sessions,
		cookies:  cookies,
		metrics:  metricsManager,
	}
}

func (h *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
) {
	authRouter := mainRouter.PathPrefix("/auth").Subrouter()
	authRouter.HandleFunc("/register", h.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	authRouter.HandleFunc("/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	authRouter.HandleFunc("/logout", h.HandleLogout).Methods("POST", "OPTIONS").Name("logout")
	// per client IP, shared by all auth endpoints
	authRouter.Use(middleware.RateLimit(rateLimiter, "auth", allowedPerMin, h.metrics))

	mainRouter.HandleFunc("/users/me", h.HandleMe).Methods("GET", "OPTIONS").Name("users-me")
	mainRouter.HandleFunc("/users/guide", h.HandleGuideSeen).Methods("POST", "OPTIONS").Name("users-guide")
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.register")
	defer span.End()

	var params RegisterParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("register, unmarshal json params: %s", err)
		pkg.WriteError(w, http.StatusBadRequest, "Invalid request body")
		span.SetStatus(codes.Error, "invalid-body")
		return
	}

	user, err := h.service.Register(ctx, params)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "register", err, "Failed to register user")
		return
	}

	h.metrics.CounterRegistrations.Inc()
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	pkg.WriteSuccess(w)
}

// HandleLogin accepts a JSON body or a submitted form. JSON clients get a 401 on
// bad credentials, form posts are redirected back to the login page.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.login")
	defer span.End()

	isJSON := strings.HasPrefix(r.Header.Get("Content-Type"), pkg.ContentType.JSON)

	var loginReq LoginRequest
	if isJSON {
		if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
			log.Tracef("login, unmarshal json params: %s", err)
			pkg.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Tracef("login, parse form: %s", err)
			pkg.WriteError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		loginReq = LoginRequest{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	user, err := h.service.Authenticate(ctx, loginReq.Email, loginReq.Password)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "login", err, "Login failed")
		return
	}

	if user == nil {
		h.metrics.CounterLogins.WithLabelValues(metrics.LoginResultFailure).Inc()
		span.SetStatus(codes.Error, "invalid-credentials")
		log.Tracef("failed login attempt for: %s", loginReq.Email)
		if isJSON {
			pkg.WriteError(w, http.StatusUnauthorized, invalidCredentialsMsg)
			return
		}
		http.Redirect(w, r, loginFailedRedirect, http.StatusSeeOther)
		return
	}

	token, err := h.sessions.Login(ctx, user.ID, time.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "login, open session", err, "Login failed")
		return
	}

	if err := h.cookies.SaveToken(w, r, token); err != nil {
		log.Errorf("login, save session cookie: %s", err)
	}

	h.metrics.CounterLogins.WithLabelValues(metrics.LoginResultSuccess).Inc()
	span.SetAttributes(attribute.String("user.id", user.ID.String()))
	pkg.WriteJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.logout")
	defer span.End()

	if token := h.cookies.TokenFromRequest(r); token != "" {
		if err := h.sessions.Logout(ctx, token); err != nil {
			span.SetStatus(codes.Error, err.Error())
			pkg.WriteErrorResponse(w, "logout", err, "Logout failed")
			return
		}
	}

	if err := h.cookies.Clear(w, r); err != nil {
		log.Errorf("logout, clear session cookie: %s", err)
	}

	pkg.WriteSuccess(w)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.me")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.service.Get(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "get current user", err, "Failed to get user")
		return
	}

	pkg.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleGuideSeen(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.users.guide")
	defer span.End()

	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		pkg.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := h.service.MarkGuideSeen(ctx, userID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		pkg.WriteErrorResponse(w, "mark guide seen", err, "Failed to update status")
		return
	}

	pkg.WriteSuccess(w)
}
