// @title Taskboard API
// @version 1.0.0
// @description Project and task tracker with role-based access control

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/opentrusty/taskboard/internal/audit"
	"github.com/opentrusty/taskboard/internal/authz"
	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/internal/observability/metrics"
	"github.com/opentrusty/taskboard/internal/project"
	"github.com/opentrusty/taskboard/internal/session"
	"github.com/opentrusty/taskboard/pkg/rbac"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Error codes returned in the "code" field of error bodies
const (
	CodeUnauthenticated         = "unauthenticated"
	CodeInsufficientPermissions = "insufficient_permissions"
	CodeNotFound                = "not_found"
	CodeInvalidRequest          = "invalid_request"
	CodeInvalidCredentials      = "invalid_credentials"
	CodeAccountLocked           = "account_locked"
	CodeUserExists              = "user_exists"
	CodeProviderMismatch        = "provider_mismatch"
	CodeOAuthPasswordChange     = "oauth_password_change"
	CodeInvalidRole             = "invalid_role"
	CodeRateLimited             = "rate_limited"
	CodeUnavailable             = "unavailable"
	CodeInternal                = "internal_error"
)

// HealthChecker reports backend health
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService *identity.Service
	projectService  *project.Service
	authzService    *authz.Service
	tokens          *session.TokenService
	google          GoogleSignIn
	states          StateStore
	health          HealthChecker
	auditLogger     audit.Logger
	frontendURL     string
	validate        *validator.Validate
}

// Dependencies are the collaborators of Handler. Google and States may be
// nil when Google sign-in is disabled.
type Dependencies struct {
	Identity    *identity.Service
	Projects    *project.Service
	Authz       *authz.Service
	Tokens      *session.TokenService
	Google      GoogleSignIn
	States      StateStore
	Health      HealthChecker
	// Audit defaults to structured log records
	Audit       audit.Logger
	FrontendURL string
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	auditLogger := deps.Audit
	if auditLogger == nil {
		auditLogger = audit.NewSlogLogger(nil)
	}

	return &Handler{
		identityService: deps.Identity,
		projectService:  deps.Projects,
		authzService:    deps.Authz,
		tokens:          deps.Tokens,
		google:          deps.Google,
		states:          deps.States,
		health:          deps.Health,
		auditLogger:     auditLogger,
		frontendURL:     strings.TrimRight(deps.FrontendURL, "/"),
		validate:        v,
	}
}

// RouterConfig holds router level options
type RouterConfig struct {
	Production     bool
	AuthPerMinute  int
	AllowedOrigins []string
	Metrics        *metrics.HTTPMetrics
	// Frontend is served for non-API paths when set
	Frontend fs.FS
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(SecurityHeaders(cfg.Production))
	r.Use(CORS(cfg.AllowedOrigins))
	if rateLimiter != nil {
		r.Use(RateLimitMiddleware(rateLimiter))
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/health", h.HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	authLimit := cfg.AuthPerMinute
	if authLimit <= 0 {
		authLimit = 20
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.HealthCheck)

		// Public authentication
		r.With(AuthRateLimit(authLimit)).Post("/auth/register", h.Register)
		r.With(AuthRateLimit(authLimit)).Post("/auth/login", h.Login)
		r.Get("/auth/google", h.GoogleLogin)
		r.Get("/auth/google/callback", h.GoogleCallback)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)

			r.Post("/auth/logout", h.Logout)
			r.Get("/auth/profile", h.GetProfile)
			r.Put("/auth/profile", h.UpdateProfile)
			r.With(h.RequirePermission(rbac.PermChangeOwnPassword)).Post("/auth/change-password", h.ChangePassword)
			r.Get("/auth/permissions", h.GetPermissions)
			r.With(h.RequirePermission(rbac.PermViewSettings)).Get("/settings", h.GetSettings)

			r.Route("/users", func(r chi.Router) {
				r.With(h.RequirePermission(rbac.PermViewUsers)).Get("/", h.ListUsers)
				r.With(h.RequirePermission(rbac.PermManageUsers)).Put("/{id}/role", h.UpdateUserRole)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.ListProjects)
				r.With(h.RequirePermission(rbac.PermCreateProject)).Post("/", h.CreateProject)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetProject)
					r.Put("/", h.UpdateProject)
					r.Delete("/", h.DeleteProject)

					r.Get("/tasks", h.ListTasks)
					r.With(h.RequirePermission(rbac.PermCreateTask)).Post("/tasks", h.CreateTask)
					r.Put("/tasks/{taskID}", h.UpdateTask)
					r.Delete("/tasks/{taskID}", h.DeleteTask)
				})
			})
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, http.StatusNotFound, CodeNotFound, "route not found")
		})
	})

	if cfg.Frontend != nil {
		r.Handle("/*", SPAHandler{StaticFS: cfg.Frontend})
	}

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks the service and its database
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} ErrorResponse
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Ping(ctx); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", logger.Error(err))
			respondError(w, http.StatusServiceUnavailable, CodeUnavailable, "database unavailable")
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "taskboard",
	})
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", logger.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// respondAuthzError maps an authorization failure to 401 or 403.
func respondAuthzError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, CodeUnauthenticated, "not authenticated")
	case errors.Is(err, authz.ErrPermissionDenied):
		respondError(w, http.StatusForbidden, CodeInsufficientPermissions, "insufficient permissions")
	default:
		respondError(w, http.StatusInternalServerError, CodeInternal, "authorization failed")
	}
}

// deny answers an authorization failure and records denials in the audit
// trail.
func (h *Handler) deny(w http.ResponseWriter, r *http.Request, err error, resource, resourceID string) {
	if errors.Is(err, authz.ErrPermissionDenied) {
		h.audit(r, audit.Event{
			Type:       audit.TypeAccessDenied,
			ActorID:    GetUserID(r.Context()),
			Resource:   resource,
			ResourceID: resourceID,
			Metadata:   map[string]any{"method": r.Method, "path": r.URL.Path},
		})
	}
	respondAuthzError(w, err)
}

func (h *Handler) audit(r *http.Request, event audit.Event) {
	event.IPAddress = clientIP(r)
	event.UserAgent = r.UserAgent()
	h.auditLogger.Log(r.Context(), event)
}

// respondServiceError maps domain errors to HTTP responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated), errors.Is(err, authz.ErrPermissionDenied):
		respondAuthzError(w, err)
	case errors.Is(err, project.ErrProjectNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "project not found")
	case errors.Is(err, project.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "task not found")
	case errors.Is(err, identity.ErrUserNotFound):
		respondError(w, http.StatusNotFound, CodeNotFound, "user not found")
	case errors.Is(err, project.ErrInvalidStatus),
		errors.Is(err, project.ErrNameRequired),
		errors.Is(err, project.ErrTitleRequired),
		errors.Is(err, identity.ErrInvalidEmail),
		errors.Is(err, identity.ErrWeakPassword):
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, identity.ErrUserAlreadyExists):
		respondError(w, http.StatusConflict, CodeUserExists, "user already exists")
	case errors.Is(err, identity.ErrProviderMismatch):
		respondError(w, http.StatusConflict, CodeProviderMismatch, err.Error())
	case errors.Is(err, identity.ErrOAuthPasswordChange):
		respondError(w, http.StatusBadRequest, CodeOAuthPasswordChange, err.Error())
	case errors.Is(err, identity.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, CodeInvalidCredentials, "invalid credentials")
	case errors.Is(err, identity.ErrAccountLocked):
		respondError(w, http.StatusTooManyRequests, CodeAccountLocked, "account is temporarily locked")
	case errors.Is(err, rbac.ErrUnknownRole):
		respondError(w, http.StatusBadRequest, CodeInvalidRole, "unknown role")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.Method(r.Method),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, CodeInternal, "internal server error")
	}
}

// decode reads a JSON body into dst and validates it. On failure it writes
// a 400 response and returns false.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			respondError(w, http.StatusBadRequest, CodeInvalidRequest, "invalid request body")
			return false
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:  "validation failed",
			Code:   CodeInvalidRequest,
			Fields: fields,
		})
		return false
	}
	return true
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	}
	return "is invalid"
}
