package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/internal/observability/metrics"
	"github.com/opentrusty/taskboard/pkg/rbac"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Service is the single entry point enforcement code uses to authorize
// requests. It adds principal checks, ownership resolution, logging and
// metrics around the pure rbac decision.
type Service struct {
	authorizer *rbac.Authorizer
	resolver   *Resolver
	decisions  metric.Int64Counter
}

// NewService creates a new authorization service
func NewService(authorizer *rbac.Authorizer, resolver *Resolver, meter *metrics.Meter) (*Service, error) {
	if meter == nil {
		meter = metrics.Noop()
	}
	decisions, err := meter.CreateCounter(metrics.AuthzDecisionsTotal, "Authorization decisions by role, action, resource and outcome")
	if err != nil {
		return nil, err
	}
	return &Service{
		authorizer: authorizer,
		resolver:   resolver,
		decisions:  decisions,
	}, nil
}

// Require checks a static permission. It is used where no resource exists
// yet, such as creation.
func (s *Service) Require(ctx context.Context, p Principal, permission rbac.Permission) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if s.authorizer.HasPermission(p.Role, permission) {
		s.record(ctx, p.Role, "require", permission.String(), rbac.ReasonGranted)
		return nil
	}

	s.record(ctx, p.Role, "require", permission.String(), rbac.ReasonInsufficientPermissions)
	slog.WarnContext(ctx, "permission denied",
		logger.UserID(p.UserID),
		logger.Role(p.Role.String()),
		logger.Permission(permission.String()),
	)
	return fmt.Errorf("%w: requires %s", ErrPermissionDenied, permission)
}

// Check resolves ownership of an existing resource and authorizes action on
// it. Callers establish that the resource exists before calling Check.
func (s *Service) Check(ctx context.Context, p Principal, action rbac.Action, resource rbac.ResourceType, resourceID string) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	isOwner := s.resolver.IsOwner(ctx, resource, resourceID, p.UserID)
	return s.authorize(ctx, p, action, resource, resourceID, isOwner)
}

// Authorize decides with an ownership flag the caller already resolved.
func (s *Service) Authorize(ctx context.Context, p Principal, action rbac.Action, resource rbac.ResourceType, isOwner bool) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	return s.authorize(ctx, p, action, resource, "", isOwner)
}

func (s *Service) authorize(ctx context.Context, p Principal, action rbac.Action, resource rbac.ResourceType, resourceID string, isOwner bool) error {
	d := s.authorizer.Decide(p.Role, action, resource, isOwner)
	s.record(ctx, p.Role, action.String(), resource.String(), d.Reason)

	switch d.Reason {
	case rbac.ReasonGranted:
		return nil
	case rbac.ReasonUnmappedAction:
		slog.ErrorContext(ctx, "no authorization rule for action; denying",
			logger.UserID(p.UserID),
			logger.Role(p.Role.String()),
			logger.Action(action.String()),
			logger.Resource(resource.String()),
		)
		return fmt.Errorf("%w: %s %s", ErrUnmappedAction, action, resource)
	default:
		slog.WarnContext(ctx, "permission denied",
			logger.UserID(p.UserID),
			logger.Role(p.Role.String()),
			logger.Action(action.String()),
			logger.Resource(resource.String()),
			logger.ResourceID(resourceID),
			logger.Permission(d.Permission.String()),
			slog.Bool("is_owner", isOwner),
		)
		return fmt.Errorf("%w: requires %s", ErrPermissionDenied, d.Permission)
	}
}

// Can reports whether the principal holds a permission, without logging or
// counting. Use it for filtering, not for guarding mutations.
func (s *Service) Can(p Principal, permission rbac.Permission) bool {
	return p.Authenticated() && s.authorizer.HasPermission(p.Role, permission)
}

// Permissions returns the principal's permission set.
func (s *Service) Permissions(p Principal) []rbac.Permission {
	return s.authorizer.PermissionsFor(p.Role)
}

// Capabilities returns the principal's capability map for client gating.
func (s *Service) Capabilities(p Principal) []rbac.Capability {
	return s.authorizer.Capabilities(p.Role)
}

func (s *Service) record(ctx context.Context, role rbac.Role, action, target string, reason rbac.Reason) {
	s.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("role", role.String()),
		attribute.String("action", action),
		attribute.String("target", target),
		attribute.String("result", string(reason)),
	))
}
