package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/opentrusty/taskboard/pkg/rbac"
)

// Domain errors
var (
	ErrUnauthenticated  = errors.New("not authenticated")
	ErrPermissionDenied = errors.New("insufficient permissions")
	ErrResourceNotFound = errors.New("resource not found")

	// ErrUnmappedAction is a denial caused by a missing rule rather than a
	// missing grant. It matches ErrPermissionDenied under errors.Is.
	ErrUnmappedAction = fmt.Errorf("%w: no rule for action", ErrPermissionDenied)
)

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID string
	Role   rbac.Role
}

// Authenticated reports whether the principal carries an identity.
func (p Principal) Authenticated() bool {
	return p.UserID != ""
}

// OwnerLookup resolves the owning principal of a resource.
// Implementations return ErrResourceNotFound when the resource is absent.
type OwnerLookup interface {
	// FindOwner returns the owner's principal ID. For tasks this is the
	// owner of the parent project; for users it is the user itself.
	FindOwner(ctx context.Context, resource rbac.ResourceType, resourceID string) (string, error)
}
