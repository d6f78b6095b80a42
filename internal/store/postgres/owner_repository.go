package postgres

import (
	"context"
	"fmt"

	"github.com/opentrusty/taskboard/internal/authz"
	"github.com/opentrusty/taskboard/internal/id"
	"github.com/opentrusty/taskboard/pkg/rbac"
)

// OwnerRepository implements authz.OwnerLookup
type OwnerRepository struct {
	db *DB
}

// NewOwnerRepository creates a new owner lookup
func NewOwnerRepository(db *DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// FindOwner returns the owner of a resource. A task is owned by the owner
// of its project, resolved in one join.
func (r *OwnerRepository) FindOwner(ctx context.Context, resource rbac.ResourceType, resourceID string) (string, error) {
	if !id.Valid(resourceID) {
		return "", authz.ErrResourceNotFound
	}

	var query string
	switch resource {
	case rbac.ResourceProject:
		query = `SELECT owner_id FROM projects WHERE id = $1`
	case rbac.ResourceTask:
		query = `SELECT p.owner_id FROM tasks t JOIN projects p ON t.project_id = p.id WHERE t.id = $1`
	case rbac.ResourceUser:
		query = `SELECT id FROM users WHERE id = $1`
	default:
		return "", fmt.Errorf("%w: %s", rbac.ErrUnknownResource, resource)
	}

	var ownerID string
	if err := r.db.pool.QueryRow(ctx, query, resourceID).Scan(&ownerID); err != nil {
		if isNoRows(err) {
			return "", authz.ErrResourceNotFound
		}
		return "", fmt.Errorf("failed to find owner: %w", err)
	}
	return ownerID, nil
}
