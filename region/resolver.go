// Package region resolves which administrative region an actor is
// responsible for. The workflow consumes this as an external directory
// lookup; results are never cached across requests.
package region

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sidesa/models"
)

// ErrNotFound is returned when the directory has no region for the actor.
var ErrNotFound = errors.New("region: actor not found in directory")

// Resolver resolves an actor's administrative region.
type Resolver interface {
	ResolveRegion(ctx context.Context, actor models.Actor) (string, error)
}

// DirectoryResolver looks regions up in the account directory tables. The
// table is picked per role by models.StorageNamespace: officials live in
// village_officials, everyone else in citizens.
type DirectoryResolver struct {
	db *sql.DB
}

// NewDirectoryResolver creates a directory-backed resolver.
func NewDirectoryResolver(db *sql.DB) *DirectoryResolver {
	return &DirectoryResolver{db: db}
}

// ResolveRegion returns the region recorded for the actor in the directory.
func (r *DirectoryResolver) ResolveRegion(ctx context.Context, actor models.Actor) (string, error) {
	table := models.StorageNamespace(actor.Role)
	query := fmt.Sprintf(`SELECT region FROM %s WHERE user_id = ?`, table)

	var region string
	err := r.db.QueryRowContext(ctx, query, actor.ID).Scan(&region)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("region lookup for actor %d in %s: %w", actor.ID, table, err)
	}
	return region, nil
}

// StaticResolver maps actor IDs to fixed regions. Useful for tests and for
// deployments where the directory is provisioned at startup.
type StaticResolver struct {
	regions map[int64]string
}

// NewStaticResolver creates a resolver over a fixed actor -> region map.
func NewStaticResolver(regions map[int64]string) *StaticResolver {
	return &StaticResolver{regions: regions}
}

// ResolveRegion returns the configured region for the actor.
func (r *StaticResolver) ResolveRegion(_ context.Context, actor models.Actor) (string, error) {
	region, ok := r.regions[actor.ID]
	if !ok {
		return "", ErrNotFound
	}
	return region, nil
}
