package repository

import (
	"context"

	"clinic-orchestrator/internal/domain/entity"
)

type RoleRepository interface {
	FindByName(ctx context.Context, name string) (*entity.Role, error)
	// EnsureDefaults inserts the built-in roles that are missing.
	EnsureDefaults(ctx context.Context) error
}
