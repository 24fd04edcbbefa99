package repository

import (
	"errors"

	domainRepo "clinic-orchestrator/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// translateError maps Postgres constraint violations onto repository sentinels.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgExclusionViolation:
		return domainRepo.ErrSlotTaken
	case pgUniqueViolation:
		return domainRepo.ErrDuplicate
	}
	return err
}
