package repository

import "errors"

var (
	// ErrStaleState is returned when a conditional update matched no row because
	// the record left the expected state between read and write.
	ErrStaleState = errors.New("record state changed concurrently")

	// ErrSlotTaken is returned when an active appointment already overlaps the requested range.
	ErrSlotTaken = errors.New("slot already occupied")

	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)
