package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate marks a unique-constraint violation. Multi-writer races
// that slip past the application-level existence checks land here, so
// services can map them to a conflict outcome instead of an internal
// failure.
var ErrDuplicate = errors.New("duplicate key")

const uniqueViolation = "23505"

func translateUnique(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
