package spool

import (
	"errors"
	"fmt"
)

var (
	// ErrRaceLost means the job disappeared before it could be moved,
	// typically because another instance claimed it first.
	ErrRaceLost = errors.New("job no longer available")
	// ErrLayout marks a missing or unusable lifecycle directory.
	ErrLayout = errors.New("spool layout error")
	// ErrNameCollision means the destination name is already taken.
	ErrNameCollision = errors.New("destination name already exists")
)

func wrap(marker error, op, detail string, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %s: %w", marker, op, detail, err)
	}
	return fmt.Errorf("%w: %s: %s", marker, op, detail)
}
