package hierarchy

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateLocation = errors.New("object already indexed at another location")
	ErrInvalidLocation   = errors.New("location is a reserved sentinel")
)

// DuplicateLocationError is returned by Store when the id is still indexed
// under a different bucket. The caller must delete the old location first.
type DuplicateLocationError struct {
	ID       DoID
	Existing Location
	Wanted   Location
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("store doId %d at %s: already indexed at %s", e.ID, e.Wanted, e.Existing)
}

func (e *DuplicateLocationError) Unwrap() error { return ErrDuplicateLocation }
