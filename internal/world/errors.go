package world

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID     = errors.New("doId already registered")
	ErrUnsupportedView = errors.New("owner view not enabled")
	ErrIndexResidue    = errors.New("hierarchy not empty after teardown")
	ErrNotRegistered   = errors.New("object is not the registered instance for its doId")
)

// DuplicateIDError reports two instances claiming one id. The newer
// instance has already replaced the older one when this is returned.
type DuplicateIDError struct {
	ID    DoID
	View  View
	New   Object
	Older Object
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("doId %d already in %s [%s stomping %s]",
		e.ID, e.View, e.New.ClassName(), e.Older.ClassName())
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }
