package event

import "github.com/l1jgo/doregistry/internal/core/hierarchy"

// ObjectLocation is a decoded location update: the object moved to a new
// (parent, zone). An invalid location detaches it.
type ObjectLocation struct {
	DoID     hierarchy.DoID
	Location hierarchy.Location
}

// ObjectGenerate announces a new object. Class selects the local
// implementation; OwnerView places it in the owner-view table.
type ObjectGenerate struct {
	DoID      hierarchy.DoID
	Class     string
	Name      string
	Location  hierarchy.Location
	OwnerView bool
}

// ObjectDelete removes an object from the authoritative table.
type ObjectDelete struct {
	DoID hierarchy.DoID
}
