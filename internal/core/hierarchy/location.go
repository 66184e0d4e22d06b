package hierarchy

import "fmt"

// DoID identifies a distributed object. Assigned by the server.
type DoID uint32

// ZoneID partitions the children of a parent object.
type ZoneID uint32

const (
	// BadDoID and BadZoneID come from different protocol fields but share the
	// null value. A location made of both is never stored.
	BadDoID   DoID   = 0
	BadZoneID ZoneID = 0

	// AllZones selects every zone of a parent in a lookup.
	AllZones ZoneID = 0xFFFFFFFF

	legacyBadDoID DoID = 0xFFFFFFFF
)

// Location is the (parent, zone) pair an object is attached to.
type Location struct {
	Parent DoID
	Zone   ZoneID
}

// At builds a Location.
func At(parent DoID, zone ZoneID) Location {
	return Location{Parent: parent, Zone: zone}
}

// IsValid reports whether the location may be stored. The null pairs and the
// legacy all-ones pair mean "not attached"; AllZones is a query selector only.
func (l Location) IsValid() bool {
	switch {
	case l.Parent == 0 && l.Zone == 0:
		return false
	case l.Parent == BadDoID && l.Zone == BadZoneID:
		return false
	case l.Parent == legacyBadDoID && l.Zone == ZoneID(legacyBadDoID):
		return false
	case l.Zone == AllZones:
		return false
	}
	return true
}

func (l Location) String() string {
	return fmt.Sprintf("(%d, %d)", l.Parent, l.Zone)
}
