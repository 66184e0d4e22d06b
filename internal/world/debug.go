package world

import (
	"cmp"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
)

const objectRowFormat = "%10s %10s %10s %30s %20s\n"

// WriteObjects lists every authoritative object: parent, zone, id, class
// and name. Detached objects show "-" for parent and zone.
func (c *Collection) WriteObjects(w io.Writer) error {
	title := fmt.Sprintf(objectRowFormat, "parentId", "zoneId", "doId", "dclass", "name")
	if _, err := io.WriteString(w, title); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("-", len(title)-1)); err != nil {
		return err
	}
	for _, id := range c.sortedIDs(ViewAuthoritative) {
		obj := c.tables[ViewAuthoritative][id]
		parent, zone := "-", "-"
		if loc, ok := obj.Location(); ok {
			parent = strconv.FormatUint(uint64(loc.Parent), 10)
			zone = strconv.FormatUint(uint64(loc.Zone), 10)
		}
		name := ""
		if n, ok := obj.(Named); ok {
			name = n.Name()
		}
		if _, err := fmt.Fprintf(w, objectRowFormat,
			parent, zone, strconv.FormatUint(uint64(id), 10), obj.ClassName(), name); err != nil {
			return err
		}
	}
	return nil
}

// ClassCount is one histogram row.
type ClassCount struct {
	Class string
	Count int
}

// ClassHistogram counts the objects of a table per class, most common
// first, ties by class name.
func (c *Collection) ClassHistogram(v View) ([]ClassCount, error) {
	t, err := c.table(v)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, obj := range t {
		counts[obj.ClassName()]++
	}
	rows := make([]ClassCount, 0, len(counts))
	for _, class := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, ClassCount{Class: class, Count: counts[class]})
	}
	slices.SortStableFunc(rows, func(a, b ClassCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	return rows, nil
}

// WriteObjectCount prints the per-class histogram of each enabled table.
func (c *Collection) WriteObjectCount(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "==== OBJECT COUNT ===="); err != nil {
		return err
	}
	views := []View{ViewAuthoritative}
	if c.cfg.HasOwnerView {
		views = append(views, ViewOwner)
	}
	for _, v := range views {
		if c.cfg.HasOwnerView {
			if _, err := fmt.Fprintf(w, "== %s\n", v); err != nil {
				return err
			}
		}
		rows, err := c.ClassHistogram(v)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := fmt.Fprintf(w, "%d %s\n", r.Count, r.Class); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}
