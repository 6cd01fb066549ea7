package report

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

type SortKey string

const (
	SortByDate        SortKey = "date"
	SortByDescription SortKey = "description"
	SortByAmount      SortKey = "amount"
)

type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// Sort is the active ordering of a report table.
type Sort struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSort lists the newest entries first.
var DefaultSort = Sort{Key: SortByDate, Direction: Descending}

// Toggle selects key: the same key while ascending flips to descending,
// anything else starts ascending.
func (s Sort) Toggle(key SortKey) Sort {
	if s.Key == key && s.Direction == Ascending {
		return Sort{Key: key, Direction: Descending}
	}
	return Sort{Key: key, Direction: Ascending}
}

// ParseSort reads a key and direction, defaulting to DefaultSort.
func ParseSort(key, dir string) (Sort, error) {
	s := DefaultSort
	if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
		switch k := SortKey(key); k {
		case SortByDate, SortByDescription, SortByAmount:
			s.Key = k
		default:
			return Sort{}, fmt.Errorf("invalid sort key %q", key)
		}
	}
	if dir = strings.ToLower(strings.TrimSpace(dir)); dir != "" {
		switch d := Direction(dir); d {
		case Ascending, Descending:
			s.Direction = d
		case "asc":
			s.Direction = Ascending
		case "desc":
			s.Direction = Descending
		default:
			return Sort{}, fmt.Errorf("invalid sort direction %q", dir)
		}
	}
	return s, nil
}

// SortRows returns a stably sorted copy of rows.
func SortRows(rows []Row, s Sort) []Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b Row) int {
		var c int
		switch s.Key {
		case SortByDescription:
			c = cmp.Compare(a.Description, b.Description)
		case SortByAmount:
			c = a.Amount.Cmp(b.Amount)
		default:
			c = a.Date.Compare(b.Date.Time)
		}
		if s.Direction == Descending {
			return -c
		}
		return c
	})
	return out
}
