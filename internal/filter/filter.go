// Package filter narrows and orders lab lists for display. Every function is
// pure: results are recomputed from the full set on each call.
package filter

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tphummel/lab_templates/internal/models"
)

// Status selects labs by their active flag.
type Status string

const (
	StatusAll      Status = "all"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// SortBy names a list ordering.
type SortBy string

const (
	SortNewest        SortBy = "newest"
	SortOldest        SortBy = "oldest"
	SortName          SortBy = "name"
	SortEstimatedTime SortBy = "estimatedTime"
)

// Filters is the list view's search box, status select and sort select.
// Locale drives name collation; the zero tag collates with root rules.
type Filters struct {
	Search string
	Status Status
	SortBy SortBy
	Locale language.Tag
}

// Default returns the filters a fresh list view starts with.
func Default() Filters {
	return Filters{Status: StatusAll, SortBy: SortNewest}
}

// IsDefault reports whether f matches nothing beyond the default view.
// Locale is not a filter and is ignored.
func (f Filters) IsDefault() bool {
	return f.Search == "" && f.status() == StatusAll && f.sortBy() == SortNewest
}

func (f Filters) status() Status {
	if f.Status == "" {
		return StatusAll
	}
	return f.Status
}

func (f Filters) sortBy() SortBy {
	if f.SortBy == "" {
		return SortNewest
	}
	return f.SortBy
}

// ParseStatus accepts "all", "active" or "inactive". Empty means all.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StatusAll, nil
	case StatusAll, StatusActive, StatusInactive:
		return st, nil
	default:
		return "", fmt.Errorf("unknown status %q (want all, active or inactive)", s)
	}
}

// ParseSortBy accepts "newest", "oldest", "name" or "estimatedTime". Empty
// means newest.
func ParseSortBy(s string) (SortBy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SortNewest, nil
	case "newest":
		return SortNewest, nil
	case "oldest":
		return SortOldest, nil
	case "name":
		return SortName, nil
	case "estimatedtime", "estimated-time", "time":
		return SortEstimatedTime, nil
	default:
		return "", fmt.Errorf("unknown sort %q (want newest, oldest, name or estimatedTime)", s)
	}
}

// Apply returns the labs of all that match f, in f's order. The search term
// is matched as typed, surrounding spaces included. all is never
// modified. Sorting is stable, so labs comparing equal keep their input order.
func Apply(all []models.Lab, f Filters) []models.Lab {
	fold := cases.Fold()
	needle := fold.String(f.Search)
	status := f.status()

	out := make([]models.Lab, 0, len(all))
	for _, lab := range all {
		if needle != "" && !matches(fold, lab, needle) {
			continue
		}
		if status == StatusActive && !lab.IsActive {
			continue
		}
		if status == StatusInactive && lab.IsActive {
			continue
		}
		out = append(out, lab)
	}

	switch f.sortBy() {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b models.Lab) int { return a.CreatedAt.Compare(b.CreatedAt) })
	case SortName:
		c := collate.New(f.Locale)
		slices.SortStableFunc(out, func(a, b models.Lab) int { return c.CompareString(a.Name, b.Name) })
	case SortEstimatedTime:
		slices.SortStableFunc(out, func(a, b models.Lab) int { return a.EstimatedTime - b.EstimatedTime })
	default:
		slices.SortStableFunc(out, func(a, b models.Lab) int { return b.CreatedAt.Compare(a.CreatedAt) })
	}
	return out
}

func matches(fold cases.Caser, lab models.Lab, needle string) bool {
	for _, field := range []string{lab.Name, lab.Description, lab.BaseImage} {
		if strings.Contains(fold.String(field), needle) {
			return true
		}
	}
	return false
}
