package core

import (
	"slices"
	"time"
)

// Filter selects the expenses of one owner. Nil bounds and an empty
// category mean "unbounded". From <= To is not enforced.
type Filter struct {
	OwnerID  string
	From     *time.Time
	To       *time.Time
	Category string
}

// Matches reports whether e satisfies every bound of the filter.
// Both date bounds are inclusive.
func (f Filter) Matches(e Expense) bool {
	if e.OwnerID != f.OwnerID {
		return false
	}
	if f.From != nil && e.Date.Before(*f.From) {
		return false
	}
	if f.To != nil && e.Date.After(*f.To) {
		return false
	}
	if f.Category != "" && e.Category != f.Category {
		return false
	}
	return true
}

// SortByDateDesc orders expenses most recent first. Equal dates keep their
// relative order.
func SortByDateDesc(items []Expense) {
	slices.SortStableFunc(items, func(a, b Expense) int {
		return b.Date.Compare(a.Date.Time)
	})
}
