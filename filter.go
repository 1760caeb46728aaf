package vectorcore

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Filter is the query planner's metadata predicate (spec §4.5). All set
// fields are AND-combined; a zero-value Filter matches every record and
// therefore counts as empty for the planner's decision table.
type Filter struct {
	TagsAny      []string    // non-empty intersection with record.Tags
	TagsAll      []string    // record.Tags is a superset of TagsAll
	Author       string      // exact match, ignored if empty
	GroupIDs     []uuid.UUID // record.GroupID ∈ GroupIDs
	CreatedFrom  *time.Time  // inclusive lower bound
	CreatedTo    *time.Time  // inclusive upper bound
	TextContains string      // case-insensitive substring over Record.Text
}

// IsEmpty reports whether no predicate is set, the condition under which
// the planner may consider the installed index instead of a brute-force
// scan (spec §4.5's decision table first row: "filter is non-empty").
func (f Filter) IsEmpty() bool {
	return len(f.TagsAny) == 0 &&
		len(f.TagsAll) == 0 &&
		f.Author == "" &&
		len(f.GroupIDs) == 0 &&
		f.CreatedFrom == nil &&
		f.CreatedTo == nil &&
		f.TextContains == ""
}

// Matches reports whether r satisfies every set predicate in f.
func (f Filter) Matches(r Record) bool {
	if len(f.TagsAny) > 0 {
		found := false
		for _, t := range f.TagsAny {
			if _, ok := r.Tags[t]; ok {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if len(f.TagsAll) > 0 {
		for _, t := range f.TagsAll {
			if _, ok := r.Tags[t]; !ok {
				return false
			}
		}
	}

	if f.Author != "" && r.Author != f.Author {
		return false
	}

	if len(f.GroupIDs) > 0 {
		found := false
		for _, id := range f.GroupIDs {
			if id == r.GroupID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.CreatedFrom != nil && r.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && r.CreatedAt.After(*f.CreatedTo) {
		return false
	}

	if f.TextContains != "" && !containsFold(r.Text, f.TextContains) {
		return false
	}

	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
