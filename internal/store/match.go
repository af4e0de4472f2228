package store

import (
	"fmt"
	"regexp"
	"sort"
	"time"
)

// matches reports whether a document satisfies every condition in the filter.
// Each key must equal the field exactly, match the pattern, or be a member of
// the one-of set. No keys means match all.
func matches(doc Doc, f Filter) bool {
	for key, cond := range f {
		val, ok := doc[key]
		switch c := cond.(type) {
		case In:
			if !ok {
				return false
			}
			found := false
			for _, want := range c {
				if equalValues(val, want) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		case Regex:
			if !ok {
				return false
			}
			re, err := compileRegex(c)
			if err != nil || !re.MatchString(fmt.Sprint(val)) {
				return false
			}
		default:
			if !ok || !equalValues(val, cond) {
				return false
			}
		}
	}
	return true
}

func compileRegex(r Regex) (*regexp.Regexp, error) {
	pattern := r.Pattern
	if r.Insensitive {
		pattern = "(?i)" + pattern
	}
	return regexp.Compile(pattern)
}

// equalValues compares a document value with a filter value. Documents come
// back from JSON, so numbers are float64 and everything else may differ in
// concrete type from what the caller supplied.
func equalValues(a, b any) bool {
	if a == b {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compareValues orders two document values for sorting. Numbers compare
// numerically, RFC 3339 strings as instants, everything else as strings.
func compareValues(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}

	as := fmt.Sprint(a)
	bs := fmt.Sprint(b)
	if at, err := time.Parse(time.RFC3339Nano, as); err == nil {
		if bt, err := time.Parse(time.RFC3339Nano, bs); err == nil {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			}
			return 0
		}
	}

	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// sortDocs orders docs in place by a single field.
func sortDocs(docs []Doc, s *Sort) {
	if s == nil || s.Field == "" {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		c := compareValues(docs[i][s.Field], docs[j][s.Field])
		if s.Desc {
			return c > 0
		}
		return c < 0
	})
}

// groupDocs computes the GroupSum aggregation over already-filtered docs.
// Bucket order follows first appearance.
func groupDocs(docs []Doc, field, sumField string) []GroupRow {
	index := make(map[string]int)
	rows := make([]GroupRow, 0)
	for _, d := range docs {
		key := fmt.Sprint(d[field])
		i, ok := index[key]
		if !ok {
			i = len(rows)
			index[key] = i
			rows = append(rows, GroupRow{Key: key})
		}
		rows[i].Count++
		if sumField != "" {
			if n, ok := d[sumField].(float64); ok {
				rows[i].Sum += n
			}
		}
	}
	return rows
}
