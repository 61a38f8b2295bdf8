// Package listview searches, sorts and pages rows already fetched from the backend.
package listview

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"salesintake/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query is a list request as it arrives on the query string.
type Query struct {
	Search string
	Sort   string
	Desc   bool
	Offset int
	Limit  int
}

// Normalize clamps paging to sane bounds.
func (q Query) Normalize() Query {
	q.Search = strings.TrimSpace(q.Search)
	if q.Limit <= 0 || q.Limit > MaxLimit {
		q.Limit = DefaultLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Field is one searchable and sortable column of T.
type Field[T any] struct {
	Key     string
	Text    func(T) string
	Compare func(a, b T) int
}

// Page is one window of a filtered, sorted list.
type Page[T any] struct {
	Items  []T
	Total  int
	Offset int
	Limit  int
}

// Apply filters items by q.Search over every field, sorts by q.Sort and
// returns the requested window. An unknown sort key keeps backend order.
func Apply[T any](items []T, fields []Field[T], q Query) Page[T] {
	q = q.Normalize()
	selected := Select(items, fields, q)

	total := len(selected)
	start := min(q.Offset, total)
	end := min(start+q.Limit, total)
	return Page[T]{
		Items:  selected[start:end],
		Total:  total,
		Offset: q.Offset,
		Limit:  q.Limit,
	}
}

// Select applies q's search and sort but not its paging.
func Select[T any](items []T, fields []Field[T], q Query) []T {
	selected := make([]T, 0, len(items))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, it := range items {
		if needle == "" || matches(it, fields, needle) {
			selected = append(selected, it)
		}
	}

	f, ok := lookup(fields, q.Sort)
	if !ok {
		return selected
	}
	compare := f.Compare
	if compare == nil {
		compare = func(a, b T) int {
			return cmp.Compare(strings.ToLower(f.Text(a)), strings.ToLower(f.Text(b)))
		}
	}
	slices.SortStableFunc(selected, func(a, b T) int {
		if q.Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return selected
}

func matches[T any](it T, fields []Field[T], needle string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f.Text(it)), needle) {
			return true
		}
	}
	return false
}

func lookup[T any](fields []Field[T], key string) (Field[T], bool) {
	for _, f := range fields {
		if strings.EqualFold(f.Key, key) {
			return f, true
		}
	}
	return Field[T]{}, false
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// RecentUploadFields are the columns of the recent uploads list.
var RecentUploadFields = []Field[domain.RecentUpload]{
	{Key: "filename", Text: func(u domain.RecentUpload) string { return u.Filename }},
	{Key: "uploaded_by_name", Text: func(u domain.RecentUpload) string { return u.UploadedByName }},
	{
		Key:     "uploaded_at_utc",
		Text:    func(u domain.RecentUpload) string { return formatTime(u.UploadedAt) },
		Compare: func(a, b domain.RecentUpload) int { return compareTime(a.UploadedAt, b.UploadedAt) },
	},
}

// ReportFields are the columns of the reports dashboard.
var ReportFields = []Field[domain.ReportSummary]{
	{
		Key:     "report_number",
		Text:    func(r domain.ReportSummary) string { return strconv.FormatInt(r.ReportNumber, 10) },
		Compare: func(a, b domain.ReportSummary) int { return cmp.Compare(a.ReportNumber, b.ReportNumber) },
	},
	{Key: "filename", Text: func(r domain.ReportSummary) string { return r.Filename }},
	{Key: "uploaded_by", Text: func(r domain.ReportSummary) string { return r.UploadedBy }},
	{Key: "status", Text: func(r domain.ReportSummary) string { return r.Status }},
	{Key: "report_type", Text: func(r domain.ReportSummary) string { return r.ReportType }},
	{
		Key:     "uploaded_at_utc",
		Text:    func(r domain.ReportSummary) string { return formatTime(r.UploadedAt) },
		Compare: func(a, b domain.ReportSummary) int { return compareTime(a.UploadedAt, b.UploadedAt) },
	},
}
