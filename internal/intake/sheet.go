package intake

import (
	"strconv"
	"strings"
)

// Sheet is the first worksheet projected onto its header row.
type Sheet struct {
	Headers []string
	Rows    []Row
	index   map[string]int
}

// Row is one data row, aligned with Sheet.Headers.
type Row struct {
	cells []string
	index map[string]int
}

// Get returns the cell under header, or "" when the header is absent.
func (r Row) Get(header string) string {
	i, ok := r.index[header]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// Cells returns the row's values in header order.
func (r Row) Cells() []string {
	return r.cells
}

// HasHeader reports whether the sheet has a column named h.
func (s *Sheet) HasHeader(h string) bool {
	_, ok := s.index[h]
	return ok
}

// emptyHeader names columns whose header cell is blank.
const emptyHeader = "__EMPTY"

// Project turns raw decoded records into a Sheet. The first record is the
// header row; header names are trimmed, blank names become __EMPTY and
// repeated names get _1, _2 suffixes. Records whose cells are all empty
// strings are dropped and short records are padded with "".
func Project(records [][]string) *Sheet {
	s := &Sheet{index: map[string]int{}}
	if len(records) == 0 {
		return s
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	s.Headers = make([]string, width)
	used := make(map[string]bool, width)
	suffix := make(map[string]int, width)
	for i := 0; i < width; i++ {
		name := ""
		if i < len(records[0]) {
			name = strings.TrimSpace(records[0][i])
		}
		if name == "" {
			name = emptyHeader
		}
		if used[name] {
			base, k := name, suffix[name]
			for {
				k++
				name = base + "_" + strconv.Itoa(k)
				if !used[name] {
					break
				}
			}
			suffix[base] = k
		}
		used[name] = true
		s.Headers[i] = name
		s.index[name] = i
	}

	for _, rec := range records[1:] {
		if allEmpty(rec) {
			continue
		}
		cells := make([]string, width)
		copy(cells, rec)
		s.Rows = append(s.Rows, Row{cells: cells, index: s.index})
	}
	return s
}

func allEmpty(rec []string) bool {
	for _, v := range rec {
		if v != "" {
			return false
		}
	}
	return true
}
