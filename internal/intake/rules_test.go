package intake

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"100", 100},
		{" 12.5abc", 12.5},
		{"1,234.50", 1},
		{"$5", 0},
		{"", 0},
		{"abc", 0},
		{"-3.25", -3.25},
		{".5", 0.5},
		{"5.", 5},
		{"1e3", 1000},
		{"-0", 0},
		{"Infinity", math.Inf(1)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseAmount(tt.in), tt.in)
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 5.0, round2(100*0.05))
	assert.Equal(t, 30.86, round2(1234.56*0.025))
	assert.Equal(t, 0.13, round2(0.125))
	assert.Equal(t, -2.0, round2(-2.005))
	assert.Equal(t, -0.12, round2(-0.125))
	assert.Equal(t, 1.0, round2(1.005))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "5", formatAmount(5))
	assert.Equal(t, "5.01", formatAmount(5.01))
	assert.Equal(t, "0", formatAmount(math.Copysign(0, -1)))
	assert.Equal(t, "1e+21", formatAmount(1e21))
	assert.Equal(t, "Infinity", formatAmount(math.Inf(1)))
	assert.Equal(t, "NaN", formatAmount(math.NaN()))
}

func TestIsIgnorable(t *testing.T) {
	tests := []struct {
		name  string
		cells []string
		want  bool
	}{
		{"total anywhere", []string{"C1", "Subtotal", "100"}, true},
		{"total case", []string{"TOTAL"}, true},
		{"zeros and dashes", []string{"0", "-", "", "$0", " 0 ", "$ 0,"}, true},
		{"data", []string{"0", "C1"}, false},
		{"nonzero amount", []string{"$0.00"}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsIgnorable(tt.cells), tt.name)
	}
}

func TestProject(t *testing.T) {
	s := Project([][]string{
		{" id ", "name", "", "name", "", "name_1"},
		{"1", "a", "x"},
		{"", "", "", "", "", ""},
		{"2", "b", "", "c", "d", "e", "extra"},
	})

	assert.Equal(t, []string{"id", "name", "__EMPTY", "name_1", "__EMPTY_1", "name_1_1", "__EMPTY_2"}, s.Headers)
	assert.Len(t, s.Rows, 2)
	assert.Equal(t, "1", s.Rows[0].Get("id"))
	assert.Equal(t, "", s.Rows[0].Get("name_1"))
	assert.Equal(t, "c", s.Rows[1].Get("name_1"))
	assert.Equal(t, "extra", s.Rows[1].Get("__EMPTY_2"))
	assert.Equal(t, "", s.Rows[1].Get("missing"))
	assert.True(t, s.HasHeader("id"))
	assert.False(t, s.HasHeader(" id "))
}

func TestProject_Empty(t *testing.T) {
	s := Project(nil)
	assert.Empty(t, s.Headers)
	assert.Empty(t, s.Rows)
}

type stubRule struct{ key string }

func (r stubRule) Key() string { return r.key }
func (r stubRule) CheckRow(Row, int) []string { return []string{r.key} }
func (r stubRule) CheckSheet(*Sheet) []string { return nil }

func TestRegistry_OrderAndDuplicates(t *testing.T) {
	r := NewMemberRegistry([]string{"caf"})
	assert.Equal(t, []string{"required.headers", "math.caf_dollars", "required.values"}, r.Keys())

	r.RegisterRowRule(stubRule{key: "custom"})
	rep := r.Validate(Project([][]string{{"caf", "purchase_dollars", "caf_dollars"}, {"0.1", "10", "1"}}))
	assert.Equal(t, []string{"custom"}, rep.Errors)

	assert.Panics(t, func() { r.RegisterSheetRule(stubRule{key: "custom"}) })
}
