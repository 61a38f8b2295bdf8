package intake

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"salesintake/internal/config"
)

func testConfig() config.IntakeConfig {
	return config.IntakeConfig{
		AcceptedExtensions: []string{".xlsx", ".xls", ".csv"},
		MaxFileSizeMB:      50,
		PreviewRows:        5,
		RequiredFields:     config.DefaultRequiredFields,
	}
}

func newTestPipeline() *Pipeline {
	return NewPipeline(testConfig(), zap.NewNop())
}

// validMember returns a row that passes every member rule.
func validMember() map[string]string {
	return map[string]string{
		"customer_id":      "C1",
		"member_number":    "M1",
		"member_name":      "Acme Dental",
		"member_address":   "1 Main St",
		"member_city":      "Austin",
		"member_state":     "TX",
		"member_zip":       "78701",
		"ship_to":          "S1",
		"ship_to_address":  "2 Main St",
		"ship_to_city":     "Austin",
		"ship_to_state":    "TX",
		"ship_to_zip":      "78701",
		"purchase_dollars": "100",
		"caf":              "0.05",
		"caf_dollars":      "5.00",
	}
}

func member(overrides map[string]string) map[string]string {
	m := validMember()
	for k, v := range overrides {
		m[k] = v
	}
	return m
}

// memberCSV encodes rows under headers (the required fields when nil).
func memberCSV(t *testing.T, headers []string, rows ...map[string]string) []byte {
	t.Helper()
	if headers == nil {
		headers = config.DefaultRequiredFields
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	require.NoError(t, w.Write(headers))
	for _, r := range rows {
		rec := make([]string, len(headers))
		for i, h := range headers {
			rec[i] = r[h]
		}
		require.NoError(t, w.Write(rec))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return buf.Bytes()
}

// memberXLSX builds a workbook whose first sheet holds records verbatim.
func memberXLSX(t *testing.T, records ...[]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := rec
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}
