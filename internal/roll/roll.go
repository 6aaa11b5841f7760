// Package roll parses contractor license roll files (CSV or XLSX) into
// contractor records for import.
package roll

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/model"
)

// headerAliases maps normalized roll column headers to contractor fields.
// State agencies rename columns between extracts; all observed variants of a
// field resolve to one key.
var headerAliases = map[string]string{
	"businessname":            "business_name",
	"business_name":           "business_name",
	"contractorlicensenumber": "license_number",
	"licensenumber":           "license_number",
	"license_number":          "license_number",
	"licensetypedesc":         "license_type_desc",
	"license_type_desc":       "license_type_desc",
	"phonenumber":             "phone_number",
	"phone_number":            "phone_number",
	"phone":                   "phone_number",
	"address1":                "address1",
	"address":                 "address1",
	"city":                    "city",
	"state":                   "state",
	"zip":                     "zip",
	"zipcode":                 "zip",
	"principalname":           "principal_name",
	"principal_name":          "principal_name",
}

// ParseFile parses a roll file, dispatching on extension. ".xlsx" reads the
// first sheet; anything else is treated as CSV.
func ParseFile(path string) ([]model.Contractor, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return parseXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "roll: open %s", path)
	}
	defer f.Close() //nolint:errcheck
	return ParseCSV(f)
}

// ParseCSV parses roll records from CSV. The first row is the header; rows
// without a license number are skipped and counted, not fatal.
func ParseCSV(r io.Reader) ([]model.Contractor, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "roll: read header")
	}
	fields, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var out []model.Contractor
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "roll: read row")
		}
		c, ok := buildContractor(fields, row)
		if !ok {
			skipped++
			continue
		}
		out = append(out, c)
	}

	logParsed(len(out), skipped)
	return out, nil
}

// parseXLSX reads the first sheet of a workbook as roll records.
func parseXLSX(path string) ([]model.Contractor, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "roll: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("roll: %s has no sheets", path)
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("roll: %s first sheet is empty", path)
	}

	fields, err := mapHeader(rowStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var out []model.Contractor
	skipped := 0
	for _, row := range sheet.Rows[1:] {
		c, ok := buildContractor(fields, rowStrings(row))
		if !ok {
			skipped++
			continue
		}
		out = append(out, c)
	}

	logParsed(len(out), skipped)
	return out, nil
}

// mapHeader resolves the header row into field → column index. Unknown
// columns are ignored; a roll without business name and license columns is
// unusable.
func mapHeader(header []string) (map[string]int, error) {
	fields := make(map[string]int)
	for i, col := range header {
		norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(col), " ", ""))
		if field, ok := headerAliases[norm]; ok {
			if _, dup := fields[field]; !dup {
				fields[field] = i
			}
		}
	}
	if _, ok := fields["business_name"]; !ok {
		return nil, eris.New("roll: no business name column found")
	}
	if _, ok := fields["license_number"]; !ok {
		return nil, eris.New("roll: no license number column found")
	}
	return fields, nil
}

func buildContractor(fields map[string]int, row []string) (model.Contractor, bool) {
	cell := func(field string) string {
		i, ok := fields[field]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	c := model.Contractor{
		BusinessName:    cell("business_name"),
		LicenseNumber:   cell("license_number"),
		LicenseTypeDesc: cell("license_type_desc"),
		PhoneNumber:     cell("phone_number"),
		Address1:        cell("address1"),
		City:            cell("city"),
		State:           cell("state"),
		Zip:             cell("zip"),
		PrincipalName:   cell("principal_name"),
	}
	if c.LicenseNumber == "" {
		return model.Contractor{}, false
	}
	return c, true
}

func rowStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}

func logParsed(parsed, skipped int) {
	if skipped > 0 {
		zap.L().Warn("roll rows skipped, no license number", zap.Int("skipped", skipped))
	}
	zap.L().Info("roll parsed", zap.Int("records", parsed))
}
