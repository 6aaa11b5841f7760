package roll

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

const sampleCSV = `BusinessName,ContractorLicenseNumber,LicenseTypeDesc,PhoneNumber,Address1,City,State,Zip,PrincipalName
Evergreen Plumbing LLC,EVERGPL123RD,CONSTRUCTION CONTRACTOR,4252428631,12034 NE 85th St,Kirkland,WA,98033,JOHN Q SMITH
Rainier Roofing,RAINIRR456GH,CONSTRUCTION CONTRACTOR,2535551234,400 Pacific Ave,Tacoma,WA,98402,
No License Row,,CONSTRUCTION CONTRACTOR,,,,,,
`

func TestParseCSV(t *testing.T) {
	got, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, got, 2, "row without a license number is skipped")

	assert.Equal(t, "Evergreen Plumbing LLC", got[0].BusinessName)
	assert.Equal(t, "EVERGPL123RD", got[0].LicenseNumber)
	assert.Equal(t, "4252428631", got[0].PhoneNumber)
	assert.Equal(t, "Kirkland", got[0].City)
	assert.Equal(t, "JOHN Q SMITH", got[0].PrincipalName)
	assert.Equal(t, "Rainier Roofing", got[1].BusinessName)
}

func TestParseCSVHeaderVariants(t *testing.T) {
	csv := "Business Name,License Number,Phone,Zip Code\nEvergreen Plumbing,EVERGPL123RD,4252428631,98033\n"
	got, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "EVERGPL123RD", got[0].LicenseNumber)
	assert.Equal(t, "98033", got[0].Zip)
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("Name,Phone\nfoo,bar\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "business name")

	_, err = ParseCSV(strings.NewReader("BusinessName,Phone\nfoo,bar\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "license number")
}

func TestParseFileXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roll.xlsx")

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Roll")
	require.NoError(t, err)
	for _, row := range [][]string{
		{"BusinessName", "LicenseNumber", "City", "State"},
		{"Evergreen Plumbing LLC", "EVERGPL123RD", "Kirkland", "WA"},
		{"Skip Me", "", "", ""},
	} {
		r := sheet.AddRow()
		for _, v := range row {
			r.AddCell().SetString(v)
		}
	}
	require.NoError(t, f.Save(path))

	got, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Evergreen Plumbing LLC", got[0].BusinessName)
	assert.Equal(t, "WA", got[0].State)
}

func TestParseFileMissing(t *testing.T) {
	_, err := ParseFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
