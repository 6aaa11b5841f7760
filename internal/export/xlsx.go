package export

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/afb-group/contractor-cli/internal/model"
)

// writeXLSX writes the download file as a single-sheet workbook.
func writeXLSX(path string, contractors []model.Contractor) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Contractors")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().SetString(col)
	}
	for _, c := range contractors {
		row := sheet.AddRow()
		for _, v := range buildRow(c) {
			row.AddCell().SetString(v)
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}
