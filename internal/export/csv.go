package export

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/afb-group/contractor-cli/internal/model"
)

// writeCSV writes the download file as CSV.
func writeCSV(path string, contractors []model.Contractor) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create csv")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	for _, c := range contractors {
		if err := w.Write(buildRow(c)); err != nil {
			return eris.Wrapf(err, "export: write row %s", c.LicenseNumber)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return f.Close()
}
