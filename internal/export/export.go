// Package export writes approved contractor records to download files and
// stamps them with an export batch.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/internal/store"
)

// Format selects the output file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("export: unknown format %q", s)
	}
}

// columns defines the ordered download file columns.
var columns = []string{
	"License Number",
	"Business Name",
	"Website",
	"Category",
	"Residential Focus",
	"Phone",
	"Address",
	"City",
	"State",
	"Zip",
	"Final Confidence",
	"Policy",
	"Reviewed By",
}

// Result summarizes one export run.
type Result struct {
	BatchID string `json:"batch_id"`
	Path    string `json:"path"`
	Count   int    `json:"count"`
}

// Exporter pulls approved, not-yet-exported records from the store and
// writes them out.
type Exporter struct {
	store store.Store
	dir   string
}

// NewExporter builds an Exporter writing into dir.
func NewExporter(st store.Store, dir string) *Exporter {
	return &Exporter{store: st, dir: dir}
}

// Run exports up to limit approved records. Records are marked exported only
// after the file is fully written; a zero-record run produces no file. Each
// run gets a fresh batch ID so re-downloads are traceable.
func (e *Exporter) Run(ctx context.Context, format Format, limit int) (*Result, error) {
	contractors, err := e.store.ListExportable(ctx, limit)
	if err != nil {
		return nil, err
	}
	if len(contractors) == 0 {
		return &Result{}, nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return nil, eris.Wrap(err, "export: create output dir")
	}

	batchID := uuid.New().String()
	name := fmt.Sprintf("contractors-%s-%s.%s",
		time.Now().UTC().Format("20060102-150405"), batchID[:8], format)
	path := filepath.Join(e.dir, name)

	switch format {
	case FormatXLSX:
		err = writeXLSX(path, contractors)
	default:
		err = writeCSV(path, contractors)
	}
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(contractors))
	for i, c := range contractors {
		ids[i] = c.ID
	}
	if err := e.store.MarkExported(ctx, ids, batchID); err != nil {
		return nil, err
	}

	zap.L().Info("export complete",
		zap.String("batch_id", batchID),
		zap.String("path", path),
		zap.Int("records", len(contractors)))
	return &Result{BatchID: batchID, Path: path, Count: len(contractors)}, nil
}

// buildRow maps a contractor to an ordered output row.
func buildRow(c model.Contractor) []string {
	focus := ""
	if c.ResidentialFocus != nil {
		focus = fmt.Sprintf("%t", *c.ResidentialFocus)
	}
	return []string{
		c.LicenseNumber,
		c.BusinessName,
		c.WebsiteURL,
		c.Category,
		focus,
		c.PhoneNumber,
		c.Address1,
		c.City,
		c.State,
		c.Zip,
		fmt.Sprintf("%.2f", c.FinalConfidence),
		c.PolicyUsed,
		c.ReviewedBy,
	}
}
