// Package store persists contractor records through the enrichment
// lifecycle.
package store

import (
	"context"
	"time"

	"github.com/afb-group/contractor-cli/internal/model"
)

// ListFilter specifies criteria for listing contractors.
type ListFilter struct {
	ProcessingStatus model.ProcessingStatus `json:"processing_status,omitempty"`
	ReviewStatus     model.ReviewStatus     `json:"review_status,omitempty"`
	City             string                 `json:"city,omitempty"`
	Limit            int                    `json:"limit,omitempty"`
	Offset           int                    `json:"offset,omitempty"`
}

// ReviewUpdate is a manual review decision applied to one record.
type ReviewUpdate struct {
	Status     model.ReviewStatus `json:"status"`
	ReviewedBy string             `json:"reviewed_by"`
	Notes      string             `json:"notes,omitempty"`
}

// Stats summarizes the pipeline state.
type Stats struct {
	Total           int64            `json:"total"`
	ByProcessing    map[string]int64 `json:"by_processing_status"`
	ByReview        map[string]int64 `json:"by_review_status"`
	WebsitesFound   int64            `json:"websites_found"`
	Exported        int64            `json:"exported"`
	AvgFinalConf    float64          `json:"avg_final_confidence"`
	LastProcessedAt *time.Time       `json:"last_processed_at,omitempty"`
}

// Store defines the persistence interface for contractor enrichment.
type Store interface {
	// Import
	UpsertContractors(ctx context.Context, contractors []model.Contractor) (int64, error)

	// Processing queue
	ListPending(ctx context.Context, limit int) ([]model.Contractor, error)
	MarkProcessing(ctx context.Context, ids []int64) error
	UpdateResult(ctx context.Context, c *model.Contractor) error
	SetError(ctx context.Context, id int64, msg string) error

	// Lookup
	GetContractor(ctx context.Context, id int64) (*model.Contractor, error)
	ListContractors(ctx context.Context, filter ListFilter) ([]model.Contractor, error)

	// Review workflow
	ApplyReview(ctx context.Context, id int64, upd ReviewUpdate) error

	// Export bookkeeping
	ListExportable(ctx context.Context, limit int) ([]model.Contractor, error)
	MarkExported(ctx context.Context, ids []int64, batchID string) error

	// Reporting
	Stats(ctx context.Context) (*Stats, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
