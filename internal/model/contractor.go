package model

import "time"

// ProcessingStatus tracks where a contractor record sits in the enrichment
// lifecycle. The scoring engine only ever emits "completed" or "error";
// "pending" and "processing" belong to the batch scheduler.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusError      ProcessingStatus = "error"
)

// ReviewStatus is the terminal disposition of an enriched record.
type ReviewStatus string

const (
	ReviewStatusApprovedDownload ReviewStatus = "approved_download"
	ReviewStatusPendingReview    ReviewStatus = "pending_review"
	ReviewStatusRejected         ReviewStatus = "rejected"
)

// Contractor is one licensed-business entity to be enriched. The original
// license-roll fields are immutable inputs to scoring; enrichment fields are
// filled in by the pipeline.
type Contractor struct {
	ID   int64  `json:"id"`
	UUID string `json:"uuid,omitempty"`

	// License roll fields (from CSV import).
	BusinessName    string `json:"business_name"`
	LicenseNumber   string `json:"license_number,omitempty"`
	LicenseTypeDesc string `json:"license_type_desc,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
	Address1        string `json:"address1,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Zip             string `json:"zip,omitempty"`
	PrincipalName   string `json:"principal_name,omitempty"`

	// Enrichment results.
	WebsiteURL               string   `json:"website_url,omitempty"`
	WebsiteStatus            string   `json:"website_status,omitempty"` // "found" / "not_found"
	WebsiteConfidence        float64  `json:"website_confidence"`
	ClassificationConfidence *float64 `json:"classification_confidence,omitempty"`
	FinalConfidence          float64  `json:"final_confidence"`
	PolicyUsed               string   `json:"policy_used,omitempty"`
	Category                 string   `json:"category,omitempty"`
	ResidentialFocus         *bool    `json:"residential_focus,omitempty"`

	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ReviewStatus     ReviewStatus     `json:"review_status,omitempty"`
	ErrorMessage     string           `json:"error_message,omitempty"`

	// Audit trail: per-candidate evaluation, factor breakdown, and
	// classifier reasoning, persisted as JSON alongside the record.
	Analysis map[string]any `json:"analysis,omitempty"`

	// Manual review workflow.
	ReviewedBy  string     `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes string     `json:"review_notes,omitempty"`

	// Export bookkeeping.
	ExportedAt    *time.Time `json:"exported_at,omitempty"`
	ExportBatchID string     `json:"export_batch_id,omitempty"`

	LastProcessed *time.Time `json:"last_processed,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// WebsiteCandidate is a discovered URL hypothesized to be the contractor's
// website. Rank preserves the order the discovery collaborator returned it.
type WebsiteCandidate struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Title  string `json:"title,omitempty"`
	// Text is the visible page text as fetched. Empty means the fetch
	// failed and the candidate is skipped.
	Text string `json:"-"`
	Rank int    `json:"rank"`
}

// ClassificationResult is the externally computed content classification for
// an accepted website. Consumed as-is by the confidence combiner.
type ClassificationResult struct {
	Category         string  `json:"category"`
	Confidence       float64 `json:"confidence"`
	ResidentialFocus bool    `json:"residential_focus"`
	Reasoning        string  `json:"reasoning,omitempty"`
}

// ConfidenceRecord is the combined confidence outcome for one processing
// attempt, tagged with the combination policy that produced it.
type ConfidenceRecord struct {
	WebsiteConfidence        float64  `json:"website_confidence"`
	ClassificationConfidence *float64 `json:"classification_confidence,omitempty"`
	FinalConfidence          float64  `json:"final_confidence"`
	PolicyUsed               string   `json:"policy_used"`
}

// ReviewDecision is the engine's terminal output for a record.
type ReviewDecision struct {
	ProcessingStatus ProcessingStatus `json:"processing_status"`
	ReviewStatus     ReviewStatus     `json:"review_status"`
	Reason           string           `json:"reason,omitempty"`
}
