package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/afb-group/contractor-cli/internal/db"
	"github.com/afb-group/contractor-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// contractorColumns is the scan order used by every SELECT in this file.
const contractorColumns = `id, uuid, business_name, license_number, license_type_desc,
	phone_number, address1, city, state, zip, principal_name,
	website_url, website_status, website_confidence, classification_confidence,
	final_confidence, policy_used, category, residential_focus,
	processing_status, review_status, error_message, analysis,
	reviewed_by, reviewed_at, review_notes, exported_at, export_batch_id,
	last_processed, created_at, updated_at`

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"list_pending": `SELECT ` + contractorColumns + ` FROM contractors
		WHERE processing_status = 'pending' ORDER BY id LIMIT $1`,
	"get_contractor": `SELECT ` + contractorColumns + ` FROM contractors WHERE id = $1`,
	"set_error": `UPDATE contractors SET processing_status = 'error', error_message = $1,
		last_processed = $2, updated_at = $2 WHERE id = $3`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS contractors (
	id                        BIGSERIAL PRIMARY KEY,
	uuid                      TEXT NOT NULL UNIQUE,
	business_name             TEXT NOT NULL,
	license_number            TEXT NOT NULL UNIQUE,
	license_type_desc         TEXT,
	phone_number              TEXT,
	address1                  TEXT,
	city                      TEXT,
	state                     TEXT,
	zip                       TEXT,
	principal_name            TEXT,
	website_url               TEXT,
	website_status            TEXT,
	website_confidence        DOUBLE PRECISION NOT NULL DEFAULT 0,
	classification_confidence DOUBLE PRECISION,
	final_confidence          DOUBLE PRECISION NOT NULL DEFAULT 0,
	policy_used               TEXT,
	category                  TEXT,
	residential_focus         BOOLEAN,
	processing_status         TEXT NOT NULL DEFAULT 'pending',
	review_status             TEXT,
	error_message             TEXT,
	analysis                  JSONB,
	reviewed_by               TEXT,
	reviewed_at               TIMESTAMPTZ,
	review_notes              TEXT,
	exported_at               TIMESTAMPTZ,
	export_batch_id           TEXT,
	last_processed            TIMESTAMPTZ,
	created_at                TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at                TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_contractors_processing ON contractors(processing_status);
CREATE INDEX IF NOT EXISTS idx_contractors_review ON contractors(review_status);
CREATE INDEX IF NOT EXISTS idx_contractors_city ON contractors(city);
CREATE INDEX IF NOT EXISTS idx_contractors_export ON contractors(review_status, exported_at)
	WHERE review_status = 'approved_download' AND exported_at IS NULL;
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// upsertColumns are the license-roll fields written on import. Enrichment
// columns are never touched by an upsert, so re-importing a roll does not
// clobber results.
var upsertColumns = []string{
	"uuid", "business_name", "license_number", "license_type_desc",
	"phone_number", "address1", "city", "state", "zip", "principal_name",
	"processing_status", "created_at", "updated_at",
}

func (s *PostgresStore) UpsertContractors(ctx context.Context, contractors []model.Contractor) (int64, error) {
	now := time.Now().UTC()
	rows := make([][]any, 0, len(contractors))
	for _, c := range contractors {
		id := c.UUID
		if id == "" {
			id = uuid.New().String()
		}
		rows = append(rows, []any{
			id, c.BusinessName, c.LicenseNumber, c.LicenseTypeDesc,
			c.PhoneNumber, c.Address1, c.City, c.State, c.Zip, c.PrincipalName,
			string(model.ProcessingStatusPending), now, now,
		})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "contractors",
		Columns:      upsertColumns,
		ConflictKeys: []string{"license_number"},
		UpdateCols: []string{
			"business_name", "license_type_desc", "phone_number",
			"address1", "city", "state", "zip", "principal_name", "updated_at",
		},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert contractors")
	}
	return n, nil
}

func (s *PostgresStore) ListPending(ctx context.Context, limit int) ([]model.Contractor, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+contractorColumns+` FROM contractors
		WHERE processing_status = 'pending' ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list pending")
	}
	defer rows.Close()
	return scanContractors(rows)
}

func (s *PostgresStore) MarkProcessing(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE contractors SET processing_status = 'processing', updated_at = $1 WHERE id = ANY($2)`,
		time.Now().UTC(), ids)
	return eris.Wrap(err, "postgres: mark processing")
}

func (s *PostgresStore) UpdateResult(ctx context.Context, c *model.Contractor) error {
	analysisJSON, err := json.Marshal(c.Analysis)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal analysis")
	}
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`UPDATE contractors SET
			website_url = $1, website_status = $2, website_confidence = $3,
			classification_confidence = $4, final_confidence = $5, policy_used = $6,
			category = $7, residential_focus = $8,
			processing_status = $9, review_status = $10, error_message = $11,
			analysis = $12, last_processed = $13, updated_at = $13
		WHERE id = $14`,
		c.WebsiteURL, c.WebsiteStatus, c.WebsiteConfidence,
		c.ClassificationConfidence, c.FinalConfidence, c.PolicyUsed,
		c.Category, c.ResidentialFocus,
		string(c.ProcessingStatus), string(c.ReviewStatus), c.ErrorMessage,
		analysisJSON, now, c.ID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update result %d", c.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contractor not found: %d", c.ID)
	}
	return nil
}

func (s *PostgresStore) SetError(ctx context.Context, id int64, msg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contractors SET processing_status = 'error', error_message = $1,
		last_processed = $2, updated_at = $2 WHERE id = $3`,
		msg, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: set error %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contractor not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) GetContractor(ctx context.Context, id int64) (*model.Contractor, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+contractorColumns+` FROM contractors WHERE id = $1`, id)
	c, err := scanContractor(row)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get contractor %d", id)
	}
	return c, nil
}

func (s *PostgresStore) ListContractors(ctx context.Context, filter ListFilter) ([]model.Contractor, error) {
	query := `SELECT ` + contractorColumns + ` FROM contractors WHERE true`
	args := []any{}
	argIdx := 1

	if filter.ProcessingStatus != "" {
		query += fmt.Sprintf(` AND processing_status = $%d`, argIdx)
		args = append(args, string(filter.ProcessingStatus))
		argIdx++
	}
	if filter.ReviewStatus != "" {
		query += fmt.Sprintf(` AND review_status = $%d`, argIdx)
		args = append(args, string(filter.ReviewStatus))
		argIdx++
	}
	if filter.City != "" {
		query += fmt.Sprintf(` AND upper(city) = upper($%d)`, argIdx)
		args = append(args, filter.City)
		argIdx++
	}
	query += ` ORDER BY id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list contractors")
	}
	defer rows.Close()
	return scanContractors(rows)
}

func (s *PostgresStore) ApplyReview(ctx context.Context, id int64, upd ReviewUpdate) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE contractors SET review_status = $1, reviewed_by = $2, review_notes = $3,
		reviewed_at = $4, updated_at = $4 WHERE id = $5`,
		string(upd.Status), upd.ReviewedBy, upd.Notes, time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "postgres: apply review %d", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("contractor not found: %d", id)
	}
	return nil
}

func (s *PostgresStore) ListExportable(ctx context.Context, limit int) ([]model.Contractor, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+contractorColumns+` FROM contractors
		WHERE review_status = 'approved_download' AND exported_at IS NULL
		ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list exportable")
	}
	defer rows.Close()
	return scanContractors(rows)
}

func (s *PostgresStore) MarkExported(ctx context.Context, ids []int64, batchID string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE contractors SET exported_at = $1, export_batch_id = $2, updated_at = $1 WHERE id = ANY($3)`,
		time.Now().UTC(), batchID, ids)
	return eris.Wrap(err, "postgres: mark exported")
}

func (s *PostgresStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByProcessing: make(map[string]int64),
		ByReview:     make(map[string]int64),
	}

	err := s.pool.QueryRow(ctx,
		`SELECT count(*),
			count(*) FILTER (WHERE website_status = 'found'),
			count(*) FILTER (WHERE exported_at IS NOT NULL),
			coalesce(avg(final_confidence) FILTER (WHERE processing_status = 'completed'), 0),
			max(last_processed)
		FROM contractors`,
	).Scan(&stats.Total, &stats.WebsitesFound, &stats.Exported, &stats.AvgFinalConf, &stats.LastProcessedAt)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats totals")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT processing_status, coalesce(review_status, ''), count(*)
		FROM contractors GROUP BY 1, 2`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: stats breakdown")
	}
	defer rows.Close()

	for rows.Next() {
		var proc, review string
		var n int64
		if err := rows.Scan(&proc, &review, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stats")
		}
		stats.ByProcessing[proc] += n
		if review != "" {
			stats.ByReview[review] += n
		}
	}
	return stats, eris.Wrap(rows.Err(), "postgres: stats iterate")
}

// scanContractor reads one row in contractorColumns order.
func scanContractor(row pgx.Row) (*model.Contractor, error) {
	var c model.Contractor
	var analysisJSON []byte
	var (
		licenseType, phone, addr, city, state, zip, principal      *string
		websiteURL, websiteStatus, policyUsed, category            *string
		reviewStatus, errMsg, reviewedBy, reviewNotes, exportBatch *string
	)

	err := row.Scan(&c.ID, &c.UUID, &c.BusinessName, &c.LicenseNumber, &licenseType,
		&phone, &addr, &city, &state, &zip, &principal,
		&websiteURL, &websiteStatus, &c.WebsiteConfidence, &c.ClassificationConfidence,
		&c.FinalConfidence, &policyUsed, &category, &c.ResidentialFocus,
		&c.ProcessingStatus, &reviewStatus, &errMsg, &analysisJSON,
		&reviewedBy, &c.ReviewedAt, &reviewNotes, &c.ExportedAt, &exportBatch,
		&c.LastProcessed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	deref := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	deref(&c.LicenseTypeDesc, licenseType)
	deref(&c.PhoneNumber, phone)
	deref(&c.Address1, addr)
	deref(&c.City, city)
	deref(&c.State, state)
	deref(&c.Zip, zip)
	deref(&c.PrincipalName, principal)
	deref(&c.WebsiteURL, websiteURL)
	deref(&c.WebsiteStatus, websiteStatus)
	deref(&c.PolicyUsed, policyUsed)
	deref(&c.Category, category)
	deref(&c.ErrorMessage, errMsg)
	deref(&c.ReviewedBy, reviewedBy)
	deref(&c.ReviewNotes, reviewNotes)
	deref(&c.ExportBatchID, exportBatch)
	if reviewStatus != nil {
		c.ReviewStatus = model.ReviewStatus(*reviewStatus)
	}

	if len(analysisJSON) > 0 {
		if err := json.Unmarshal(analysisJSON, &c.Analysis); err != nil {
			return nil, eris.Wrap(err, "unmarshal analysis")
		}
	}
	return &c, nil
}

func scanContractors(rows pgx.Rows) ([]model.Contractor, error) {
	var out []model.Contractor
	for rows.Next() {
		c, err := scanContractor(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan contractor")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate contractors")
}
