package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/afb-group/contractor-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// single-operator runs; the review server runs on Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sqlDB}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS contractors (
	id                        INTEGER PRIMARY KEY AUTOINCREMENT,
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
	website_confidence        REAL NOT NULL DEFAULT 0,
	classification_confidence REAL,
	final_confidence          REAL NOT NULL DEFAULT 0,
	policy_used               TEXT,
	category                  TEXT,
	residential_focus         INTEGER,
	processing_status         TEXT NOT NULL DEFAULT 'pending',
	review_status             TEXT,
	error_message             TEXT,
	analysis                  TEXT,
	reviewed_by               TEXT,
	reviewed_at               DATETIME,
	review_notes              TEXT,
	exported_at               DATETIME,
	export_batch_id           TEXT,
	last_processed            DATETIME,
	created_at                DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at                DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_contractors_processing ON contractors(processing_status);
CREATE INDEX IF NOT EXISTS idx_contractors_review ON contractors(review_status);
CREATE INDEX IF NOT EXISTS idx_contractors_city ON contractors(city);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertContractors(ctx context.Context, contractors []model.Contractor) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO contractors (
			uuid, business_name, license_number, license_type_desc,
			phone_number, address1, city, state, zip, principal_name,
			processing_status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(license_number) DO UPDATE SET
			business_name = excluded.business_name,
			license_type_desc = excluded.license_type_desc,
			phone_number = excluded.phone_number,
			address1 = excluded.address1,
			city = excluded.city,
			state = excluded.state,
			zip = excluded.zip,
			principal_name = excluded.principal_name,
			updated_at = excluded.updated_at`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close() //nolint:errcheck

	now := time.Now().UTC()
	var n int64
	for _, c := range contractors {
		id := c.UUID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx,
			id, c.BusinessName, c.LicenseNumber, c.LicenseTypeDesc,
			c.PhoneNumber, c.Address1, c.City, c.State, c.Zip, c.PrincipalName,
			string(model.ProcessingStatusPending), now, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert %s", c.LicenseNumber)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit upsert")
	}
	return n, nil
}

func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]model.Contractor, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contractorColumns+` FROM contractors
		WHERE processing_status = 'pending' ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list pending")
	}
	defer rows.Close() //nolint:errcheck
	return scanSQLContractors(rows)
}

// idPlaceholders renders "?, ?, ?" and the matching args for an id list.
func idPlaceholders(ids []int64) (string, []any) {
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}
	return strings.Join(marks, ", "), args
}

func (s *SQLiteStore) MarkProcessing(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	marks, args := idPlaceholders(ids)
	args = append([]any{time.Now().UTC()}, args...)
	_, err := s.db.ExecContext(ctx,
		`UPDATE contractors SET processing_status = 'processing', updated_at = ? WHERE id IN (`+marks+`)`,
		args...)
	return eris.Wrap(err, "sqlite: mark processing")
}

func (s *SQLiteStore) UpdateResult(ctx context.Context, c *model.Contractor) error {
	analysisJSON, err := json.Marshal(c.Analysis)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal analysis")
	}
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE contractors SET
			website_url = ?, website_status = ?, website_confidence = ?,
			classification_confidence = ?, final_confidence = ?, policy_used = ?,
			category = ?, residential_focus = ?,
			processing_status = ?, review_status = ?, error_message = ?,
			analysis = ?, last_processed = ?, updated_at = ?
		WHERE id = ?`,
		c.WebsiteURL, c.WebsiteStatus, c.WebsiteConfidence,
		c.ClassificationConfidence, c.FinalConfidence, c.PolicyUsed,
		c.Category, c.ResidentialFocus,
		string(c.ProcessingStatus), string(c.ReviewStatus), c.ErrorMessage,
		string(analysisJSON), now, now, c.ID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update result %d", c.ID)
	}
	return checkRowsAffected(res, "contractor", c.ID)
}

func (s *SQLiteStore) SetError(ctx context.Context, id int64, msg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE contractors SET processing_status = 'error', error_message = ?,
		last_processed = ?, updated_at = ? WHERE id = ?`,
		msg, time.Now().UTC(), time.Now().UTC(), id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set error %d", id)
	}
	return checkRowsAffected(res, "contractor", id)
}

func (s *SQLiteStore) GetContractor(ctx context.Context, id int64) (*model.Contractor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+contractorColumns+` FROM contractors WHERE id = ?`, id)
	c, err := scanSQLContractor(row)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get contractor %d", id)
	}
	return c, nil
}

func (s *SQLiteStore) ListContractors(ctx context.Context, filter ListFilter) ([]model.Contractor, error) {
	query := `SELECT ` + contractorColumns + ` FROM contractors WHERE 1=1`
	var args []any

	if filter.ProcessingStatus != "" {
		query += ` AND processing_status = ?`
		args = append(args, string(filter.ProcessingStatus))
	}
	if filter.ReviewStatus != "" {
		query += ` AND review_status = ?`
		args = append(args, string(filter.ReviewStatus))
	}
	if filter.City != "" {
		query += ` AND upper(city) = upper(?)`
		args = append(args, filter.City)
	}
	query += ` ORDER BY id`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list contractors")
	}
	defer rows.Close() //nolint:errcheck
	return scanSQLContractors(rows)
}

func (s *SQLiteStore) ApplyReview(ctx context.Context, id int64, upd ReviewUpdate) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE contractors SET review_status = ?, reviewed_by = ?, review_notes = ?,
		reviewed_at = ?, updated_at = ? WHERE id = ?`,
		string(upd.Status), upd.ReviewedBy, upd.Notes, now, now, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: apply review %d", id)
	}
	return checkRowsAffected(res, "contractor", id)
}

func (s *SQLiteStore) ListExportable(ctx context.Context, limit int) ([]model.Contractor, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+contractorColumns+` FROM contractors
		WHERE review_status = 'approved_download' AND exported_at IS NULL
		ORDER BY id LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list exportable")
	}
	defer rows.Close() //nolint:errcheck
	return scanSQLContractors(rows)
}

func (s *SQLiteStore) MarkExported(ctx context.Context, ids []int64, batchID string) error {
	if len(ids) == 0 {
		return nil
	}
	marks, args := idPlaceholders(ids)
	args = append([]any{time.Now().UTC(), batchID, time.Now().UTC()}, args...)
	_, err := s.db.ExecContext(ctx,
		`UPDATE contractors SET exported_at = ?, export_batch_id = ?, updated_at = ? WHERE id IN (`+marks+`)`,
		args...)
	return eris.Wrap(err, "sqlite: mark exported")
}

func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		ByProcessing: make(map[string]int64),
		ByReview:     make(map[string]int64),
	}

	var lastProcessed sql.NullTime
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*),
			count(CASE WHEN website_status = 'found' THEN 1 END),
			count(exported_at),
			coalesce(avg(CASE WHEN processing_status = 'completed' THEN final_confidence END), 0),
			max(last_processed)
		FROM contractors`,
	).Scan(&stats.Total, &stats.WebsitesFound, &stats.Exported, &stats.AvgFinalConf, &lastProcessed)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats totals")
	}
	if lastProcessed.Valid {
		stats.LastProcessedAt = &lastProcessed.Time
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT processing_status, coalesce(review_status, ''), count(*)
		FROM contractors GROUP BY 1, 2`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: stats breakdown")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var proc, review string
		var n int64
		if err := rows.Scan(&proc, &review, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stats")
		}
		stats.ByProcessing[proc] += n
		if review != "" {
			stats.ByReview[review] += n
		}
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: stats iterate")
}

func checkRowsAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %d", kind, id)
	}
	return nil
}

// sqlRow abstracts *sql.Row and *sql.Rows for shared scanning.
type sqlRow interface {
	Scan(dest ...any) error
}

func scanSQLContractor(row sqlRow) (*model.Contractor, error) {
	var c model.Contractor
	var analysisJSON sql.NullString
	var (
		licenseType, phone, addr, city, state, zip, principal      sql.NullString
		websiteURL, websiteStatus, policyUsed, category            sql.NullString
		reviewStatus, errMsg, reviewedBy, reviewNotes, exportBatch sql.NullString
		classificationConf                                         sql.NullFloat64
		residentialFocus                                           sql.NullBool
		reviewedAt, exportedAt, lastProcessed                      sql.NullTime
	)

	err := row.Scan(&c.ID, &c.UUID, &c.BusinessName, &c.LicenseNumber, &licenseType,
		&phone, &addr, &city, &state, &zip, &principal,
		&websiteURL, &websiteStatus, &c.WebsiteConfidence, &classificationConf,
		&c.FinalConfidence, &policyUsed, &category, &residentialFocus,
		&c.ProcessingStatus, &reviewStatus, &errMsg, &analysisJSON,
		&reviewedBy, &reviewedAt, &reviewNotes, &exportedAt, &exportBatch,
		&lastProcessed, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	c.LicenseTypeDesc = licenseType.String
	c.PhoneNumber = phone.String
	c.Address1 = addr.String
	c.City = city.String
	c.State = state.String
	c.Zip = zip.String
	c.PrincipalName = principal.String
	c.WebsiteURL = websiteURL.String
	c.WebsiteStatus = websiteStatus.String
	c.PolicyUsed = policyUsed.String
	c.Category = category.String
	c.ErrorMessage = errMsg.String
	c.ReviewedBy = reviewedBy.String
	c.ReviewNotes = reviewNotes.String
	c.ExportBatchID = exportBatch.String
	c.ReviewStatus = model.ReviewStatus(reviewStatus.String)
	if classificationConf.Valid {
		c.ClassificationConfidence = &classificationConf.Float64
	}
	if residentialFocus.Valid {
		c.ResidentialFocus = &residentialFocus.Bool
	}
	if reviewedAt.Valid {
		c.ReviewedAt = &reviewedAt.Time
	}
	if exportedAt.Valid {
		c.ExportedAt = &exportedAt.Time
	}
	if lastProcessed.Valid {
		c.LastProcessed = &lastProcessed.Time
	}

	if analysisJSON.Valid && analysisJSON.String != "" {
		if err := json.Unmarshal([]byte(analysisJSON.String), &c.Analysis); err != nil {
			return nil, eris.Wrap(err, "unmarshal analysis")
		}
	}
	return &c, nil
}

func scanSQLContractors(rows *sql.Rows) ([]model.Contractor, error) {
	var out []model.Contractor
	for rows.Next() {
		c, err := scanSQLContractor(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contractor")
		}
		out = append(out, *c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate contractors")
}
