package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "contractors",
		Columns:      []string{"license_number", "business_name"},
		ConflictKeys: []string{"license_number"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:        "contractors",
		ConflictKeys: []string{"license_number"},
	}, [][]any{{"EVERGPL123RD", "Evergreen Plumbing"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.TODO(), nil, UpsertConfig{
		Table:   "contractors",
		Columns: []string{"license_number", "business_name"},
	}, [][]any{{"EVERGPL123RD", "Evergreen Plumbing"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"license_number", "business_name", "city"}
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_contractors"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_contractors"}, cols).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "contractors"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	rows := [][]any{
		{"EVERGPL123RD", "Evergreen Plumbing LLC", "Kirkland"},
		{"RAINIRR456GH", "Rainier Roofing", "Tacoma"},
	}
	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        "contractors",
		Columns:      cols,
		ConflictKeys: []string{"license_number"},
	}, rows)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSanitizeTable(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"contractors", `"contractors"`},
		{"licensing.contractors", `"licensing"."contractors"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := sanitizeTable(tt.input)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"license_number", "business_name", "city"})
	assert.Equal(t, `"license_number", "business_name", "city"`, result)
}
