package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/HerbHall/managedrecords/pkg/models"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// RecordFilter controls which records are returned by List and Count.
type RecordFilter struct {
	Colors []string // Empty means all colors.
}

// RecordRepository provides read and seed access to stored records.
type RecordRepository interface {
	// Get returns a single record by ID.
	Get(ctx context.Context, id int64) (*models.Record, error)

	// List returns the filtered records ordered by ascending ID, windowed by opts.
	List(ctx context.Context, filter RecordFilter, opts ListOptions) ([]models.Record, error)

	// Count returns the number of records matching filter.
	Count(ctx context.Context, filter RecordFilter) (int, error)

	// InsertBatch inserts records in one transaction. A zero ID is assigned
	// by the database.
	InsertBatch(ctx context.Context, records []models.Record) error
}

// Compile-time interface guard.
var _ RecordRepository = (*SQLiteRecordRepository)(nil)

// SQLiteRecordRepository implements RecordRepository using SQLite.
// The records table must already exist (created by the recordstore module's migrations).
type SQLiteRecordRepository struct {
	db *sql.DB
}

// NewSQLiteRecordRepository creates a RecordRepository.
func NewSQLiteRecordRepository(db *sql.DB) *SQLiteRecordRepository {
	return &SQLiteRecordRepository{db: db}
}

const recordColumns = `id, color, disposition, extra`

func (r *SQLiteRecordRepository) Get(ctx context.Context, id int64) (*models.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM records WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get record %d: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRecordRepository) List(ctx context.Context, filter RecordFilter, opts ListOptions) ([]models.Record, error) {
	opts = normalizeListOptions(opts)

	where, args := filter.where()
	queryArgs := make([]any, 0, len(args)+2)
	queryArgs = append(queryArgs, args...)
	queryArgs = append(queryArgs, opts.Limit, opts.Offset)

	//nolint:gosec // where uses parameterized placeholders only
	query := "SELECT " + recordColumns + " FROM records WHERE " + where +
		" ORDER BY id ASC LIMIT ? OFFSET ?"

	rows, err := r.db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	out := []models.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		out = append(out, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (r *SQLiteRecordRepository) Count(ctx context.Context, filter RecordFilter) (int, error) {
	where, args := filter.where()
	var total int
	//nolint:gosec // where uses parameterized placeholders only
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE "+where, args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return total, nil
}

func (r *SQLiteRecordRepository) InsertBatch(ctx context.Context, records []models.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO records (id, color, disposition, extra) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		extra := "{}"
		if len(rec.Extra) > 0 {
			b, err := json.Marshal(rec.Extra)
			if err != nil {
				return fmt.Errorf("encode extra for record %d: %w", rec.ID, err)
			}
			extra = string(b)
		}

		var id any
		if rec.ID != 0 {
			id = rec.ID
		}
		res, err := stmt.ExecContext(ctx, id, rec.Color, rec.Disposition, extra)
		if err != nil {
			if isConstraintError(err) {
				return fmt.Errorf("insert record %d: %w", rec.ID, ErrAlreadyExists)
			}
			return fmt.Errorf("insert record %d: %w", rec.ID, err)
		}
		if rec.ID == 0 {
			if newID, err := res.LastInsertId(); err == nil {
				rec.ID = newID
			}
		}
	}

	return tx.Commit()
}

// where builds a parameterized WHERE clause for the filter.
func (f RecordFilter) where() (string, []any) {
	if len(f.Colors) == 0 {
		return "1=1", nil
	}
	placeholders := make([]string, len(f.Colors))
	args := make([]any, len(f.Colors))
	for i, c := range f.Colors {
		placeholders[i] = "?"
		args[i] = c
	}
	return "color IN (" + strings.Join(placeholders, ", ") + ")", args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var rec models.Record
	var extra string
	if err := row.Scan(&rec.ID, &rec.Color, &rec.Disposition, &extra); err != nil {
		return nil, err
	}
	if extra != "" && extra != "{}" {
		if err := json.Unmarshal([]byte(extra), &rec.Extra); err != nil {
			return nil, fmt.Errorf("decode extra for record %d: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func isConstraintError(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
