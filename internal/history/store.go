package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/einvtw/einvoice-filer/internal/einvoice"
)

// ErrNotFound is returned when a staged record id does not exist.
var ErrNotFound = errors.New("staged record not found")

// Entry is one staged extraction: the parsed record plus where it came
// from and whether it has been filed to the portal.
type Entry struct {
	ID            int64                     `json:"id"`
	SourcePath    string                    `json:"source_path"`
	InvoiceNumber string                    `json:"invoice_number,omitempty"`
	Status        einvoice.Status           `json:"status"`
	Record        einvoice.SerializedRecord `json:"record"`
	Filed         bool                      `json:"filed"`
	CreatedAt     time.Time                 `json:"created_at"`
}

// Store persists staged invoice records in a SQLite database so parses
// survive restarts and filing can happen later.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS staged_records (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	source_path    TEXT NOT NULL,
	invoice_number TEXT NOT NULL DEFAULT '',
	status         TEXT NOT NULL,
	record         TEXT NOT NULL,
	filed          INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_staged_invoice_number ON staged_records(invoice_number);
`

// Open opens the staging database at path, creating it and its schema when
// missing. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open staging db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply staging schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stages a parsed record and returns its id.
func (s *Store) Save(ctx context.Context, sourcePath string, rec *einvoice.InvoiceRecord) (int64, error) {
	wire := rec.Serialize()
	payload, err := json.Marshal(wire)
	if err != nil {
		return 0, fmt.Errorf("encode staged record: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO staged_records (source_path, invoice_number, status, record, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sourcePath, wire.InvoiceNumber, string(wire.Status), string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("stage record: %w", err)
	}
	return result.LastInsertId()
}

// Get loads one staged entry by id.
func (s *Store) Get(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source_path, invoice_number, status, record, filed, created_at
		 FROM staged_records WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return entry, err
}

// List returns the most recent staged entries, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_path, invoice_number, status, record, filed, created_at
		 FROM staged_records ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list staged records: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// MarkFiled flags a staged entry as filed to the portal.
func (s *Store) MarkFiled(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE staged_records SET filed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark filed: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var status, payload, createdAt string
	var filed int

	if err := row.Scan(&entry.ID, &entry.SourcePath, &entry.InvoiceNumber,
		&status, &payload, &filed, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan staged record: %w", err)
	}

	entry.Status = einvoice.Status(status)
	entry.Filed = filed != 0
	if err := json.Unmarshal([]byte(payload), &entry.Record); err != nil {
		return nil, fmt.Errorf("decode staged record %d: %w", entry.ID, err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		entry.CreatedAt = t
	}
	return &entry, nil
}
