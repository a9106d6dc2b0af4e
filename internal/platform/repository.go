package platform

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// EntryRepository defines the interface for config entry persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type EntryRepository interface {
	// GetByID retrieves an entry by its unique identifier.
	// Returns ErrEntryNotFound if the entry does not exist.
	GetByID(ctx context.Context, id string) (*ConfigEntry, error)

	// List retrieves all entries ordered by domain then title.
	List(ctx context.Context) ([]ConfigEntry, error)

	// ListByDomain retrieves all entries for one integration domain.
	ListByDomain(ctx context.Context, domain string) ([]ConfigEntry, error)

	// Create inserts a new entry.
	// Returns ErrEntryExists if the (domain, unique_id) pair is taken.
	Create(ctx context.Context, entry *ConfigEntry) error

	// Update modifies an existing entry.
	// Returns ErrEntryNotFound if the entry does not exist.
	Update(ctx context.Context, entry *ConfigEntry) error

	// UpdateState updates only the lifecycle state and reason.
	// Returns ErrEntryNotFound if the entry does not exist.
	UpdateState(ctx context.Context, id string, state EntryState, reason string) error

	// Delete removes an entry by ID.
	// Returns ErrEntryNotFound if the entry does not exist.
	Delete(ctx context.Context, id string) error
}

// SQLiteEntryRepository implements EntryRepository using SQLite.
type SQLiteEntryRepository struct {
	db *sql.DB
}

// NewSQLiteEntryRepository creates a new SQLite-backed entry repository.
// The db parameter should be an open SQLite connection with the
// config_entries migration applied.
func NewSQLiteEntryRepository(db *sql.DB) *SQLiteEntryRepository {
	return &SQLiteEntryRepository{db: db}
}

const entryColumns = `id, domain, title, unique_id, data, options, state, state_reason, created_at, updated_at`

// GetByID retrieves an entry by its unique identifier.
func (r *SQLiteEntryRepository) GetByID(ctx context.Context, id string) (*ConfigEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM config_entries WHERE id = ?`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, fmt.Errorf("querying entry by id: %w", err)
	}
	return entry, nil
}

// List retrieves all entries ordered by domain then title.
func (r *SQLiteEntryRepository) List(ctx context.Context) ([]ConfigEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM config_entries ORDER BY domain, title`
	return r.queryEntries(ctx, query)
}

// ListByDomain retrieves all entries for one integration domain.
func (r *SQLiteEntryRepository) ListByDomain(ctx context.Context, domain string) ([]ConfigEntry, error) {
	query := `SELECT ` + entryColumns + ` FROM config_entries WHERE domain = ? ORDER BY title`
	return r.queryEntries(ctx, query, domain)
}

// Create inserts a new entry.
func (r *SQLiteEntryRepository) Create(ctx context.Context, entry *ConfigEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	data, options, err := marshalEntryMaps(entry)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO config_entries (` + entryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID, entry.Domain, entry.Title, nullString(entry.UniqueID),
		data, options, string(entry.State), entry.StateReason,
		formatTime(entry.CreatedAt), formatTime(entry.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: domain %q unique_id %q", ErrEntryExists, entry.Domain, entry.UniqueID)
		}
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

// Update modifies an existing entry.
func (r *SQLiteEntryRepository) Update(ctx context.Context, entry *ConfigEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	data, options, err := marshalEntryMaps(entry)
	if err != nil {
		return err
	}

	entry.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE config_entries
		SET domain = ?, title = ?, unique_id = ?, data = ?, options = ?,
			state = ?, state_reason = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		entry.Domain, entry.Title, nullString(entry.UniqueID), data, options,
		string(entry.State), entry.StateReason, formatTime(entry.UpdatedAt),
		entry.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: domain %q unique_id %q", ErrEntryExists, entry.Domain, entry.UniqueID)
		}
		return fmt.Errorf("updating entry: %w", err)
	}
	return requireRowAffected(result)
}

// UpdateState updates only the lifecycle state and reason.
func (r *SQLiteEntryRepository) UpdateState(ctx context.Context, id string, state EntryState, reason string) error {
	query := `
		UPDATE config_entries
		SET state = ?, state_reason = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		string(state), reason, formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("updating entry state: %w", err)
	}
	return requireRowAffected(result)
}

// Delete removes an entry by ID.
func (r *SQLiteEntryRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM config_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting entry: %w", err)
	}
	return requireRowAffected(result)
}

// queryEntries executes a multi-row query and scans the results.
func (r *SQLiteEntryRepository) queryEntries(ctx context.Context, query string, args ...any) ([]ConfigEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []ConfigEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

// rowScanner abstracts sql.Row and sql.Rows for shared scanning logic.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one config_entries row into a ConfigEntry.
func scanEntry(row rowScanner) (*ConfigEntry, error) {
	var (
		entry              ConfigEntry
		uniqueID           sql.NullString
		dataJSON           string
		optionsJSON        string
		state              string
		createdAt, updated string
	)

	err := row.Scan(&entry.ID, &entry.Domain, &entry.Title, &uniqueID,
		&dataJSON, &optionsJSON, &state, &entry.StateReason,
		&createdAt, &updated)
	if err != nil {
		return nil, err
	}

	entry.UniqueID = uniqueID.String
	entry.State = EntryState(state)

	if err := json.Unmarshal([]byte(dataJSON), &entry.Data); err != nil {
		return nil, fmt.Errorf("unmarshalling entry data: %w", err)
	}
	if err := json.Unmarshal([]byte(optionsJSON), &entry.Options); err != nil {
		return nil, fmt.Errorf("unmarshalling entry options: %w", err)
	}
	if entry.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if entry.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &entry, nil
}

// marshalEntryMaps serialises Data and Options for storage.
func marshalEntryMaps(entry *ConfigEntry) (data string, options string, err error) {
	dataBytes, err := json.Marshal(entry.Data)
	if err != nil {
		return "", "", fmt.Errorf("marshalling entry data: %w", err)
	}
	optionsBytes, err := json.Marshal(entry.Options)
	if err != nil {
		return "", "", fmt.Errorf("marshalling entry options: %w", err)
	}
	return string(dataBytes), string(optionsBytes), nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// isUniqueViolation reports whether err is a SQLite unique constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// requireRowAffected converts a zero-row UPDATE/DELETE into ErrEntryNotFound.
func requireRowAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return ErrEntryNotFound
	}
	return nil
}
