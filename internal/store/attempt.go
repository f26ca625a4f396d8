package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Attempt is the stored verdict of one finalized gesture.
// Cost is nil when no comparison could be made.
type Attempt struct {
	ID              string
	SessionID       string
	Result          string
	Cost            *float64
	ReferencePoints int
	CurrentPoints   int
	CreatedAt       time.Time
}

// AttemptRepository provides access to the match history.
type AttemptRepository struct {
	db *sql.DB
}

// Attempts returns the attempt repository for this store.
func (s *Store) Attempts() *AttemptRepository {
	return &AttemptRepository{db: s.db}
}

// Create inserts a new attempt into the database.
// An empty ID is replaced with a new UUID. CreatedAt is set to now when zero
// and is stored in UTC so that stored times order correctly.
func (r *AttemptRepository) Create(a *Attempt) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.UTC()

	var cost sql.NullFloat64
	if a.Cost != nil {
		cost = sql.NullFloat64{Float64: *a.Cost, Valid: true}
	}

	_, err := r.db.Exec(
		`INSERT INTO attempts (id, session_id, result, cost, reference_points, current_points, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SessionID, a.Result, cost, a.ReferencePoints, a.CurrentPoints, a.CreatedAt,
	)
	return err
}

// GetByID retrieves an attempt by its ID.
func (r *AttemptRepository) GetByID(id string) (*Attempt, error) {
	row := r.db.QueryRow(
		`SELECT id, session_id, result, cost, reference_points, current_points, created_at
		 FROM attempts WHERE id = ?`,
		id,
	)

	a, err := scanAttempt(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List retrieves the most recent attempts, newest first.
// A non-positive limit returns every attempt.
func (r *AttemptRepository) List(limit int) ([]*Attempt, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := r.db.Query(
		`SELECT id, session_id, result, cost, reference_points, current_points, created_at
		 FROM attempts ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []*Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return attempts, nil
}

// CountByResult returns how many attempts ended with each result.
func (r *AttemptRepository) CountByResult() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT result, COUNT(*) FROM attempts GROUP BY result`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var result string
		var n int
		if err := rows.Scan(&result, &n); err != nil {
			return nil, err
		}
		counts[result] = n
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return counts, nil
}

// DeleteBefore removes attempts created before t and returns how many were removed.
func (r *AttemptRepository) DeleteBefore(t time.Time) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM attempts WHERE created_at < ?`, t.UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAttempt(sc scanner) (*Attempt, error) {
	a := &Attempt{}
	var cost sql.NullFloat64

	err := sc.Scan(&a.ID, &a.SessionID, &a.Result, &cost, &a.ReferencePoints, &a.CurrentPoints, &a.CreatedAt)
	if err != nil {
		return nil, err
	}

	if cost.Valid {
		c := cost.Float64
		a.Cost = &c
	}
	return a, nil
}
