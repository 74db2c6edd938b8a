// Package units provides the relational unit catalog backing the
// ingestion pipeline. Units are stored in SQLite with automatic schema
// initialization; the vector store persists separately.
package units

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/wattlelabs/advisord/internal/sources"
)

const schema = `
CREATE TABLE IF NOT EXISTS units (
	unit_code TEXT PRIMARY KEY,
	title TEXT,
	description TEXT,
	credit_points INTEGER,
	year_level INTEGER,
	raw_prerequisites TEXT,
	raw_corequisites TEXT
);
CREATE TABLE IF NOT EXISTS learning_outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	unit_code TEXT,
	outcome_text TEXT,
	FOREIGN KEY (unit_code) REFERENCES units (unit_code)
);
CREATE TABLE IF NOT EXISTS prerequisites (
	unit_code TEXT,
	prerequisite_code TEXT,
	PRIMARY KEY (unit_code, prerequisite_code),
	FOREIGN KEY (unit_code) REFERENCES units (unit_code)
);
`

// Unit aliases sources.Unit so the catalog and the ingestion pipeline
// share a single record shape.
type Unit = sources.Unit

// Store is a SQLite-backed unit catalog.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the unit catalog at the given path.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	// WAL mode for better concurrency between the scraper and the server.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	logger.Info("unit catalog opened", zap.String("path", path))

	return &Store{db: db, logger: logger}, nil
}

// Save inserts or replaces a unit and its child rows.
func (s *Store) Save(ctx context.Context, u Unit) error {
	if u.UnitCode == "" {
		return fmt.Errorf("unit code required")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO units
		(unit_code, title, description, credit_points, year_level, raw_prerequisites, raw_corequisites)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.UnitCode, u.Title, u.Description, u.CreditPoints, u.YearLevel, u.RawPrerequisites, u.RawCorequisites,
	)
	if err != nil {
		return fmt.Errorf("saving unit %s: %w", u.UnitCode, err)
	}

	// Child rows are replaced wholesale; source records are re-derived,
	// not mutated in place.
	if _, err := tx.ExecContext(ctx, `DELETE FROM learning_outcomes WHERE unit_code = ?`, u.UnitCode); err != nil {
		return fmt.Errorf("clearing outcomes for %s: %w", u.UnitCode, err)
	}
	for _, outcome := range u.LearningOutcomes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO learning_outcomes (unit_code, outcome_text) VALUES (?, ?)`,
			u.UnitCode, outcome,
		); err != nil {
			return fmt.Errorf("saving outcome for %s: %w", u.UnitCode, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM prerequisites WHERE unit_code = ?`, u.UnitCode); err != nil {
		return fmt.Errorf("clearing prerequisites for %s: %w", u.UnitCode, err)
	}
	for _, prereq := range u.Prerequisites {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO prerequisites (unit_code, prerequisite_code) VALUES (?, ?)`,
			u.UnitCode, prereq,
		); err != nil {
			return fmt.Errorf("saving prerequisite for %s: %w", u.UnitCode, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing unit %s: %w", u.UnitCode, err)
	}

	s.logger.Debug("unit saved",
		zap.String("unit_code", u.UnitCode),
		zap.Int("outcomes", len(u.LearningOutcomes)),
		zap.Int("prerequisites", len(u.Prerequisites)),
	)

	return nil
}

// Get returns a single unit by code, or sql.ErrNoRows if absent.
func (s *Store) Get(ctx context.Context, unitCode string) (*Unit, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT unit_code, title, description, credit_points, year_level, raw_prerequisites, raw_corequisites
		FROM units WHERE unit_code = ?`, unitCode)

	var u Unit
	if err := row.Scan(&u.UnitCode, &u.Title, &u.Description, &u.CreditPoints, &u.YearLevel, &u.RawPrerequisites, &u.RawCorequisites); err != nil {
		return nil, fmt.Errorf("loading unit %s: %w", unitCode, err)
	}

	if err := s.loadChildren(ctx, &u); err != nil {
		return nil, err
	}

	return &u, nil
}

// All returns every unit in the catalog with outcomes and prerequisites.
func (s *Store) All(ctx context.Context) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT unit_code, title, description, credit_points, year_level, raw_prerequisites, raw_corequisites
		FROM units ORDER BY unit_code`)
	if err != nil {
		return nil, fmt.Errorf("listing units: %w", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var u Unit
		if err := rows.Scan(&u.UnitCode, &u.Title, &u.Description, &u.CreditPoints, &u.YearLevel, &u.RawPrerequisites, &u.RawCorequisites); err != nil {
			return nil, fmt.Errorf("scanning unit: %w", err)
		}
		units = append(units, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating units: %w", err)
	}

	for i := range units {
		if err := s.loadChildren(ctx, &units[i]); err != nil {
			return nil, err
		}
	}

	return units, nil
}

// loadChildren populates learning outcomes and prerequisite codes.
func (s *Store) loadChildren(ctx context.Context, u *Unit) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT outcome_text FROM learning_outcomes WHERE unit_code = ? ORDER BY id`, u.UnitCode)
	if err != nil {
		return fmt.Errorf("loading outcomes for %s: %w", u.UnitCode, err)
	}
	defer rows.Close()

	u.LearningOutcomes = nil
	for rows.Next() {
		var outcome string
		if err := rows.Scan(&outcome); err != nil {
			return fmt.Errorf("scanning outcome: %w", err)
		}
		u.LearningOutcomes = append(u.LearningOutcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating outcomes: %w", err)
	}

	prows, err := s.db.QueryContext(ctx,
		`SELECT prerequisite_code FROM prerequisites WHERE unit_code = ? ORDER BY prerequisite_code`, u.UnitCode)
	if err != nil {
		return fmt.Errorf("loading prerequisites for %s: %w", u.UnitCode, err)
	}
	defer prows.Close()

	u.Prerequisites = nil
	for prows.Next() {
		var code string
		if err := prows.Scan(&code); err != nil {
			return fmt.Errorf("scanning prerequisite: %w", err)
		}
		u.Prerequisites = append(u.Prerequisites, code)
	}
	if err := prows.Err(); err != nil {
		return fmt.Errorf("iterating prerequisites: %w", err)
	}

	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
