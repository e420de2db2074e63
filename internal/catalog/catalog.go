// Package catalog persists imported tables in a local SQLite database.
// The parser itself accepts no prior state; reconciling a fresh parse
// with previously imported tables happens here, by case-insensitive
// target-name deduplication.
package catalog

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/layerline-io/layerline/internal/layer"
	"github.com/layerline-io/layerline/internal/schema"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a SQLite-backed table catalog.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// NewStore creates a catalog store. A nil logger discards.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{logger: logger}
}

// Open opens the catalog database. Use ":memory:" for an in-memory
// catalog.
func (s *Store) Open(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open catalog database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping catalog database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the catalog database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs all pending schema migrations.
func (s *Store) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("catalog not opened")
	}
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	if err := goose.Up(s.db, "migrations"); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// ImportResult reports the outcome of a merge.
type ImportResult struct {
	// Imported are table names newly added to the catalog.
	Imported []string
	// Skipped are table names that collided case-insensitively with an
	// already-cataloged table and were left untouched.
	Skipped []string
}

// Import merges parsed tables into the catalog. A table whose name
// collides case-insensitively with an existing catalog entry is
// skipped; the existing entry wins. Each call is one transaction.
func (s *Store) Import(tables []*schema.Table) (*ImportResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("catalog not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result := &ImportResult{}
	now := time.Now().UTC()

	for _, t := range tables {
		var existing string
		err := tx.QueryRow(
			`SELECT name FROM catalog_tables WHERE name_lower = ?`,
			strings.ToLower(t.Name),
		).Scan(&existing)
		switch {
		case err == nil:
			s.logger.Debug("skipping duplicate table", "name", t.Name, "existing", existing)
			result.Skipped = append(result.Skipped, t.Name)
			continue
		case err != sql.ErrNoRows:
			return nil, fmt.Errorf("failed to check for duplicate %s: %w", t.Name, err)
		}

		if missing := missingKeyColumns(t); len(missing) > 0 {
			// Permissive on purpose: noisy input may name key columns
			// the parser never saw. Imported as-is, with a warning.
			s.logger.Warn("primary key columns missing from column list",
				"table", t.Name, "columns", missing)
		}

		if err := insertTable(tx, t, now); err != nil {
			return nil, err
		}
		result.Imported = append(result.Imported, t.Name)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}
	s.logger.Debug("import complete",
		"imported", len(result.Imported), "skipped", len(result.Skipped))
	return result, nil
}

func insertTable(tx *sql.Tx, t *schema.Table, now time.Time) error {
	columns, err := json.Marshal(t.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns for %s: %w", t.Name, err)
	}
	primaryKey, err := json.Marshal(t.PrimaryKey)
	if err != nil {
		return fmt.Errorf("failed to encode primary key for %s: %w", t.Name, err)
	}

	tableID := uuid.New().String()
	_, err = tx.Exec(
		`INSERT INTO catalog_tables (id, name, name_lower, layer, columns, primary_key, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tableID, t.Name, strings.ToLower(t.Name), string(t.Layer), string(columns), string(primaryKey), now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert table %s: %w", t.Name, err)
	}

	for i, ref := range t.Sources {
		sourceID := uuid.New().String()
		_, err = tx.Exec(
			`INSERT INTO catalog_sources (id, table_id, source_table, position) VALUES (?, ?, ?, ?)`,
			sourceID, tableID, ref.SourceTable, i,
		)
		if err != nil {
			return fmt.Errorf("failed to insert source for %s: %w", t.Name, err)
		}
		for j, m := range ref.Mappings {
			_, err = tx.Exec(
				`INSERT INTO catalog_mappings (id, source_id, source_field, target_field, transformation, position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				uuid.New().String(), sourceID, m.SourceField, m.TargetField, m.Transformation, j,
			)
			if err != nil {
				return fmt.Errorf("failed to insert mapping for %s: %w", t.Name, err)
			}
		}
	}
	return nil
}

func missingKeyColumns(t *schema.Table) []string {
	var missing []string
	for _, k := range t.PrimaryKey {
		if !t.HasColumn(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

// Get returns the cataloged table with the given name, matched
// case-insensitively. The second return value is false when the
// catalog has no such table.
func (s *Store) Get(name string) (*schema.Table, bool, error) {
	if s.db == nil {
		return nil, false, fmt.Errorf("catalog not opened")
	}

	var id string
	t := &schema.Table{}
	var columns, primaryKey, layerName string
	err := s.db.QueryRow(
		`SELECT id, name, layer, columns, primary_key FROM catalog_tables WHERE name_lower = ?`,
		strings.ToLower(name),
	).Scan(&id, &t.Name, &layerName, &columns, &primaryKey)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load table %s: %w", name, err)
	}

	t.Layer = layer.Layer(layerName)
	t.ID = t.Layer.Prefix() + "-" + t.Name
	if err := json.Unmarshal([]byte(columns), &t.Columns); err != nil {
		return nil, false, fmt.Errorf("failed to decode columns for %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(primaryKey), &t.PrimaryKey); err != nil {
		return nil, false, fmt.Errorf("failed to decode primary key for %s: %w", name, err)
	}
	if err := s.loadSources(id, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (s *Store) loadSources(tableID string, t *schema.Table) error {
	rows, err := s.db.Query(
		`SELECT id, source_table FROM catalog_sources WHERE table_id = ? ORDER BY position`,
		tableID,
	)
	if err != nil {
		return fmt.Errorf("failed to load sources for %s: %w", t.Name, err)
	}
	defer func() { _ = rows.Close() }()

	type sourceRow struct {
		id  string
		ref *schema.SourceReference
	}
	var sources []sourceRow
	for rows.Next() {
		var sr sourceRow
		sr.ref = &schema.SourceReference{}
		if err := rows.Scan(&sr.id, &sr.ref.SourceTable); err != nil {
			return fmt.Errorf("failed to scan source for %s: %w", t.Name, err)
		}
		sources = append(sources, sr)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate sources for %s: %w", t.Name, err)
	}

	for _, sr := range sources {
		if err := s.loadMappings(sr.id, sr.ref); err != nil {
			return err
		}
		t.Sources = append(t.Sources, sr.ref)
	}
	return nil
}

func (s *Store) loadMappings(sourceID string, ref *schema.SourceReference) error {
	rows, err := s.db.Query(
		`SELECT source_field, target_field, transformation
		 FROM catalog_mappings WHERE source_id = ? ORDER BY position`,
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to load mappings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var m schema.FieldMapping
		if err := rows.Scan(&m.SourceField, &m.TargetField, &m.Transformation); err != nil {
			return fmt.Errorf("failed to scan mapping: %w", err)
		}
		ref.Mappings = append(ref.Mappings, m)
	}
	return rows.Err()
}

// List returns all cataloged tables sorted by layer (origination
// first), then name.
func (s *Store) List() ([]*schema.Table, error) {
	if s.db == nil {
		return nil, fmt.Errorf("catalog not opened")
	}

	rows, err := s.db.Query(`SELECT name FROM catalog_tables`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	tables := make([]*schema.Table, 0, len(names))
	for _, name := range names {
		t, ok, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		if ok {
			tables = append(tables, t)
		}
	}

	rank := map[layer.Layer]int{layer.Origination: 0, layer.Foundational: 1, layer.Consumption: 2}
	sort.Slice(tables, func(i, j int) bool {
		if tables[i].Layer != tables[j].Layer {
			return rank[tables[i].Layer] < rank[tables[j].Layer]
		}
		return tables[i].Name < tables[j].Name
	})
	return tables, nil
}

// Count returns the number of cataloged tables.
func (s *Store) Count() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("catalog not opened")
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM catalog_tables`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count tables: %w", err)
	}
	return n, nil
}
