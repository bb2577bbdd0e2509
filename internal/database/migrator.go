package database

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migrator applies the SQL files in a migrations directory once each,
// in filename order, recording them in schema_migrations.
type Migrator struct {
	pool          *pgxpool.Pool
	migrationsFS  fs.FS  // embedded migrations (optional)
	migrationsDir string // directory inside migrationsFS, or on disk
	include       func(filename string) bool
}

// NewMigrator creates a migration runner reading ./migrations from disk.
func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{
		pool:          pool,
		migrationsDir: "migrations",
	}
}

// NewMigratorWithFS creates a migration runner over an embedded filesystem.
// Use "." as migrationsDir when the files sit at the root of the FS.
func NewMigratorWithFS(pool *pgxpool.Pool, migrationsFS fs.FS, migrationsDir string) *Migrator {
	return &Migrator{
		pool:          pool,
		migrationsFS:  migrationsFS,
		migrationsDir: migrationsDir,
	}
}

// Only restricts the run to files accepted by include. The server and a
// check-in station share one migrations directory but not one schema.
func (m *Migrator) Only(include func(filename string) bool) *Migrator {
	m.include = include
	return m
}

// RunMigrations applies every migration not yet recorded. Files whose name
// contains "reset" are never applied automatically.
func (m *Migrator) RunMigrations(ctx context.Context) error {
	log.Println("[Migrator] Starting database migrations...")

	if err := m.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := m.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	files, err := m.migrationFiles()
	if err != nil {
		return err
	}

	migrationsRun := 0
	for _, filename := range files {
		if strings.Contains(filename, "reset") {
			log.Printf("[Migrator]   ⊘ Skipping: %s (reset script)", filename)
			continue
		}
		if m.include != nil && !m.include(filename) {
			continue
		}
		if applied[filename] {
			continue
		}

		content, err := m.readFile(filename)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", filename, err)
		}

		log.Printf("[Migrator]   → Running: %s", filename)
		statements := splitSQLStatements(string(content))
		for i, stmt := range statements {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" || stmt == ";" {
				continue
			}
			if _, err := m.pool.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to run migration %s (statement %d): %w", filename, i+1, err)
			}
		}

		if err := m.recordMigration(ctx, filename); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", filename, err)
		}
		migrationsRun++
	}

	if migrationsRun > 0 {
		log.Printf("[Migrator] ✓ Applied %d new migration(s)", migrationsRun)
	} else {
		log.Println("[Migrator] ✓ Database is up to date")
	}
	return nil
}

func (m *Migrator) migrationFiles() ([]string, error) {
	var entries []fs.DirEntry
	var err error
	if m.migrationsFS != nil {
		entries, err = fs.ReadDir(m.migrationsFS, m.migrationsDir)
	} else {
		entries, err = os.ReadDir(m.migrationsDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func (m *Migrator) readFile(filename string) ([]byte, error) {
	if m.migrationsFS != nil {
		return fs.ReadFile(m.migrationsFS, path.Join(m.migrationsDir, filename))
	}
	return os.ReadFile(path.Join(m.migrationsDir, filename))
}

func (m *Migrator) createMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			id SERIAL PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`)
	return err
}

func (m *Migrator) getAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := m.pool.Query(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var filename string
		if err := rows.Scan(&filename); err != nil {
			return nil, err
		}
		applied[filename] = true
	}
	return applied, rows.Err()
}

// splitSQLStatements splits SQL content into individual statements.
// Semicolons inside $$ blocks do not end a statement.
func splitSQLStatements(content string) []string {
	var statements []string
	var current strings.Builder
	dollarQuoteDepth := 0

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		dollarQuoteDepth += strings.Count(line, "$$")

		current.WriteString(line)
		current.WriteString("\n")

		if dollarQuoteDepth%2 == 0 && strings.HasSuffix(trimmed, ";") && !strings.HasPrefix(trimmed, "--") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" && !isCommentOnly(remaining) {
		statements = append(statements, remaining)
	}
	return statements
}

func isCommentOnly(s string) bool {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			return false
		}
	}
	return true
}

func (m *Migrator) recordMigration(ctx context.Context, filename string) error {
	_, err := m.pool.Exec(ctx, `
		INSERT INTO schema_migrations (filename)
		VALUES ($1)
		ON CONFLICT (filename) DO NOTHING`, filename)
	return err
}
