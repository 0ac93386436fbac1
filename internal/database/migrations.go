package database

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns all database migrations for the given driver
func GetMigrations(driver string) []Migration {
	if driver == DriverPostgres {
		return getPostgresMigrations()
	}
	return getSQLiteMigrations()
}

// getPostgresMigrations returns PostgreSQL migrations
func getPostgresMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				email VARCHAR(255) NOT NULL,
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		},
		{
			Version:     2,
			Description: "Create tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS tokens (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				token_hash CHAR(64) NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_used_at TIMESTAMP WITH TIME ZONE
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_tokens_token_hash ON tokens(token_hash);
			CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id)`,
		},
		{
			Version:     3,
			Description: "Create projects table",
			SQL: `CREATE TABLE IF NOT EXISTS projects (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				name VARCHAR(255) NOT NULL,
				description TEXT,
				due_date DATE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id)`,
		},
		{
			Version:     4,
			Description: "Create tasks table",
			SQL: `CREATE TABLE IF NOT EXISTS tasks (
				id UUID PRIMARY KEY,
				user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
				title VARCHAR(255) NOT NULL,
				description TEXT,
				status VARCHAR(20) NOT NULL DEFAULT 'pending'
					CHECK (status IN ('pending', 'in-progress', 'done')),
				due_date DATE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		},
	}
}

// getSQLiteMigrations returns SQLite migrations
func getSQLiteMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create users table",
			SQL: `CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email)`,
		},
		{
			Version:     2,
			Description: "Create tokens table",
			SQL: `CREATE TABLE IF NOT EXISTS tokens (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				name TEXT NOT NULL,
				token_hash TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				last_used_at DATETIME,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);
			CREATE UNIQUE INDEX IF NOT EXISTS idx_tokens_token_hash ON tokens(token_hash);
			CREATE INDEX IF NOT EXISTS idx_tokens_user_id ON tokens(user_id)`,
		},
		{
			Version:     3,
			Description: "Create projects table",
			SQL: `CREATE TABLE IF NOT EXISTS projects (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				name TEXT NOT NULL,
				description TEXT,
				due_date TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id)`,
		},
		{
			Version:     4,
			Description: "Create tasks table",
			SQL: `CREATE TABLE IF NOT EXISTS tasks (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				project_id TEXT NOT NULL,
				title TEXT NOT NULL,
				description TEXT,
				status TEXT NOT NULL DEFAULT 'pending'
					CHECK (status IN ('pending', 'in-progress', 'done')),
				due_date TEXT,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
				FOREIGN KEY (project_id) REFERENCES projects(id) ON DELETE CASCADE
			);
			CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_project_id ON tasks(project_id);
			CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status)`,
		},
	}
}

// createMigrationsTable creates the migrations tracking table
func createMigrationsTable(db *sqlx.DB) error {
	query := `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if db.DriverName() == DriverPostgres {
		query = `CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
		)`
	}

	_, err := db.Exec(query)
	return err
}

// AppliedMigrations returns the set of applied migration versions
func AppliedMigrations(db *sqlx.DB) (map[int]bool, error) {
	applied := make(map[int]bool)

	var versions []int
	if err := db.Select(&versions, "SELECT version FROM schema_migrations"); err != nil {
		return applied, err
	}
	for _, v := range versions {
		applied[v] = true
	}
	return applied, nil
}

// RunMigrations runs all pending migrations, each inside its own transaction
func RunMigrations(db *sqlx.DB) error {
	if err := createMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := AppliedMigrations(db)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range GetMigrations(db.DriverName()) {
		if applied[migration.Version] {
			continue
		}

		log.Printf("[DB] Applying migration %d: %s", migration.Version, migration.Description)
		if err := applyMigration(db, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

func applyMigration(db *sqlx.DB, migration Migration) error {
	tx, err := db.BeginTxx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(migration.SQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(tx.Rebind("INSERT INTO schema_migrations (version) VALUES (?)"), migration.Version); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit()
}
