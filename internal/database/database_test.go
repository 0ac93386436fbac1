package database

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/taskhub-io/taskhub/internal/config"
)

// DatabaseTestSuite runs against a fresh SQLite file per test
type DatabaseTestSuite struct {
	suite.Suite
	path string
	db   *sqlx.DB
}

func (s *DatabaseTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "data", "taskhub_test.db")

	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = s.path

	db, err := Open(cfg)
	require.NoError(s.T(), err, "Database initialization should succeed")
	s.db = db
}

func (s *DatabaseTestSuite) TearDownTest() {
	if s.db != nil {
		s.db.Close()
	}
}

func TestDatabaseTestSuite(t *testing.T) {
	suite.Run(t, new(DatabaseTestSuite))
}

func (s *DatabaseTestSuite) TestAllMigrationsRecorded() {
	applied, err := AppliedMigrations(s.db)
	require.NoError(s.T(), err)

	for _, m := range GetMigrations(DriverSQLite) {
		assert.True(s.T(), applied[m.Version], "migration %d should be applied", m.Version)
	}
}

func (s *DatabaseTestSuite) TestTablesExist() {
	for _, table := range []string{"users", "tokens", "projects", "tasks", "schema_migrations"} {
		var name string
		err := s.db.Get(&name, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table)
		assert.NoError(s.T(), err, "table %s should exist", table)
		assert.Equal(s.T(), table, name)
	}
}

func (s *DatabaseTestSuite) TestRunMigrationsIsIdempotent() {
	require.NoError(s.T(), RunMigrations(s.db))

	var count int
	require.NoError(s.T(), s.db.Get(&count, "SELECT COUNT(*) FROM schema_migrations"))
	assert.Equal(s.T(), len(GetMigrations(DriverSQLite)), count)
}

func (s *DatabaseTestSuite) TestReopenKeepsData() {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ('u1', 'Ada', 'ada@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(s.T(), err)
	s.db.Close()

	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = s.path
	db, err := Open(cfg)
	require.NoError(s.T(), err)
	s.db = db

	var email string
	require.NoError(s.T(), s.db.Get(&email, "SELECT email FROM users WHERE id = 'u1'"))
	assert.Equal(s.T(), "ada@example.com", email)
}

func (s *DatabaseTestSuite) TestUniqueEmail() {
	insert := `INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES (?, 'Ada', 'ada@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`
	_, err := s.db.Exec(insert, "u1")
	require.NoError(s.T(), err)

	_, err = s.db.Exec(insert, "u2")
	assert.Error(s.T(), err)
}

func (s *DatabaseTestSuite) TestProjectDeleteCascadesToTasks() {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ('u1', 'Ada', 'ada@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(s.T(), err)
	_, err = s.db.Exec(`INSERT INTO projects (id, user_id, name, created_at, updated_at)
		VALUES ('p1', 'u1', 'Launch', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(s.T(), err)
	_, err = s.db.Exec(`INSERT INTO tasks (id, user_id, project_id, title, created_at, updated_at)
		VALUES ('t1', 'u1', 'p1', 'Write docs', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(s.T(), err)

	_, err = s.db.Exec("DELETE FROM projects WHERE id = 'p1'")
	require.NoError(s.T(), err)

	var count int
	require.NoError(s.T(), s.db.Get(&count, "SELECT COUNT(*) FROM tasks"))
	assert.Equal(s.T(), 0, count)
}

func (s *DatabaseTestSuite) TestTaskStatusCheck() {
	_, err := s.db.Exec(`INSERT INTO users (id, name, email, password_hash, created_at, updated_at)
		VALUES ('u1', 'Ada', 'ada@example.com', 'x', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(s.T(), err)
	_, err = s.db.Exec(`INSERT INTO projects (id, user_id, name, created_at, updated_at)
		VALUES ('p1', 'u1', 'Launch', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.NoError(s.T(), err)

	_, err = s.db.Exec(`INSERT INTO tasks (id, user_id, project_id, title, status, created_at, updated_at)
		VALUES ('t1', 'u1', 'p1', 'Write docs', 'blocked', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	assert.Error(s.T(), err)
}

func TestOpenUnsupportedType(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "oracle"

	_, err := Open(cfg)
	assert.Error(t, err)
}

func TestGetMigrationsPerDialect(t *testing.T) {
	sqlite := GetMigrations(DriverSQLite)
	postgres := GetMigrations(DriverPostgres)

	require.Equal(t, len(sqlite), len(postgres))
	for i := range sqlite {
		assert.Equal(t, sqlite[i].Version, postgres[i].Version)
		assert.Equal(t, i+1, sqlite[i].Version, "versions should be sequential")
	}
}
