package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/taskhub-io/taskhub/internal/config"
	"github.com/taskhub-io/taskhub/internal/database"
	"github.com/taskhub-io/taskhub/internal/models"
	"github.com/taskhub-io/taskhub/internal/validator"
)

type StoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
	alice *models.User
	bob   *models.User
}

func (s *StoreTestSuite) SetupTest() {
	cfg := &config.Config{}
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = filepath.Join(s.T().TempDir(), "store.db")

	db, err := database.Open(cfg)
	require.NoError(s.T(), err)
	s.T().Cleanup(func() { db.Close() })

	s.store = New(db)
	s.ctx = context.Background()
	s.alice = s.createUser("Alice", "alice@example.com")
	s.bob = s.createUser("Bob", "bob@example.com")
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) createUser(name, email string) *models.User {
	now := time.Now().UTC()
	u := &models.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  "$2a$04$hash",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(s.T(), s.store.CreateUser(s.ctx, u))
	return u
}

func (s *StoreTestSuite) createProject(owner *models.User, name string) *models.Project {
	now := time.Now().UTC()
	p := &models.Project{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	require.NoError(s.T(), s.store.CreateProject(s.ctx, owner.ID, p))
	return p
}

func (s *StoreTestSuite) createTask(owner *models.User, projectID, title string, status models.TaskStatus) *models.Task {
	now := time.Now().UTC()
	t := &models.Task{ID: uuid.NewString(), ProjectID: projectID, Title: title, Status: status, CreatedAt: now, UpdatedAt: now}
	require.NoError(s.T(), s.store.CreateTask(s.ctx, owner.ID, t))
	return t
}

func (s *StoreTestSuite) TestCreateUserNormalizesEmail() {
	u := s.createUser("Carol", "  Carol@Example.COM ")
	assert.Equal(s.T(), "carol@example.com", u.Email)

	got, err := s.store.GetUserByEmail(s.ctx, "CAROL@example.com")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), u.ID, got.ID)
	assert.Equal(s.T(), "Carol", got.Name)
}

func (s *StoreTestSuite) TestCreateUserDuplicateEmail() {
	now := time.Now().UTC()
	dup := &models.User{ID: uuid.NewString(), Name: "Other", Email: "ALICE@example.com", Password: "x", CreatedAt: now, UpdatedAt: now}

	err := s.store.CreateUser(s.ctx, dup)
	assert.ErrorIs(s.T(), err, ErrDuplicateEmail)

	n, err := s.store.CountUsers(s.ctx)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 2, n)
}

func (s *StoreTestSuite) TestGetUserNotFound() {
	_, err := s.store.GetUserByEmail(s.ctx, "nobody@example.com")
	assert.ErrorIs(s.T(), err, ErrNotFound)

	_, err = s.store.GetUserByID(s.ctx, uuid.NewString())
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestTokenLifecycle() {
	tok := &models.Token{ID: uuid.NewString(), UserID: s.alice.ID, Name: "login", Hash: "abc123", CreatedAt: time.Now().UTC()}
	require.NoError(s.T(), s.store.CreateToken(s.ctx, tok))

	user, tokenID, err := s.store.GetUserByTokenHash(s.ctx, "abc123")
	require.NoError(s.T(), err)
	assert.Equal(s.T(), s.alice.ID, user.ID)
	assert.Equal(s.T(), s.alice.Email, user.Email)
	assert.Equal(s.T(), tok.ID, tokenID)

	require.NoError(s.T(), s.store.TouchToken(s.ctx, tokenID, time.Now().UTC()))
	tokens, err := s.store.ListTokens(s.ctx, s.alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), tokens, 1)
	assert.NotNil(s.T(), tokens[0].LastUsedAt)

	assert.ErrorIs(s.T(), s.store.DeleteToken(s.ctx, s.bob.ID, tok.ID), ErrNotFound)
	require.NoError(s.T(), s.store.DeleteToken(s.ctx, s.alice.ID, tok.ID))

	_, _, err = s.store.GetUserByTokenHash(s.ctx, "abc123")
	assert.ErrorIs(s.T(), err, ErrNotFound)
}

func (s *StoreTestSuite) TestDeleteUserTokensOnlyTouchesOwner() {
	for i, owner := range []*models.User{s.alice, s.alice, s.bob} {
		tok := &models.Token{ID: uuid.NewString(), UserID: owner.ID, Name: "login", Hash: uuid.NewString(), CreatedAt: time.Now().UTC()}
		require.NoError(s.T(), s.store.CreateToken(s.ctx, tok), "token %d", i)
	}

	n, err := s.store.DeleteUserTokens(s.ctx, s.alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), int64(2), n)

	left, err := s.store.ListTokens(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Len(s.T(), left, 1)
}

func (s *StoreTestSuite) TestProjectsAreOwnerScoped() {
	p := s.createProject(s.alice, "Launch")
	s.createProject(s.bob, "Bob's")

	list, err := s.store.ListProjects(s.ctx, s.alice.ID)
	require.NoError(s.T(), err)
	require.Len(s.T(), list, 1)
	assert.Equal(s.T(), "Launch", list[0].Name)
	assert.Equal(s.T(), s.alice.ID, list[0].UserID)

	_, err = s.store.GetProject(s.ctx, s.bob.ID, p.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)

	p.Name = "Hijacked"
	assert.ErrorIs(s.T(), s.store.UpdateProject(s.ctx, s.bob.ID, p), ErrNotFound)
	assert.ErrorIs(s.T(), s.store.DeleteProject(s.ctx, s.bob.ID, p.ID), ErrNotFound)

	got, err := s.store.GetProject(s.ctx, s.alice.ID, p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Launch", got.Name)
}

func (s *StoreTestSuite) TestUpdateProjectReplacesFields() {
	desc := "first"
	due, err := models.ParseDate("2030-01-02")
	require.NoError(s.T(), err)

	now := time.Now().UTC()
	p := &models.Project{ID: uuid.NewString(), Name: "Launch", Description: &desc, DueDate: &due, CreatedAt: now, UpdatedAt: now}
	require.NoError(s.T(), s.store.CreateProject(s.ctx, s.alice.ID, p))

	got, err := s.store.GetProject(s.ctx, s.alice.ID, p.ID)
	require.NoError(s.T(), err)
	require.NotNil(s.T(), got.DueDate)
	assert.Equal(s.T(), "2030-01-02", got.DueDate.String())
	assert.Equal(s.T(), "first", *got.Description)

	replaced := &models.Project{ID: p.ID, Name: "Relaunch", UpdatedAt: time.Now().UTC()}
	require.NoError(s.T(), s.store.UpdateProject(s.ctx, s.alice.ID, replaced))
	assert.WithinDuration(s.T(), now, replaced.CreatedAt, time.Second)

	got, err = s.store.GetProject(s.ctx, s.alice.ID, p.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Relaunch", got.Name)
	assert.Nil(s.T(), got.Description)
	assert.Nil(s.T(), got.DueDate)
}

func (s *StoreTestSuite) TestDeleteProjectCascades() {
	p := s.createProject(s.alice, "Launch")
	s.createTask(s.alice, p.ID, "Write docs", models.TaskStatusPending)

	require.NoError(s.T(), s.store.DeleteProject(s.ctx, s.alice.ID, p.ID))
	assert.ErrorIs(s.T(), s.store.DeleteProject(s.ctx, s.alice.ID, p.ID), ErrNotFound)

	tasks, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), tasks)
}

func (s *StoreTestSuite) TestCreateTaskRequiresOwnedProject() {
	bobs := s.createProject(s.bob, "Bob's")

	for _, projectID := range []string{uuid.NewString(), bobs.ID} {
		now := time.Now().UTC()
		t := &models.Task{ID: uuid.NewString(), ProjectID: projectID, Title: "Sneaky", CreatedAt: now, UpdatedAt: now}
		err := s.store.CreateTask(s.ctx, s.alice.ID, t)

		var verr *validator.Error
		require.True(s.T(), errors.As(err, &verr), "expected validation error, got %v", err)
		assert.Equal(s.T(), []string{"is invalid"}, verr.Fields["project_id"])
	}

	tasks, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{})
	require.NoError(s.T(), err)
	assert.Empty(s.T(), tasks)
}

func (s *StoreTestSuite) TestTasksAreOwnerScoped() {
	p := s.createProject(s.alice, "Launch")
	t := s.createTask(s.alice, p.ID, "Write docs", models.TaskStatusInProgress)

	got, err := s.store.GetTask(s.ctx, s.alice.ID, t.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), models.TaskStatusInProgress, got.Status)
	assert.Equal(s.T(), p.ID, got.ProjectID)

	_, err = s.store.GetTask(s.ctx, s.bob.ID, t.ID)
	assert.ErrorIs(s.T(), err, ErrNotFound)
	assert.ErrorIs(s.T(), s.store.DeleteTask(s.ctx, s.bob.ID, t.ID), ErrNotFound)

	bobProject := s.createProject(s.bob, "Bob's")
	t.ProjectID = bobProject.ID
	assert.ErrorIs(s.T(), s.store.UpdateTask(s.ctx, s.bob.ID, t), ErrNotFound)
}

func (s *StoreTestSuite) TestUpdateTaskChecksProject() {
	p := s.createProject(s.alice, "Launch")
	t := s.createTask(s.alice, p.ID, "Write docs", models.TaskStatusPending)

	other := s.createProject(s.bob, "Bob's")
	t.ProjectID = other.ID
	var verr *validator.Error
	assert.True(s.T(), errors.As(s.store.UpdateTask(s.ctx, s.alice.ID, t), &verr))

	t.ProjectID = p.ID
	t.Status = models.TaskStatusDone
	t.Title = "Docs written"
	require.NoError(s.T(), s.store.UpdateTask(s.ctx, s.alice.ID, t))

	got, err := s.store.GetTask(s.ctx, s.alice.ID, t.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "Docs written", got.Title)
	assert.Equal(s.T(), models.TaskStatusDone, got.Status)
}

func (s *StoreTestSuite) TestListTasksFilters() {
	p1 := s.createProject(s.alice, "One")
	p2 := s.createProject(s.alice, "Two")
	s.createTask(s.alice, p1.ID, "a", models.TaskStatusPending)
	s.createTask(s.alice, p1.ID, "b", models.TaskStatusDone)
	s.createTask(s.alice, p2.ID, "c", models.TaskStatusDone)

	byProject, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{ProjectID: p1.ID})
	require.NoError(s.T(), err)
	assert.Len(s.T(), byProject, 2)

	done := models.TaskStatusDone
	byStatus, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{Status: &done})
	require.NoError(s.T(), err)
	assert.Len(s.T(), byStatus, 2)

	both, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{ProjectID: p1.ID, Status: &done})
	require.NoError(s.T(), err)
	require.Len(s.T(), both, 1)
	assert.Equal(s.T(), "b", both[0].Title)

	none, err := s.store.ListTasks(s.ctx, s.bob.ID, TaskFilter{})
	require.NoError(s.T(), err)
	assert.NotNil(s.T(), none)
	assert.Empty(s.T(), none)
}

func (s *StoreTestSuite) TestListTasksWithProject() {
	p1 := s.createProject(s.alice, "One")
	p2 := s.createProject(s.alice, "Two")
	s.createTask(s.alice, p1.ID, "a", models.TaskStatusPending)
	s.createTask(s.alice, p2.ID, "b", models.TaskStatusPending)
	s.createTask(s.bob, s.createProject(s.bob, "Bob's").ID, "c", models.TaskStatusPending)

	plain, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{})
	require.NoError(s.T(), err)
	require.Len(s.T(), plain, 2)
	assert.Nil(s.T(), plain[0].Project)

	tasks, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{WithProject: true})
	require.NoError(s.T(), err)
	require.Len(s.T(), tasks, 2)
	names := map[string]string{}
	for _, t := range tasks {
		require.NotNil(s.T(), t.Project)
		assert.Equal(s.T(), t.ProjectID, t.Project.ID)
		assert.Equal(s.T(), s.alice.ID, t.Project.UserID)
		names[t.Title] = t.Project.Name
	}
	assert.Equal(s.T(), map[string]string{"a": "One", "b": "Two"}, names)

	filtered, err := s.store.ListTasks(s.ctx, s.alice.ID, TaskFilter{ProjectID: p2.ID, WithProject: true})
	require.NoError(s.T(), err)
	require.Len(s.T(), filtered, 1)
	assert.Equal(s.T(), "Two", filtered[0].Project.Name)
}

func (s *StoreTestSuite) TestCounts() {
	p := s.createProject(s.alice, "Launch")
	s.createTask(s.alice, p.ID, "a", models.TaskStatusPending)
	s.createTask(s.alice, p.ID, "b", models.TaskStatusDone)
	s.createTask(s.alice, p.ID, "c", models.TaskStatusDone)

	projects, err := s.store.CountProjects(s.ctx, s.alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 1, projects)

	total, byStatus, err := s.store.CountTasks(s.ctx, s.alice.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 3, total)
	assert.Equal(s.T(), 1, byStatus[models.TaskStatusPending])
	assert.Equal(s.T(), 0, byStatus[models.TaskStatusInProgress])
	assert.Equal(s.T(), 2, byStatus[models.TaskStatusDone])

	total, _, err = s.store.CountTasks(s.ctx, s.bob.ID)
	require.NoError(s.T(), err)
	assert.Equal(s.T(), 0, total)
}
