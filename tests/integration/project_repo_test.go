package integration

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/model-my-watershed/mmw-backend/internal/projects"
	pdomain "github.com/model-my-watershed/mmw-backend/internal/projects/domain"
	"github.com/model-my-watershed/mmw-backend/internal/users"
)

func TestProjectRepo_Lifecycle(t *testing.T) {
	pool := setupTestPool(t)
	repo := projects.NewRepo(pool)
	ctx := context.Background()

	userID, err := users.NewRepo(pool).EnsureUser(ctx, users.UpsertUser{
		FirebaseUID: "it-" + uuid.New().String(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `delete from users where id = $1::uuid`, userID)
	})

	project, err := repo.Create(ctx, userID, projects.CreateProject{
		Name:           "Schuylkill study",
		AreaOfInterest: testAOI,
		ModelPackage:   "tr-55",
		GISData:        `{"land":{}}`,
	})
	require.NoError(t, err)
	assert.True(t, project.IsPrivate, "new projects are private")
	assert.NotEmpty(t, project.AreaOfInterest, "AOI round-trips through PostGIS")

	t.Run("owner scoping on reads", func(t *testing.T) {
		got, err := repo.Get(ctx, userID, project.ID)
		require.NoError(t, err)
		assert.Equal(t, project.Name, got.Name)

		otherID, err := users.NewRepo(pool).EnsureUser(ctx, users.UpsertUser{
			FirebaseUID: "it-" + uuid.New().String(),
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = pool.Exec(context.Background(), `delete from users where id = $1::uuid`, otherID)
		})

		_, err = repo.Get(ctx, otherID, project.ID)
		assert.ErrorIs(t, err, pdomain.ErrNotFound)
	})

	t.Run("update touches modified_at", func(t *testing.T) {
		updated, err := repo.Update(ctx, userID, project.ID, projects.UpdateProject{
			Name: "Schuylkill study v2",
		})
		require.NoError(t, err)
		assert.Equal(t, "Schuylkill study v2", updated.Name)
		assert.Equal(t, `{"land":{}}`, updated.GISData, "unset fields are untouched")
		assert.True(t, updated.ModifiedAt.After(project.ModifiedAt) ||
			updated.ModifiedAt.Equal(project.ModifiedAt))
	})

	t.Run("make public", func(t *testing.T) {
		require.NoError(t, repo.MakePublic(ctx, project.ID))

		got, err := repo.Get(ctx, userID, project.ID)
		require.NoError(t, err)
		assert.False(t, got.IsPrivate)

		assert.ErrorIs(t, repo.MakePublic(ctx, 999999), pdomain.ErrNotFound)
	})

	t.Run("scenario names unique per project", func(t *testing.T) {
		scenarios := projects.NewScenarioRepo(pool)

		_, err := scenarios.Create(ctx, project.ID, projects.CreateScenario{
			Name: "Current Conditions", IsCurrentConditions: true,
		})
		require.NoError(t, err)

		_, err = scenarios.Create(ctx, project.ID, projects.CreateScenario{
			Name: "Current Conditions",
		})
		assert.ErrorIs(t, err, projects.ErrScenarioNameTaken)
	})

	t.Run("delete cascades", func(t *testing.T) {
		deleted, err := repo.Delete(ctx, userID, project.ID)
		require.NoError(t, err)
		assert.True(t, deleted)

		scenarios, err := projects.NewScenarioRepo(pool).List(ctx, project.ID)
		require.NoError(t, err)
		assert.Empty(t, scenarios)
	})
}
