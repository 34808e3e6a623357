package data

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partkeep/partkeep/internal/domain/model"
	"github.com/partkeep/partkeep/internal/testutil"
)

func submitRequest(partNumber, version string, status model.ComponentStatus) *model.SubmitComponentRequest {
	desc := "test part"
	cost := 9.50
	return &model.SubmitComponentRequest{
		PartNumber:    partNumber,
		PartName:      "Part " + partNumber,
		Description:   &desc,
		Status:        status,
		VersionNumber: version,
		Cost:          &cost,
		CreatedBy:     "tester",
	}
}

func TestComponentRepo_Submit_RoundTrip(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewComponentRepo(db)
		ctx := context.Background()

		version, err := repo.Submit(ctx, submitRequest("PN-100", "A", model.ComponentStatusDraft), nil)
		require.NoError(t, err)
		require.NotNil(t, version)
		assert.NotEmpty(t, version.ID)
		assert.Equal(t, "PN-100", version.PartNumber)
		assert.Equal(t, "A", version.VersionNumber)
		assert.Equal(t, "tester", version.CreatedBy)
		assert.Nil(t, version.FilePath)

		component, err := repo.GetByPartNumber(ctx, "PN-100")
		require.NoError(t, err)
		assert.Equal(t, model.ComponentStatusDraft, component.Status)
	})
}

func TestComponentRepo_Submit_UpsertsComponentRow(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewComponentRepo(db)
		ctx := context.Background()

		_, err := repo.Submit(ctx, submitRequest("PN-200", "A", model.ComponentStatusDraft), nil)
		require.NoError(t, err)

		// A later submission for the same part promotes the component row.
		second := submitRequest("PN-200", "B", model.ComponentStatusReleased)
		second.PartName = "Part PN-200 rev"
		_, err = repo.Submit(ctx, second, nil)
		require.NoError(t, err)

		component, err := repo.GetByPartNumber(ctx, "PN-200")
		require.NoError(t, err)
		assert.Equal(t, model.ComponentStatusReleased, component.Status)
		assert.Equal(t, "Part PN-200 rev", component.PartName)

		versions, err := repo.ListVersions(ctx, "PN-200")
		require.NoError(t, err)
		require.Len(t, versions, 2)
	})
}

func TestComponentRepo_Submit_DuplicateVersion(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewComponentRepo(db)
		ctx := context.Background()

		_, err := repo.Submit(ctx, submitRequest("PN-300", "A", model.ComponentStatusDraft), nil)
		require.NoError(t, err)

		_, err = repo.Submit(ctx, submitRequest("PN-300", "A", model.ComponentStatusDraft), nil)
		assert.ErrorIs(t, err, ErrVersionExists)
	})
}

func TestComponentRepo_Submit_StoresFilePath(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewComponentRepo(db)
		ctx := context.Background()

		filePath := "drawings/PN-400/A.pdf"
		version, err := repo.Submit(ctx, submitRequest("PN-400", "A", model.ComponentStatusDraft), &filePath)
		require.NoError(t, err)
		require.NotNil(t, version.FilePath)
		assert.Equal(t, filePath, *version.FilePath)
	})
}

func TestComponentRepo_GetByPartNumber_NotFound(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewComponentRepo(db)

		_, err := repo.GetByPartNumber(context.Background(), "PN-MISSING")
		assert.ErrorIs(t, err, ErrComponentNotFound)
	})
}

func TestComponentRepo_ListLatest_FilterAndCount(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewComponentRepo(db)
		ctx := context.Background()

		_, err := repo.Submit(ctx, submitRequest("PN-500", "A", model.ComponentStatusDraft), nil)
		require.NoError(t, err)
		_, err = repo.Submit(ctx, submitRequest("PN-500", "B", model.ComponentStatusReleased), nil)
		require.NoError(t, err)
		_, err = repo.Submit(ctx, submitRequest("PN-501", "A", model.ComponentStatusDraft), nil)
		require.NoError(t, err)

		all, err := repo.ListLatest(ctx, model.ComponentsListOptions{Sort: "part_number", Dir: "asc"})
		require.NoError(t, err)
		require.Len(t, all, 2)

		// The view exposes only the newest version of each part.
		assert.Equal(t, "PN-500", all[0].PartNumber)
		assert.Equal(t, "B", all[0].VersionNumber)

		released := model.ComponentStatusReleased
		filtered, err := repo.ListLatest(ctx, model.ComponentsListOptions{Status: &released})
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, "PN-500", filtered[0].PartNumber)

		count, err := repo.CountLatest(ctx, model.ComponentsListOptions{Status: &released})
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestComponentRepo_Delete_CascadesVersions(t *testing.T) {
	testutil.SkipIfNoTestDB(t)
	testutil.WithAutoDB(t, func(db *sql.DB) {
		repo := NewComponentRepo(db)
		ctx := context.Background()

		_, err := repo.Submit(ctx, submitRequest("PN-600", "A", model.ComponentStatusDraft), nil)
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, "PN-600")
		require.NoError(t, err)
		assert.True(t, deleted)

		versions, err := repo.ListVersions(ctx, "PN-600")
		require.NoError(t, err)
		assert.Empty(t, versions)

		deleted, err = repo.Delete(ctx, "PN-600")
		require.NoError(t, err)
		assert.False(t, deleted)
	})
}
