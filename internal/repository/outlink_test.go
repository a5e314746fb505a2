package repository

import (
	"context"
	"testing"

	"github.com/encukou/prekapavac/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutlinkRepository_ByType(t *testing.T) {
	db := setupTestDB(t)
	fx := seedCatalog(t, db)
	repo := NewOutlinkRepository(db)
	ctx := context.Background()

	icon, err := repo.Icon(ctx, fx.category.ID)
	require.NoError(t, err)
	assert.Nil(t, icon)

	require.NoError(t, repo.Create(ctx, &models.Outlink{CategoryID: fx.category.ID, Label: "Wiki", URL: "https://wiki.example/{en_title}", Type: models.OutlinkLink}))
	require.NoError(t, repo.Create(ctx, &models.Outlink{CategoryID: fx.category.ID, Label: "Search", URL: "https://search.example/?q={jp}", Type: models.OutlinkLink}))
	require.NoError(t, repo.Create(ctx, &models.Outlink{CategoryID: fx.category.ID, Label: "Icon", URL: "/icons/{num}.png", Type: models.OutlinkIcon}))

	links, err := repo.ListByCategory(ctx, fx.category.ID, models.OutlinkLink)
	require.NoError(t, err)
	require.Len(t, links, 2)
	assert.Equal(t, "Wiki", links[0].Label)

	icon, err = repo.Icon(ctx, fx.category.ID)
	require.NoError(t, err)
	require.NotNil(t, icon)
	assert.Equal(t, "/icons/{num}.png", icon.URL)

	err = repo.Create(ctx, &models.Outlink{CategoryID: fx.category.ID, URL: "x", Type: "video"})
	assert.True(t, models.IsValidation(err))
}
