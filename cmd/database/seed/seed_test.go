package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdatlt/foodgram/domain"
	"github.com/kdatlt/foodgram/internal/testutil"
	"github.com/kdatlt/foodgram/internal/utils"
	"github.com/kdatlt/foodgram/pkg/catalog"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newService(t *testing.T) catalog.CatalogService {
	t.Helper()
	utils.InitValidator()
	return catalog.NewCatalogService(catalog.NewCatalogRepository(testutil.NewTestDB(t)))
}

func TestLoadIngredientsJSONIsIdempotent(t *testing.T) {
	service := newService(t)
	path := writeFile(t, "ingredients.json", `[
		{"name": "flour", "measurement_unit": "g"},
		{"name": "milk", "measurement_unit": "ml"}
	]`)
	ctx := context.Background()

	created, err := LoadIngredients(ctx, service, path)
	require.NoError(t, err)
	assert.EqualValues(t, 2, created)

	created, err = LoadIngredients(ctx, service, path)
	require.NoError(t, err)
	assert.EqualValues(t, 0, created)

	items, err := service.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestLoadTagsYAML(t *testing.T) {
	service := newService(t)
	path := writeFile(t, "tags.yaml", `
- name: Breakfast
  slug: breakfast
- name: Dinner
  slug: dinner
`)

	created, err := LoadTags(context.Background(), service, path)
	require.NoError(t, err)
	assert.EqualValues(t, 2, created)
}

func TestLoadTagsRejectsInvalidSlug(t *testing.T) {
	service := newService(t)
	path := writeFile(t, "tags.json", `[{"name": "Bad", "slug": "no spaces"}]`)

	_, err := LoadTags(context.Background(), service, path)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReadFixturesUnknownExtension(t *testing.T) {
	path := writeFile(t, "tags.csv", "name,slug\n")
	var out []domain.TagFixture
	assert.Error(t, readFixtures(path, &out))
}
