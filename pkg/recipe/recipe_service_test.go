package recipe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/kdatlt/foodgram/domain"
	"github.com/kdatlt/foodgram/entities"
	"github.com/kdatlt/foodgram/internal/testutil"
	"github.com/kdatlt/foodgram/pkg/user"
)

var errInjected = errors.New("injected failure")

type fixture struct {
	db        *gorm.DB
	svc       RecipeService
	users     user.UserRepository
	storage   *testutil.FakeStorage
	alice     uint
	bob       uint
	flour     uint
	sugar     uint
	milk      uint
	breakfast uint
	dinner    uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	f := &fixture{
		db:      db,
		users:   user.NewUserRepository(db),
		storage: testutil.NewFakeStorage(),
	}
	f.svc = NewRecipeService(NewRecipeRepository(db), f.users, f.storage, NewShortLinkGenerator(6), "http://foodgram.test")

	f.alice = f.createUser(t, "alice")
	f.bob = f.createUser(t, "bob")

	f.flour = f.createIngredient(t, "flour", "g")
	f.sugar = f.createIngredient(t, "sugar", "g")
	f.milk = f.createIngredient(t, "milk", "ml")

	f.breakfast = f.createTag(t, "Breakfast", "breakfast")
	f.dinner = f.createTag(t, "Dinner", "dinner")
	return f
}

func (f *fixture) createUser(t *testing.T, username string) uint {
	t.Helper()
	u := entities.User{Email: username + "@example.com", Username: username, FirstName: username, LastName: "Cook", PasswordHash: "x"}
	require.NoError(t, f.db.Create(&u).Error)
	return u.ID
}

func (f *fixture) createIngredient(t *testing.T, name, unit string) uint {
	t.Helper()
	i := entities.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, f.db.Create(&i).Error)
	return i.ID
}

func (f *fixture) createTag(t *testing.T, name, slug string) uint {
	t.Helper()
	tag := entities.Tag{Name: name, Slug: slug}
	require.NoError(t, f.db.Create(&tag).Error)
	return tag.ID
}

func (f *fixture) request(name string, tags []uint, lines ...domain.RecipeIngredientRequest) domain.RecipeWriteRequest {
	return domain.RecipeWriteRequest{
		Ingredients: lines,
		Tags:        tags,
		Image:       testutil.PNGDataURI,
		Name:        name,
		Text:        "Mix and bake.",
		CookingTime: 30,
	}
}

func line(id uint, amount int) domain.RecipeIngredientRequest {
	return domain.RecipeIngredientRequest{ID: id, Amount: amount}
}

func (f *fixture) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(model).Count(&n).Error)
	return n
}

func (f *fixture) failCreatesOn(t *testing.T, table string) {
	t.Helper()
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errInjected)
		}
	}))
}

func TestCreateRecipeKeepsSubmissionOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes",
		[]uint{f.dinner, f.breakfast},
		line(f.sugar, 10), line(f.flour, 200), line(f.milk, 300),
	))
	require.NoError(t, err)

	res, err := f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", res.Name)
	assert.Equal(t, f.alice, res.Author.ID)
	require.Len(t, res.Tags, 2)
	assert.Equal(t, []string{"dinner", "breakfast"}, []string{res.Tags[0].Slug, res.Tags[1].Slug})
	require.Len(t, res.Ingredients, 3)
	assert.Equal(t, "sugar", res.Ingredients[0].Name)
	assert.Equal(t, "flour", res.Ingredients[1].Name)
	assert.Equal(t, "milk", res.Ingredients[2].Name)
	assert.Equal(t, 300, res.Ingredients[2].Amount)
	assert.Equal(t, "ml", res.Ingredients[2].MeasurementUnit)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.True(t, strings.HasPrefix(res.Image, "https://storage.test/foodgram/recipes/"))
	assert.Equal(t, 1, f.storage.Len())
}

func TestCreateRecipeValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	valid := func() domain.RecipeWriteRequest {
		return f.request("Toast", []uint{f.breakfast}, line(f.flour, 1))
	}

	cases := []struct {
		name   string
		mutate func(r *domain.RecipeWriteRequest)
		ok     bool
	}{
		{"amount one", func(r *domain.RecipeWriteRequest) {}, true},
		{"amount zero", func(r *domain.RecipeWriteRequest) { r.Ingredients[0].Amount = 0 }, false},
		{"cooking time one", func(r *domain.RecipeWriteRequest) { r.CookingTime = 1 }, true},
		{"cooking time zero", func(r *domain.RecipeWriteRequest) { r.CookingTime = 0 }, false},
		{"empty tags", func(r *domain.RecipeWriteRequest) { r.Tags = nil }, false},
		{"duplicate tags", func(r *domain.RecipeWriteRequest) { r.Tags = []uint{f.breakfast, f.breakfast} }, false},
		{"unknown tag", func(r *domain.RecipeWriteRequest) { r.Tags = []uint{999} }, false},
		{"empty ingredients", func(r *domain.RecipeWriteRequest) { r.Ingredients = nil }, false},
		{"duplicate ingredients", func(r *domain.RecipeWriteRequest) {
			r.Ingredients = append(r.Ingredients, line(f.flour, 5))
		}, false},
		{"unknown ingredient", func(r *domain.RecipeWriteRequest) { r.Ingredients[0].ID = 999 }, false},
		{"missing name", func(r *domain.RecipeWriteRequest) { r.Name = "  " }, false},
		{"missing text", func(r *domain.RecipeWriteRequest) { r.Text = "" }, false},
		{"missing image", func(r *domain.RecipeWriteRequest) { r.Image = "" }, false},
		{"broken image", func(r *domain.RecipeWriteRequest) { r.Image = "data:image/png;base64,@@@" }, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			before := f.count(t, &entities.Recipe{})
			stored := f.storage.Len()

			req := valid()
			tc.mutate(&req)
			_, err := f.svc.CreateRecipe(ctx, f.alice, req)

			if tc.ok {
				require.NoError(t, err)
				assert.Equal(t, before+1, f.count(t, &entities.Recipe{}))
				return
			}
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, before, f.count(t, &entities.Recipe{}))
			assert.Equal(t, stored, f.storage.Len(), "no image is left behind")
		})
	}
}

func TestCreateRecipeIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.failCreatesOn(t, "tag_links")

	_, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 200)))
	require.ErrorIs(t, err, errInjected)

	assert.Zero(t, f.count(t, &entities.Recipe{}))
	assert.Zero(t, f.count(t, &entities.IngredientLine{}))
	assert.Zero(t, f.count(t, &entities.TagLink{}))
	assert.Zero(t, f.storage.Len(), "uploaded image is removed after rollback")
}

func TestUpdateRecipeReplacesAssociations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes",
		[]uint{f.breakfast},
		line(f.flour, 100), line(f.sugar, 50),
	))
	require.NoError(t, err)
	before, err := f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)
	link, err := f.svc.GetShortLink(ctx, id)
	require.NoError(t, err)

	req := f.request("Milk shake", []uint{f.dinner}, line(f.milk, 250))
	req.Image = ""
	req.CookingTime = 5
	updatedID, err := f.svc.UpdateRecipe(ctx, f.alice, id, req)
	require.NoError(t, err)
	assert.Equal(t, id, updatedID)

	after, err := f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)
	assert.Equal(t, "Milk shake", after.Name)
	assert.Equal(t, 5, after.CookingTime)
	assert.Equal(t, before.Image, after.Image)
	assert.True(t, before.PubDate.Equal(after.PubDate), "pub_date is set once")

	require.Len(t, after.Ingredients, 1)
	assert.Equal(t, f.milk, after.Ingredients[0].ID)
	assert.Equal(t, 250, after.Ingredients[0].Amount)
	require.Len(t, after.Tags, 1)
	assert.Equal(t, f.dinner, after.Tags[0].ID)

	assert.EqualValues(t, 1, f.count(t, &entities.IngredientLine{}))
	assert.EqualValues(t, 1, f.count(t, &entities.TagLink{}))

	linkAfter, err := f.svc.GetShortLink(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, link, linkAfter)
}

func TestUpdateRecipeWithOverlappingAssociations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lunch := f.createTag(t, "Lunch", "lunch")

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes",
		[]uint{f.breakfast, f.dinner},
		line(f.flour, 100), line(f.sugar, 50),
	))
	require.NoError(t, err)

	req := f.request("Pancakes", []uint{f.dinner, lunch}, line(f.sugar, 75), line(f.milk, 200))
	req.Image = ""
	_, err = f.svc.UpdateRecipe(ctx, f.alice, id, req)
	require.NoError(t, err)

	after, err := f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)

	tagIDs := make([]uint, 0, len(after.Tags))
	for _, tag := range after.Tags {
		tagIDs = append(tagIDs, tag.ID)
	}
	assert.Equal(t, []uint{f.dinner, lunch}, tagIDs)

	require.Len(t, after.Ingredients, 2)
	assert.Equal(t, f.sugar, after.Ingredients[0].ID)
	assert.Equal(t, 75, after.Ingredients[0].Amount)
	assert.Equal(t, f.milk, after.Ingredients[1].ID)

	assert.EqualValues(t, 2, f.count(t, &entities.TagLink{}))
	assert.EqualValues(t, 2, f.count(t, &entities.IngredientLine{}))
}

func TestUpdateRecipeReplacesImage(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)
	before, err := f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)

	_, err = f.svc.UpdateRecipe(ctx, f.alice, id, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)

	after, err := f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)
	assert.NotEqual(t, before.Image, after.Image)
	assert.Equal(t, 1, f.storage.Len(), "previous image is deleted")
}

func TestUpdateRecipeIsAtomic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes",
		[]uint{f.breakfast},
		line(f.flour, 100), line(f.sugar, 50),
	))
	require.NoError(t, err)
	f.failCreatesOn(t, "tag_links")

	_, err = f.svc.UpdateRecipe(ctx, f.alice, id, f.request("Changed", []uint{f.dinner}, line(f.milk, 1)))
	require.ErrorIs(t, err, errInjected)

	res, err := f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", res.Name)
	require.Len(t, res.Ingredients, 2)
	assert.Equal(t, f.flour, res.Ingredients[0].ID)
	assert.Equal(t, f.sugar, res.Ingredients[1].ID)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, f.breakfast, res.Tags[0].ID)
	assert.Equal(t, 1, f.storage.Len(), "new image is removed after rollback")
}

func TestUpdateAndDeleteRequireAuthor(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)

	_, err = f.svc.UpdateRecipe(ctx, f.bob, id, f.request("Mine now", []uint{f.breakfast}, line(f.flour, 1)))
	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.ErrorIs(t, f.svc.DeleteRecipe(ctx, f.bob, id), domain.ErrForbidden)

	invalid := f.request("", nil)
	invalid.CookingTime = 0
	_, err = f.svc.UpdateRecipe(ctx, f.bob, id, invalid)
	assert.ErrorIs(t, err, domain.ErrForbidden, "ownership is checked before the payload")

	_, err = f.svc.UpdateRecipe(ctx, f.alice, 999, f.request("Ghost", []uint{f.breakfast}, line(f.flour, 1)))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteRecipeRemovesAssociations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)
	_, err = f.svc.AddFavorite(ctx, f.bob, id)
	require.NoError(t, err)
	_, err = f.svc.AddToShoppingCart(ctx, f.bob, id)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRecipe(ctx, f.alice, id))

	_, err = f.svc.GetRecipe(ctx, nil, id)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	for _, model := range []any{&entities.IngredientLine{}, &entities.TagLink{}, &entities.Favorite{}, &entities.ShoppingCartItem{}} {
		assert.Zero(t, f.count(t, model), "%T rows remain", model)
	}
	assert.Zero(t, f.storage.Len())
}

func TestFavoriteToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)

	short, err := f.svc.AddFavorite(ctx, f.bob, id)
	require.NoError(t, err)
	assert.Equal(t, domain.RecipeShort{ID: id, Name: "Pancakes", Image: short.Image, CookingTime: 30}, short)

	_, err = f.svc.AddFavorite(ctx, f.bob, id)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assert.EqualValues(t, 1, f.count(t, &entities.Favorite{}))

	require.NoError(t, f.svc.RemoveFavorite(ctx, f.bob, id))
	assert.ErrorIs(t, f.svc.RemoveFavorite(ctx, f.bob, id), domain.ErrNotFound)

	_, err = f.svc.AddFavorite(ctx, f.bob, 999)
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestShoppingCartToggle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)

	_, err = f.svc.AddToShoppingCart(ctx, f.bob, id)
	require.NoError(t, err)
	_, err = f.svc.AddToShoppingCart(ctx, f.bob, id)
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	require.NoError(t, f.svc.RemoveFromShoppingCart(ctx, f.bob, id))
	assert.ErrorIs(t, f.svc.RemoveFromShoppingCart(ctx, f.bob, id), domain.ErrNotInCart)
}

func TestRecipeViewerFlags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)
	_, err = f.svc.AddFavorite(ctx, f.bob, id)
	require.NoError(t, err)
	require.NoError(t, f.users.CreateSubscription(ctx, f.bob, f.alice))

	res, err := f.svc.GetRecipe(ctx, &f.bob, id)
	require.NoError(t, err)
	assert.True(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.True(t, res.Author.IsSubscribed)

	res, err = f.svc.GetRecipe(ctx, nil, id)
	require.NoError(t, err)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.IsInShoppingCart)
	assert.False(t, res.Author.IsSubscribed)

	res, err = f.svc.GetRecipe(ctx, &f.alice, id)
	require.NoError(t, err)
	assert.False(t, res.IsFavorited)
	assert.False(t, res.Author.IsSubscribed)
}

func TestShoppingListAggregates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	items, err := f.svc.ShoppingList(ctx, f.bob)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Empty(t, RenderShoppingList(items))

	bread, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Bread", []uint{f.breakfast}, line(f.flour, 200), line(f.sugar, 10)))
	require.NoError(t, err)
	cake, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Cake", []uint{f.dinner}, line(f.flour, 300)))
	require.NoError(t, err)
	_, err = f.svc.CreateRecipe(ctx, f.alice, f.request("Latte", []uint{f.dinner}, line(f.milk, 200)))
	require.NoError(t, err)

	_, err = f.svc.AddToShoppingCart(ctx, f.bob, bread)
	require.NoError(t, err)
	_, err = f.svc.AddToShoppingCart(ctx, f.bob, cake)
	require.NoError(t, err)

	items, err = f.svc.ShoppingList(ctx, f.bob)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.ShoppingListItem{IngredientID: f.flour, Name: "flour", MeasurementUnit: "g", Amount: 500}, items[0])
	assert.Equal(t, domain.ShoppingListItem{IngredientID: f.sugar, Name: "sugar", MeasurementUnit: "g", Amount: 10}, items[1])
	assert.Equal(t, "flour (g) - 500\nsugar (g) - 10\n", RenderShoppingList(items))

	other, err := f.svc.ShoppingList(ctx, f.alice)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestListRecipesFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	carol := f.createUser(t, "carol")
	first, err := f.svc.CreateRecipe(ctx, f.alice, f.request("First", []uint{f.breakfast}, line(f.flour, 1)))
	require.NoError(t, err)
	second, err := f.svc.CreateRecipe(ctx, carol, f.request("Second", []uint{f.dinner}, line(f.flour, 1)))
	require.NoError(t, err)
	third, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Third", []uint{f.breakfast, f.dinner}, line(f.flour, 1)))
	require.NoError(t, err)

	// Make pub_date ordering explicit.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []uint{first, second, third} {
		require.NoError(t, f.db.Model(&entities.Recipe{}).Where("id = ?", id).Update("pub_date", base.Add(time.Duration(i)*time.Hour)).Error)
	}

	ids := func(items []domain.RecipeResponse) []uint {
		out := make([]uint, 0, len(items))
		for _, item := range items {
			out = append(out, item.ID)
		}
		return out
	}

	all, total, err := f.svc.ListRecipes(ctx, nil, domain.RecipeFilter{}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{third, second, first}, ids(all))

	page, total, err := f.svc.ListRecipes(ctx, nil, domain.RecipeFilter{}, 2, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, []uint{first}, ids(page))

	byAuthor, total, err := f.svc.ListRecipes(ctx, nil, domain.RecipeFilter{AuthorID: &f.alice}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Equal(t, []uint{third, first}, ids(byAuthor))

	byTag, _, err := f.svc.ListRecipes(ctx, nil, domain.RecipeFilter{TagSlugs: []string{"dinner"}}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{third, second}, ids(byTag))
	require.Len(t, byTag[0].Tags, 2)

	_, err = f.svc.AddFavorite(ctx, f.bob, second)
	require.NoError(t, err)
	_, err = f.svc.AddToShoppingCart(ctx, f.bob, first)
	require.NoError(t, err)

	favorited, total, err := f.svc.ListRecipes(ctx, &f.bob, domain.RecipeFilter{IsFavorited: true}, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, []uint{second}, ids(favorited))
	assert.True(t, favorited[0].IsFavorited)

	inCart, _, err := f.svc.ListRecipes(ctx, &f.bob, domain.RecipeFilter{IsInShoppingCart: true}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, []uint{first}, ids(inCart))

	// Viewer-relative filters are ignored for anonymous callers.
	anonymous, _, err := f.svc.ListRecipes(ctx, nil, domain.RecipeFilter{IsFavorited: true}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, anonymous, 3)
}

func TestShortLinkResolve(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.svc.CreateRecipe(ctx, f.alice, f.request("Pancakes", []uint{f.breakfast}, line(f.flour, 100)))
	require.NoError(t, err)

	link, err := f.svc.GetShortLink(ctx, id)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.ShortLink, "http://foodgram.test/s/"))

	token := strings.TrimPrefix(link.ShortLink, "http://foodgram.test/s/")
	assert.Len(t, token, 6)

	resolved, err := f.svc.ResolveShortLink(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, id, resolved)

	_, err = f.svc.ResolveShortLink(ctx, "nope00")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.GetShortLink(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
