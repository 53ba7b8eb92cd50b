package recipe

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kdatlt/foodgram/domain"
	"github.com/kdatlt/foodgram/entities"
)

type (
	RecipeRepository interface {
		// Transaction runs fn against a repository bound to a single database
		// transaction. Returning an error rolls back every write made through it.
		Transaction(ctx context.Context, fn func(repo RecipeRepository) error) error

		CreateRecipe(ctx context.Context, recipe *entities.Recipe) error
		CreateIngredientLines(ctx context.Context, lines []*entities.IngredientLine) error
		CreateTagLinks(ctx context.Context, links []*entities.TagLink) error
		ReplaceIngredientLines(ctx context.Context, recipeID uint, lines []*entities.IngredientLine) error
		ReplaceTagLinks(ctx context.Context, recipeID uint, links []*entities.TagLink) error
		UpdateRecipeFields(ctx context.Context, recipeID uint, fields map[string]any) error
		DeleteRecipe(ctx context.Context, recipeID uint) error

		GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error)
		GetRecipeDetail(ctx context.Context, id uint) (*entities.Recipe, error)
		GetRecipeByShortLink(ctx context.Context, shortLink string) (*entities.Recipe, error)
		ShortLinkExists(ctx context.Context, shortLink string) (bool, error)
		GetRecipes(ctx context.Context, viewerID *uint, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error)
		ExistingIngredientIDs(ctx context.Context, ids []uint) (map[uint]bool, error)
		ExistingTagIDs(ctx context.Context, ids []uint) (map[uint]bool, error)

		AddFavorite(ctx context.Context, userID, recipeID uint) error
		RemoveFavorite(ctx context.Context, userID, recipeID uint) error
		IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error)
		AddToShoppingCart(ctx context.Context, userID, recipeID uint) error
		RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error
		IsInShoppingCart(ctx context.Context, userID, recipeID uint) (bool, error)
		GetShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

func (r *recipeRepository) Transaction(ctx context.Context, fn func(repo RecipeRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&recipeRepository{db: tx})
	})
}

func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(recipe).Error
}

func (r *recipeRepository) CreateIngredientLines(ctx context.Context, lines []*entities.IngredientLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(lines).Error
}

func (r *recipeRepository) CreateTagLinks(ctx context.Context, links []*entities.TagLink) error {
	if len(links) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(links).Error
}

func (r *recipeRepository) ReplaceIngredientLines(ctx context.Context, recipeID uint, lines []*entities.IngredientLine) error {
	if err := r.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Delete(&entities.IngredientLine{}).Error; err != nil {
		return err
	}
	return r.CreateIngredientLines(ctx, lines)
}

func (r *recipeRepository) ReplaceTagLinks(ctx context.Context, recipeID uint, links []*entities.TagLink) error {
	if err := r.db.WithContext(ctx).
		Where("recipe_id = ?", recipeID).
		Delete(&entities.TagLink{}).Error; err != nil {
		return err
	}
	return r.CreateTagLinks(ctx, links)
}

func (r *recipeRepository) UpdateRecipeFields(ctx context.Context, recipeID uint, fields map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&entities.Recipe{ID: recipeID}).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

// DeleteRecipe removes the recipe and every row that references it.
func (r *recipeRepository) DeleteRecipe(ctx context.Context, recipeID uint) error {
	db := r.db.WithContext(ctx)
	for _, model := range []any{
		&entities.IngredientLine{},
		&entities.TagLink{},
		&entities.Favorite{},
		&entities.ShoppingCartItem{},
	} {
		if err := db.Where("recipe_id = ?", recipeID).Delete(model).Error; err != nil {
			return err
		}
	}

	result := db.Delete(&entities.Recipe{}, recipeID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrRecipeNotFound
	}
	return nil
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id uint) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// withDetails preloads the author, tags and ingredient lines. Association rows
// are ordered by their own id so they come back in submission order.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("TagLinks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tag_links.id asc")
		}).
		Preload("TagLinks.Tag").
		Preload("IngredientLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredient_lines.id asc")
		}).
		Preload("IngredientLines.Ingredient")
}

func (r *recipeRepository) GetRecipeDetail(ctx context.Context, id uint) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := withDetails(r.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) GetRecipeByShortLink(ctx context.Context, shortLink string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).Where("short_link = ?", shortLink).First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrShortLinkNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func (r *recipeRepository) ShortLinkExists(ctx context.Context, shortLink string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("short_link = ?", shortLink).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) GetRecipes(ctx context.Context, viewerID *uint, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	var recipes []*entities.Recipe
	var count int64
	offset := (page - 1) * limit

	// A fresh chain per query; gorm statements must not be reused after Count.
	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&entities.Recipe{})
		if filter.AuthorID != nil {
			query = query.Where("recipes.author_id = ?", *filter.AuthorID)
		}
		if len(filter.TagSlugs) > 0 {
			query = query.Where("recipes.id IN (?)", r.db.
				Table("tag_links").
				Select("tag_links.recipe_id").
				Joins("JOIN tags ON tags.id = tag_links.tag_id").
				Where("tags.slug IN ?", filter.TagSlugs))
		}
		if viewerID != nil && filter.IsFavorited {
			query = query.Where("recipes.id IN (?)", r.db.
				Model(&entities.Favorite{}).
				Select("recipe_id").
				Where("user_id = ?", *viewerID))
		}
		if viewerID != nil && filter.IsInShoppingCart {
			query = query.Where("recipes.id IN (?)", r.db.
				Model(&entities.ShoppingCartItem{}).
				Select("recipe_id").
				Where("user_id = ?", *viewerID))
		}
		return query
	}

	if err := filtered().Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := withDetails(filtered()).
		Order("recipes.pub_date desc").
		Order("recipes.id desc").
		Offset(offset).
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

func existingIDs(db *gorm.DB, model any, ids []uint) (map[uint]bool, error) {
	found := make(map[uint]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var rows []uint
	if err := db.Model(model).Where("id IN ?", ids).Pluck("id", &rows).Error; err != nil {
		return nil, err
	}
	for _, id := range rows {
		found[id] = true
	}
	return found, nil
}

func (r *recipeRepository) ExistingIngredientIDs(ctx context.Context, ids []uint) (map[uint]bool, error) {
	return existingIDs(r.db.WithContext(ctx), &entities.Ingredient{}, ids)
}

func (r *recipeRepository) ExistingTagIDs(ctx context.Context, ids []uint) (map[uint]bool, error) {
	return existingIDs(r.db.WithContext(ctx), &entities.Tag{}, ids)
}

func (r *recipeRepository) memberExists(ctx context.Context, model any, userID, recipeID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(model).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// addMember inserts row unless the (user, recipe) pair is already present.
func (r *recipeRepository) addMember(ctx context.Context, row any, userID, recipeID uint, duplicate error) error {
	exists, err := r.memberExists(ctx, row, userID, recipeID)
	if err != nil {
		return err
	}
	if exists {
		return duplicate
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return duplicate
		}
		return err
	}
	return nil
}

func (r *recipeRepository) removeMember(ctx context.Context, model any, userID, recipeID uint, missing error) error {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return missing
	}
	return nil
}

func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uint) error {
	row := &entities.Favorite{UserID: userID, RecipeID: recipeID}
	return r.addMember(ctx, row, userID, recipeID, domain.ErrAlreadyFavorited)
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	return r.removeMember(ctx, &entities.Favorite{}, userID, recipeID, domain.ErrNotFavorited)
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	return r.memberExists(ctx, &entities.Favorite{}, userID, recipeID)
}

func (r *recipeRepository) AddToShoppingCart(ctx context.Context, userID, recipeID uint) error {
	row := &entities.ShoppingCartItem{UserID: userID, RecipeID: recipeID}
	return r.addMember(ctx, row, userID, recipeID, domain.ErrAlreadyInCart)
}

func (r *recipeRepository) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error {
	return r.removeMember(ctx, &entities.ShoppingCartItem{}, userID, recipeID, domain.ErrNotInCart)
}

func (r *recipeRepository) IsInShoppingCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	return r.memberExists(ctx, &entities.ShoppingCartItem{}, userID, recipeID)
}

// GetShoppingList sums ingredient amounts over every recipe in the user's cart,
// one row per ingredient.
func (r *recipeRepository) GetShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error) {
	items := []domain.ShoppingListItem{}
	if err := r.db.WithContext(ctx).
		Table("shopping_cart_items AS sc").
		Select("i.id AS ingredient_id, i.name AS name, i.measurement_unit AS measurement_unit, SUM(il.amount) AS amount").
		Joins("JOIN ingredient_lines AS il ON il.recipe_id = sc.recipe_id").
		Joins("JOIN ingredients AS i ON i.id = il.ingredient_id").
		Where("sc.user_id = ?", userID).
		Group("i.id, i.name, i.measurement_unit").
		Order("i.name asc, i.measurement_unit asc, i.id asc").
		Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
