package domain

import (
	"fmt"
	"time"
)

const (
	MinCookingTime = 1
	MaxCookingTime = 32000
	MinAmount      = 1
	MaxAmount      = 32000
)

var (
	MessageSuccessGetRecipes         = "success get recipes"
	MessageSuccessGetRecipeDetail    = "success get recipe detail"
	MessageSuccessCreateRecipe       = "recipe created successfully"
	MessageSuccessUpdateRecipe       = "recipe updated successfully"
	MessageSuccessDeleteRecipe       = "recipe deleted successfully"
	MessageSuccessAddFavorite        = "recipe added to favorites"
	MessageSuccessRemoveFavorite     = "recipe removed from favorites"
	MessageSuccessAddShoppingCart    = "recipe added to shopping cart"
	MessageSuccessRemoveShoppingCart = "recipe removed from shopping cart"
	MessageSuccessGetShortLink       = "success get short link"

	MessageFailedGetRecipes           = "failed to get recipes"
	MessageFailedGetRecipeDetail      = "failed to get recipe detail"
	MessageFailedCreateRecipe         = "failed to create recipe"
	MessageFailedUpdateRecipe         = "failed to update recipe"
	MessageFailedDeleteRecipe         = "failed to delete recipe"
	MessageFailedAddFavorite          = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite       = "failed to remove recipe from favorites"
	MessageFailedAddShoppingCart      = "failed to add recipe to shopping cart"
	MessageFailedRemoveShoppingCart   = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShoppingCart = "failed to download shopping cart"
	MessageFailedGetShortLink         = "failed to get short link"

	ErrRecipeNotFound           = fmt.Errorf("recipe %w", ErrNotFound)
	ErrShortLinkNotFound        = fmt.Errorf("short link %w", ErrNotFound)
	ErrUnauthorizedRecipeAccess = fmt.Errorf("%w: only the author can change this recipe", ErrForbidden)

	ErrEmptyTags          = fmt.Errorf("%w: tags must not be empty", ErrValidation)
	ErrEmptyIngredients   = fmt.Errorf("%w: ingredients must not be empty", ErrValidation)
	ErrInvalidCookingTime = fmt.Errorf("%w: cooking_time must be between %d and %d", ErrValidation, MinCookingTime, MaxCookingTime)
	ErrRecipeNameRequired = fmt.Errorf("%w: name is required", ErrValidation)
	ErrRecipeTextRequired = fmt.Errorf("%w: text is required", ErrValidation)
	ErrImageRequired      = fmt.Errorf("%w: image is required", ErrValidation)

	ErrAlreadyFavorited = fmt.Errorf("recipe is %w in favorites", ErrDuplicate)
	ErrNotFavorited     = fmt.Errorf("recipe is not in favorites: %w", ErrNotFound)
	ErrAlreadyInCart    = fmt.Errorf("recipe is %w in shopping cart", ErrDuplicate)
	ErrNotInCart        = fmt.Errorf("recipe is not in shopping cart: %w", ErrNotFound)
)

type (
	RecipeIngredientRequest struct {
		ID     uint `json:"id" validate:"required"`
		Amount int  `json:"amount" validate:"min=1,max=32000"`
	}

	// RecipeWriteRequest is the payload for both create and update. Image is a
	// data URI and may be left empty on update to keep the current image.
	RecipeWriteRequest struct {
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
		Tags        []uint                    `json:"tags" validate:"required,min=1,dive,required"`
		Image       string                    `json:"image"`
		Name        string                    `json:"name" validate:"required,max=256"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"min=1,max=32000"`
	}

	RecipeFilter struct {
		AuthorID         *uint
		TagSlugs         []string
		IsFavorited      bool
		IsInShoppingCart bool
	}

	RecipeIngredientResponse struct {
		ID              uint   `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               uint                       `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		PubDate          time.Time                  `json:"pub_date"`
	}

	RecipeShort struct {
		ID          uint   `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	ShoppingListItem struct {
		IngredientID    uint   `json:"ingredient_id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int64  `json:"amount"`
	}

	ShortLinkResponse struct {
		ShortLink string `json:"short-link"`
	}
)
