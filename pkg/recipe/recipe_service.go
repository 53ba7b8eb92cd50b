package recipe

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2/log"

	"github.com/kdatlt/foodgram/domain"
	"github.com/kdatlt/foodgram/entities"
	"github.com/kdatlt/foodgram/internal/utils"
	"github.com/kdatlt/foodgram/internal/utils/storage"
	"github.com/kdatlt/foodgram/pkg/user"
)

const maxRecipeNameLength = 256

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, authorID uint, req domain.RecipeWriteRequest) (uint, error)
		UpdateRecipe(ctx context.Context, actorID, recipeID uint, req domain.RecipeWriteRequest) (uint, error)
		DeleteRecipe(ctx context.Context, actorID, recipeID uint) error
		GetRecipe(ctx context.Context, viewerID *uint, recipeID uint) (domain.RecipeResponse, error)
		ListRecipes(ctx context.Context, viewerID *uint, filter domain.RecipeFilter, page, limit int) ([]domain.RecipeResponse, int64, error)

		AddFavorite(ctx context.Context, userID, recipeID uint) (domain.RecipeShort, error)
		RemoveFavorite(ctx context.Context, userID, recipeID uint) error
		AddToShoppingCart(ctx context.Context, userID, recipeID uint) (domain.RecipeShort, error)
		RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error
		ShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error)

		GetShortLink(ctx context.Context, recipeID uint) (domain.ShortLinkResponse, error)
		ResolveShortLink(ctx context.Context, shortLink string) (uint, error)
	}

	recipeService struct {
		recipeRepository RecipeRepository
		userRepository   user.UserRepository
		s3               storage.AwsS3
		shortLinks       *ShortLinkGenerator
		appURL           string
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	userRepository user.UserRepository,
	s3 storage.AwsS3,
	shortLinks *ShortLinkGenerator,
	appURL string,
) RecipeService {
	return &recipeService{
		recipeRepository: recipeRepository,
		userRepository:   userRepository,
		s3:               s3,
		shortLinks:       shortLinks,
		appURL:           strings.TrimRight(appURL, "/"),
	}
}

func validateRecipeWrite(req domain.RecipeWriteRequest, requireImage bool) error {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ErrRecipeNameRequired
	}
	if utf8.RuneCountInString(name) > maxRecipeNameLength {
		return fmt.Errorf("%w: name must be at most %d characters", domain.ErrValidation, maxRecipeNameLength)
	}
	if strings.TrimSpace(req.Text) == "" {
		return domain.ErrRecipeTextRequired
	}
	if req.CookingTime < domain.MinCookingTime || req.CookingTime > domain.MaxCookingTime {
		return domain.ErrInvalidCookingTime
	}
	if requireImage && req.Image == "" {
		return domain.ErrImageRequired
	}

	if len(req.Tags) == 0 {
		return domain.ErrEmptyTags
	}
	seenTags := make(map[uint]bool, len(req.Tags))
	for _, id := range req.Tags {
		if id == 0 {
			return fmt.Errorf("%w: invalid tag id", domain.ErrValidation)
		}
		if seenTags[id] {
			return fmt.Errorf("%w: tag %d is listed more than once", domain.ErrValidation, id)
		}
		seenTags[id] = true
	}

	if len(req.Ingredients) == 0 {
		return domain.ErrEmptyIngredients
	}
	seenIngredients := make(map[uint]bool, len(req.Ingredients))
	for _, line := range req.Ingredients {
		if line.ID == 0 {
			return fmt.Errorf("%w: invalid ingredient id", domain.ErrValidation)
		}
		if seenIngredients[line.ID] {
			return fmt.Errorf("%w: ingredient %d is listed more than once", domain.ErrValidation, line.ID)
		}
		seenIngredients[line.ID] = true
		if line.Amount < domain.MinAmount || line.Amount > domain.MaxAmount {
			return fmt.Errorf("%w: amount of ingredient %d must be between %d and %d",
				domain.ErrValidation, line.ID, domain.MinAmount, domain.MaxAmount)
		}
	}
	return nil
}

// checkReferences makes sure every tag and ingredient id names an existing row.
func (s *recipeService) checkReferences(ctx context.Context, req domain.RecipeWriteRequest) error {
	ingredientIDs := make([]uint, 0, len(req.Ingredients))
	for _, line := range req.Ingredients {
		ingredientIDs = append(ingredientIDs, line.ID)
	}
	found, err := s.recipeRepository.ExistingIngredientIDs(ctx, ingredientIDs)
	if err != nil {
		return err
	}
	for _, id := range ingredientIDs {
		if !found[id] {
			return fmt.Errorf("%w: ingredient %d does not exist", domain.ErrValidation, id)
		}
	}

	found, err = s.recipeRepository.ExistingTagIDs(ctx, req.Tags)
	if err != nil {
		return err
	}
	for _, id := range req.Tags {
		if !found[id] {
			return fmt.Errorf("%w: tag %d does not exist", domain.ErrValidation, id)
		}
	}
	return nil
}

func (s *recipeService) uploadImage(ctx context.Context, dataURI string) (string, error) {
	data, contentType, ext, err := utils.DecodeDataURI(dataURI)
	if err != nil {
		return "", domain.ErrInvalidImage
	}
	if ext == "" {
		return "", domain.ErrUnsupportedImageType
	}
	objectKey, err := s.s3.UploadFile(ctx, "recipe"+ext, data, contentType, "recipes", storage.AllowImage...)
	if err != nil {
		return "", err
	}
	return s.s3.GetPublicLinkKey(objectKey), nil
}

func (s *recipeService) deleteStoredImage(ctx context.Context, link string) {
	key := s.s3.GetObjectKeyFromLink(link)
	if key == "" {
		return
	}
	if err := s.s3.DeleteFile(ctx, key); err != nil {
		log.Warnf("deleting stored image %s: %v", key, err)
	}
}

func buildIngredientLines(recipeID uint, req []domain.RecipeIngredientRequest) []*entities.IngredientLine {
	lines := make([]*entities.IngredientLine, 0, len(req))
	for _, line := range req {
		lines = append(lines, &entities.IngredientLine{
			RecipeID:     recipeID,
			IngredientID: line.ID,
			Amount:       line.Amount,
		})
	}
	return lines
}

func buildTagLinks(recipeID uint, tagIDs []uint) []*entities.TagLink {
	links := make([]*entities.TagLink, 0, len(tagIDs))
	for _, id := range tagIDs {
		links = append(links, &entities.TagLink{RecipeID: recipeID, TagID: id})
	}
	return links
}

func (s *recipeService) CreateRecipe(ctx context.Context, authorID uint, req domain.RecipeWriteRequest) (uint, error) {
	if err := validateRecipeWrite(req, true); err != nil {
		return 0, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return 0, err
	}

	imageURL, err := s.uploadImage(ctx, req.Image)
	if err != nil {
		return 0, err
	}

	var recipeID uint
	err = s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		shortLink, err := s.shortLinks.Generate(func(token string) (bool, error) {
			return repo.ShortLinkExists(ctx, token)
		})
		if err != nil {
			return err
		}

		recipe := entities.Recipe{
			AuthorID:    authorID,
			Name:        strings.TrimSpace(req.Name),
			ImageURL:    imageURL,
			Text:        req.Text,
			CookingTime: req.CookingTime,
			ShortLink:   shortLink,
		}
		if err := repo.CreateRecipe(ctx, &recipe); err != nil {
			return err
		}
		if err := repo.CreateIngredientLines(ctx, buildIngredientLines(recipe.ID, req.Ingredients)); err != nil {
			return err
		}
		if err := repo.CreateTagLinks(ctx, buildTagLinks(recipe.ID, req.Tags)); err != nil {
			return err
		}
		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		s.deleteStoredImage(ctx, imageURL)
		return 0, err
	}
	return recipeID, nil
}

func (s *recipeService) UpdateRecipe(ctx context.Context, actorID, recipeID uint, req domain.RecipeWriteRequest) (uint, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return 0, err
	}
	if recipe.AuthorID != actorID {
		return 0, domain.ErrUnauthorizedRecipeAccess
	}

	if err := validateRecipeWrite(req, false); err != nil {
		return 0, err
	}
	if err := s.checkReferences(ctx, req); err != nil {
		return 0, err
	}

	var newImageURL string
	if req.Image != "" {
		newImageURL, err = s.uploadImage(ctx, req.Image)
		if err != nil {
			return 0, err
		}
	}

	fields := map[string]any{
		"name":         strings.TrimSpace(req.Name),
		"text":         req.Text,
		"cooking_time": req.CookingTime,
	}
	if newImageURL != "" {
		fields["image_url"] = newImageURL
	}

	err = s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		if err := repo.ReplaceIngredientLines(ctx, recipe.ID, buildIngredientLines(recipe.ID, req.Ingredients)); err != nil {
			return err
		}
		if err := repo.ReplaceTagLinks(ctx, recipe.ID, buildTagLinks(recipe.ID, req.Tags)); err != nil {
			return err
		}
		return repo.UpdateRecipeFields(ctx, recipe.ID, fields)
	})
	if err != nil {
		if newImageURL != "" {
			s.deleteStoredImage(ctx, newImageURL)
		}
		return 0, err
	}

	if newImageURL != "" && recipe.ImageURL != "" {
		s.deleteStoredImage(ctx, recipe.ImageURL)
	}
	return recipe.ID, nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, actorID, recipeID uint) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return err
	}
	if recipe.AuthorID != actorID {
		return domain.ErrUnauthorizedRecipeAccess
	}

	if err := s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		return repo.DeleteRecipe(ctx, recipe.ID)
	}); err != nil {
		return err
	}

	s.deleteStoredImage(ctx, recipe.ImageURL)
	return nil
}

func (s *recipeService) toRecipeResponse(ctx context.Context, viewerID *uint, recipe *entities.Recipe) (domain.RecipeResponse, error) {
	res := domain.RecipeResponse{
		ID:          recipe.ID,
		Tags:        make([]domain.TagResponse, 0, len(recipe.TagLinks)),
		Ingredients: make([]domain.RecipeIngredientResponse, 0, len(recipe.IngredientLines)),
		Name:        recipe.Name,
		Image:       recipe.ImageURL,
		Text:        recipe.Text,
		CookingTime: recipe.CookingTime,
		PubDate:     recipe.PubDate,
	}

	for _, link := range recipe.TagLinks {
		if link.Tag == nil {
			continue
		}
		res.Tags = append(res.Tags, domain.TagResponse{
			ID:   link.Tag.ID,
			Name: link.Tag.Name,
			Slug: link.Tag.Slug,
		})
	}
	for _, line := range recipe.IngredientLines {
		if line.Ingredient == nil {
			continue
		}
		res.Ingredients = append(res.Ingredients, domain.RecipeIngredientResponse{
			ID:              line.Ingredient.ID,
			Name:            line.Ingredient.Name,
			MeasurementUnit: line.Ingredient.MeasurementUnit,
			Amount:          line.Amount,
		})
	}

	var subscribed bool
	if viewerID != nil {
		var err error
		if res.IsFavorited, err = s.recipeRepository.IsFavorited(ctx, *viewerID, recipe.ID); err != nil {
			return domain.RecipeResponse{}, err
		}
		if res.IsInShoppingCart, err = s.recipeRepository.IsInShoppingCart(ctx, *viewerID, recipe.ID); err != nil {
			return domain.RecipeResponse{}, err
		}
		if *viewerID != recipe.AuthorID {
			if subscribed, err = s.userRepository.IsSubscribed(ctx, *viewerID, recipe.AuthorID); err != nil {
				return domain.RecipeResponse{}, err
			}
		}
	}
	if recipe.Author != nil {
		res.Author = user.ToUserResponse(recipe.Author, subscribed)
	}
	return res, nil
}

func (s *recipeService) GetRecipe(ctx context.Context, viewerID *uint, recipeID uint) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeDetail(ctx, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	return s.toRecipeResponse(ctx, viewerID, recipe)
}

func (s *recipeService) ListRecipes(ctx context.Context, viewerID *uint, filter domain.RecipeFilter, page, limit int) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, viewerID, filter, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		item, err := s.toRecipeResponse(ctx, viewerID, recipe)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, item)
	}
	return res, count, nil
}

func (s *recipeService) AddFavorite(ctx context.Context, userID, recipeID uint) (domain.RecipeShort, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return domain.RecipeShort{}, err
	}
	if err := s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		return repo.AddFavorite(ctx, userID, recipe.ID)
	}); err != nil {
		return domain.RecipeShort{}, err
	}
	return user.ToRecipeShort(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, userID, recipeID uint) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		return err
	}
	return s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, userID, recipeID uint) (domain.RecipeShort, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return domain.RecipeShort{}, err
	}
	if err := s.recipeRepository.Transaction(ctx, func(repo RecipeRepository) error {
		return repo.AddToShoppingCart(ctx, userID, recipe.ID)
	}); err != nil {
		return domain.RecipeShort{}, err
	}
	return user.ToRecipeShort(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, userID, recipeID uint) error {
	if _, err := s.recipeRepository.GetRecipeByID(ctx, recipeID); err != nil {
		return err
	}
	return s.recipeRepository.RemoveFromShoppingCart(ctx, userID, recipeID)
}

func (s *recipeService) ShoppingList(ctx context.Context, userID uint) ([]domain.ShoppingListItem, error) {
	return s.recipeRepository.GetShoppingList(ctx, userID)
}

func (s *recipeService) GetShortLink(ctx context.Context, recipeID uint) (domain.ShortLinkResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		return domain.ShortLinkResponse{}, err
	}
	return domain.ShortLinkResponse{
		ShortLink: fmt.Sprintf("%s/s/%s", s.appURL, recipe.ShortLink),
	}, nil
}

func (s *recipeService) ResolveShortLink(ctx context.Context, shortLink string) (uint, error) {
	recipe, err := s.recipeRepository.GetRecipeByShortLink(ctx, shortLink)
	if err != nil {
		return 0, err
	}
	return recipe.ID, nil
}
