package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/kdatlt/foodgram/domain"
	"github.com/kdatlt/foodgram/entities"
	"github.com/kdatlt/foodgram/internal/utils"
)

type (
	CatalogService interface {
		ListIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error)
		GetIngredient(ctx context.Context, id uint) (domain.IngredientResponse, error)
		ListTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTag(ctx context.Context, id uint) (domain.TagResponse, error)
		LoadIngredients(ctx context.Context, fixtures []domain.IngredientFixture) (int64, error)
		LoadTags(ctx context.Context, fixtures []domain.TagFixture) (int64, error)
	}

	catalogService struct {
		catalogRepository CatalogRepository
	}
)

func NewCatalogService(catalogRepository CatalogRepository) CatalogService {
	return &catalogService{catalogRepository: catalogRepository}
}

func ToIngredientResponse(i *entities.Ingredient) domain.IngredientResponse {
	return domain.IngredientResponse{
		ID:              i.ID,
		Name:            i.Name,
		MeasurementUnit: i.MeasurementUnit,
	}
}

func ToTagResponse(t *entities.Tag) domain.TagResponse {
	return domain.TagResponse{
		ID:   t.ID,
		Name: t.Name,
		Slug: t.Slug,
	}
}

func (s *catalogService) ListIngredients(ctx context.Context, namePrefix string) ([]domain.IngredientResponse, error) {
	ingredients, err := s.catalogRepository.ListIngredients(ctx, strings.TrimSpace(namePrefix))
	if err != nil {
		return nil, err
	}
	res := make([]domain.IngredientResponse, 0, len(ingredients))
	for _, i := range ingredients {
		res = append(res, ToIngredientResponse(i))
	}
	return res, nil
}

func (s *catalogService) GetIngredient(ctx context.Context, id uint) (domain.IngredientResponse, error) {
	ingredient, err := s.catalogRepository.GetIngredientByID(ctx, id)
	if err != nil {
		return domain.IngredientResponse{}, err
	}
	return ToIngredientResponse(ingredient), nil
}

func (s *catalogService) ListTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.catalogRepository.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]domain.TagResponse, 0, len(tags))
	for _, t := range tags {
		res = append(res, ToTagResponse(t))
	}
	return res, nil
}

func (s *catalogService) GetTag(ctx context.Context, id uint) (domain.TagResponse, error) {
	tag, err := s.catalogRepository.GetTagByID(ctx, id)
	if err != nil {
		return domain.TagResponse{}, err
	}
	return ToTagResponse(tag), nil
}

func (s *catalogService) LoadIngredients(ctx context.Context, fixtures []domain.IngredientFixture) (int64, error) {
	rows := make([]*entities.Ingredient, 0, len(fixtures))
	for i, f := range fixtures {
		if err := utils.Validate.Struct(f); err != nil {
			return 0, fmt.Errorf("%w: ingredient #%d: %v", domain.ErrValidation, i, err)
		}
		rows = append(rows, &entities.Ingredient{
			Name:            strings.TrimSpace(f.Name),
			MeasurementUnit: strings.TrimSpace(f.MeasurementUnit),
		})
	}
	return s.catalogRepository.CreateIngredients(ctx, rows)
}

func (s *catalogService) LoadTags(ctx context.Context, fixtures []domain.TagFixture) (int64, error) {
	rows := make([]*entities.Tag, 0, len(fixtures))
	for i, f := range fixtures {
		if err := utils.Validate.Struct(f); err != nil {
			return 0, fmt.Errorf("%w: tag #%d: %v", domain.ErrValidation, i, err)
		}
		rows = append(rows, &entities.Tag{Name: strings.TrimSpace(f.Name), Slug: f.Slug})
	}
	return s.catalogRepository.CreateTags(ctx, rows)
}
