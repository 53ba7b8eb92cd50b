package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gopkg.in/yaml.v2"

	"github.com/kdatlt/foodgram/domain"
	"github.com/kdatlt/foodgram/pkg/catalog"
)

// readFixtures decodes a JSON or YAML list, picking the format by extension.
func readFixtures(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, out)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, out)
	default:
		return fmt.Errorf("unsupported fixture format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func LoadIngredients(ctx context.Context, service catalog.CatalogService, path string) (int64, error) {
	var fixtures []domain.IngredientFixture
	if err := readFixtures(path, &fixtures); err != nil {
		return 0, err
	}

	created, err := service.LoadIngredients(ctx, fixtures)
	if err != nil {
		return 0, err
	}
	log.Infof("loaded %d of %d ingredients from %s", created, len(fixtures), path)
	return created, nil
}

func LoadTags(ctx context.Context, service catalog.CatalogService, path string) (int64, error) {
	var fixtures []domain.TagFixture
	if err := readFixtures(path, &fixtures); err != nil {
		return 0, err
	}

	created, err := service.LoadTags(ctx, fixtures)
	if err != nil {
		return 0, err
	}
	log.Infof("loaded %d of %d tags from %s", created, len(fixtures), path)
	return created, nil
}
