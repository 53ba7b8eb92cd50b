package migration

import (
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/kdatlt/foodgram/entities"
)

// Models lists every table in dependency order.
var Models = []any{
	&entities.User{},
	&entities.Subscription{},
	&entities.Ingredient{},
	&entities.Tag{},
	&entities.Recipe{},
	&entities.IngredientLine{},
	&entities.TagLink{},
	&entities.Favorite{},
	&entities.ShoppingCartItem{},
}

func Migrate(db *gorm.DB) error {
	for _, model := range Models {
		if err := db.AutoMigrate(model); err != nil {
			return fmt.Errorf("migrating %T: %w", model, err)
		}
	}

	log.Info("Database migration complete")
	return nil
}
