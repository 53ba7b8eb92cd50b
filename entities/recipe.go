package entities

import (
	"time"
)

type Recipe struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	ImageURL    string    `gorm:"not null" json:"image"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	CookingTime int       `gorm:"not null;check:chk_recipe_cooking_time,cooking_time >= 1" json:"cooking_time"`
	ShortLink   string    `gorm:"size:16;uniqueIndex;not null" json:"short_link"`
	PubDate     time.Time `gorm:"not null;index;autoCreateTime" json:"pub_date"`
	UpdatedAt   time.Time `json:"updated_at"`

	Author          *User            `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	IngredientLines []IngredientLine `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	TagLinks        []TagLink        `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

// IngredientLine is one ingredient with its amount inside a recipe. Rows are
// read back ordered by ID, which preserves the order they were submitted in.
type IngredientLine struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_ingredient_line_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;index;uniqueIndex:idx_ingredient_line_recipe_ingredient" json:"ingredient_id"`
	Amount       int  `gorm:"not null;check:chk_ingredient_line_amount,amount >= 1" json:"amount"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type TagLink struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_tag_link_recipe_tag" json:"recipe_id"`
	TagID    uint `gorm:"not null;index;uniqueIndex:idx_tag_link_recipe_tag" json:"tag_id"`

	Tag *Tag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;index;uniqueIndex:idx_favorite_user_recipe" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

type ShoppingCartItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_shopping_cart_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;index;uniqueIndex:idx_shopping_cart_user_recipe" json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}
