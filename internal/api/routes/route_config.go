package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdatlt/foodgram/internal/api/handlers"
	"github.com/kdatlt/foodgram/internal/middleware"
	"github.com/kdatlt/foodgram/pkg/jwt"
)

type Config struct {
	App            *fiber.App
	UserHandler    handlers.UserHandler
	RecipeHandler  handlers.RecipeHandler
	CatalogHandler handlers.CatalogHandler
	Middleware     middleware.Middleware
	JWTService     jwt.JWTService
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.App.Use(c.Middleware.MetricsMiddleware())
	c.Auth()
	c.User()
	c.Catalog()
	c.Recipe()
	c.GuestRoute()
}

func (c *Config) Auth() {
	auth := c.App.Group("/api/auth/token")
	{
		auth.Post("/login/", c.UserHandler.Login)
		auth.Post("/logout/", c.Middleware.AuthMiddleware(c.JWTService), c.UserHandler.Logout)
	}
}

func (c *Config) User() {
	required := c.Middleware.AuthMiddleware(c.JWTService)
	optional := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	user := c.App.Group("/api/users")
	// static paths first so they are not captured by /:id/
	{
		user.Get("/", optional, c.UserHandler.GetUsers)
		user.Post("/", c.UserHandler.Register)
		user.Get("/me/", required, c.UserHandler.Me)
		user.Put("/me/avatar/", required, c.UserHandler.UpdateAvatar)
		user.Delete("/me/avatar/", required, c.UserHandler.DeleteAvatar)
		user.Post("/set_password/", required, c.UserHandler.SetPassword)
		user.Post("/reset_password/", c.UserHandler.ResetPassword)
		user.Post("/reset_password_confirm/", c.UserHandler.ResetPasswordConfirm)
		user.Get("/subscriptions/", required, c.UserHandler.GetSubscriptions)
		user.Get("/:id<int>/", optional, c.UserHandler.GetUser)
		user.Post("/:id<int>/subscribe/", required, c.UserHandler.Subscribe)
		user.Delete("/:id<int>/subscribe/", required, c.UserHandler.Unsubscribe)
	}
}

func (c *Config) Catalog() {
	api := c.App.Group("/api")
	{
		api.Get("/ingredients/", c.CatalogHandler.GetIngredients)
		api.Get("/ingredients/:id<int>/", c.CatalogHandler.GetIngredient)
		api.Get("/tags/", c.CatalogHandler.GetTags)
		api.Get("/tags/:id<int>/", c.CatalogHandler.GetTag)
	}
}

func (c *Config) Recipe() {
	required := c.Middleware.AuthMiddleware(c.JWTService)
	optional := c.Middleware.OptionalAuthMiddleware(c.JWTService)

	recipes := c.App.Group("/api/recipes")
	{
		recipes.Get("/", optional, c.RecipeHandler.GetRecipes)
		recipes.Post("/", required, c.RecipeHandler.CreateRecipe)
		recipes.Get("/download_shopping_cart/", required, c.RecipeHandler.DownloadShoppingCart)
		recipes.Get("/:id<int>/", optional, c.RecipeHandler.GetRecipe)
		recipes.Patch("/:id<int>/", required, c.RecipeHandler.UpdateRecipe)
		recipes.Delete("/:id<int>/", required, c.RecipeHandler.DeleteRecipe)
		recipes.Get("/:id<int>/get-link/", c.RecipeHandler.GetShortLink)
		recipes.Post("/:id<int>/favorite/", required, c.RecipeHandler.AddFavorite)
		recipes.Delete("/:id<int>/favorite/", required, c.RecipeHandler.RemoveFavorite)
		recipes.Post("/:id<int>/shopping_cart/", required, c.RecipeHandler.AddToShoppingCart)
		recipes.Delete("/:id<int>/shopping_cart/", required, c.RecipeHandler.RemoveFromShoppingCart)
	}

	c.App.Get("/s/:token", c.RecipeHandler.RedirectShortLink)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	c.App.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
}
