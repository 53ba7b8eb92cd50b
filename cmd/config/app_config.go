package config

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"github.com/kdatlt/foodgram/internal/api/handlers"
	"github.com/kdatlt/foodgram/internal/api/routes"
	"github.com/kdatlt/foodgram/internal/middleware"
	"github.com/kdatlt/foodgram/internal/utils"
	"github.com/kdatlt/foodgram/internal/utils/mailing"
	"github.com/kdatlt/foodgram/internal/utils/storage"
	"github.com/kdatlt/foodgram/pkg/catalog"
	"github.com/kdatlt/foodgram/pkg/jwt"
	"github.com/kdatlt/foodgram/pkg/recipe"
	"github.com/kdatlt/foodgram/pkg/user"
)

type AppOptions struct {
	AppURL          string
	JWTSecret       string
	JWTTTL          time.Duration
	ShortLinkLength int
	// RateLimit is the per-client request budget per second; 0 disables the limiter.
	RateLimit   int
	AccessLog   io.Writer
	PrintRoutes bool
	Storage     storage.AwsS3
	Mailer      mailing.Mailer
}

// LoadAppOptions builds the options for a production server from config.
func LoadAppOptions() (AppOptions, error) {
	secret := utils.GetConfig("JWT_SECRET")
	if secret == "" {
		return AppOptions{}, errors.New("JWT_SECRET must be set")
	}

	logFile := utils.GetConfig("LOG_FILE")
	if err := os.MkdirAll(filepath.Dir(logFile), os.ModePerm); err != nil {
		return AppOptions{}, err
	}
	file, err := os.OpenFile(logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o666)
	if err != nil {
		return AppOptions{}, err
	}

	return AppOptions{
		AppURL:          utils.GetConfig("APP_URL"),
		JWTSecret:       secret,
		JWTTTL:          time.Duration(utils.GetConfigInt("JWT_TTL_MINUTES", 1440)) * time.Minute,
		ShortLinkLength: utils.GetConfigInt("SHORT_LINK_LENGTH", 6),
		RateLimit:       utils.GetConfigInt("RATE_LIMIT_PER_SECOND", 20),
		AccessLog:       file,
		PrintRoutes:     true,
		Storage:         storage.NewAwsS3(),
		Mailer:          mailing.NewMailer(mailing.LoadMailConfig()),
	}, nil
}

func NewApp(db *gorm.DB) (*fiber.App, error) {
	opts, err := LoadAppOptions()
	if err != nil {
		return nil, err
	}
	return BuildApp(db, opts), nil
}

func BuildApp(db *gorm.DB, opts AppOptions) *fiber.App {
	utils.InitValidator()
	app := fiber.New(fiber.Config{
		EnablePrintRoutes:     opts.PrintRoutes,
		DisableStartupMessage: !opts.PrintRoutes,
	})
	middlewares := middleware.NewMiddleware()
	validator := utils.Validate

	// setting up recovery, logging and limiter
	app.Use(recover.New(recover.Config{
		EnableStackTrace:  true,
		StackTraceHandler: middleware.PanicRecovered,
	}))
	if opts.AccessLog != nil {
		app.Use(logger.New(logger.Config{
			TimeFormat: "2006-01-02 15:04:05",
			TimeZone:   "UTC",
			Output:     opts.AccessLog,
		}))
	}
	if opts.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:          opts.RateLimit,
			Expiration:   1 * time.Second,
			LimitReached: middleware.RateLimitReached,
		}))
	}

	// Repository
	userRepository := user.NewUserRepository(db)
	catalogRepository := catalog.NewCatalogRepository(db)
	recipeRepository := recipe.NewRecipeRepository(db)

	// Service
	jwtService := jwt.NewJWTService(opts.JWTSecret, opts.JWTTTL)
	userService := user.NewUserService(userRepository, jwtService, opts.Storage, opts.Mailer, opts.AppURL)
	catalogService := catalog.NewCatalogService(catalogRepository)
	recipeService := recipe.NewRecipeService(
		recipeRepository,
		userRepository,
		opts.Storage,
		recipe.NewShortLinkGenerator(opts.ShortLinkLength),
		opts.AppURL,
	)

	// Handler
	userHandler := handlers.NewUserHandler(userService, validator)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	recipeHandler := handlers.NewRecipeHandler(recipeService, validator, opts.AppURL)

	// routes
	routesConfig := routes.Config{
		App:            app,
		UserHandler:    userHandler,
		RecipeHandler:  recipeHandler,
		CatalogHandler: catalogHandler,
		Middleware:     middlewares,
		JWTService:     jwtService,
	}
	routesConfig.Setup()
	return app
}
