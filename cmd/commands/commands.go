package commands

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/urfave/cli/v3"
	"gorm.io/gorm"

	"github.com/kdatlt/foodgram/cmd/config"
	migration "github.com/kdatlt/foodgram/cmd/database/migrate"
	"github.com/kdatlt/foodgram/cmd/database/seed"
	"github.com/kdatlt/foodgram/internal/utils"
	"github.com/kdatlt/foodgram/pkg/catalog"
)

const shutdownTimeout = 10 * time.Second

func NewRootCommand() *cli.Command {
	return &cli.Command{
		Name:  "foodgram",
		Usage: "Recipe sharing backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the yaml config file",
				Value:   "config.yaml",
				Sources: cli.EnvVars("CONFIG_PATH"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			utils.LoadConfigFrom(cmd.String("config"))
			return ctx, nil
		},
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			loadIngredientsCmd(),
			loadTagsCmd(),
		},
	}
}

func openDB() (*gorm.DB, error) {
	db, err := config.ConnectDB()
	if err != nil {
		return nil, err
	}
	if err := migration.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API server",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			db, err := openDB()
			if err != nil {
				return err
			}

			app, err := config.NewApp(db)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- app.Listen(":" + utils.GetConfig("SERVER_PORT"))
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				log.Info("shutting down server")
				return app.ShutdownWithTimeout(shutdownTimeout)
			}
		},
	}
}

func migrateCmd() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Create or update the database schema",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, err := openDB()
			return err
		},
	}
}

func fileFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    usage,
		Required: true,
	}
}

func catalogService() (catalog.CatalogService, error) {
	db, err := openDB()
	if err != nil {
		return nil, err
	}
	utils.InitValidator()
	return catalog.NewCatalogService(catalog.NewCatalogRepository(db)), nil
}

func loadIngredientsCmd() *cli.Command {
	return &cli.Command{
		Name:  "load-ingredients",
		Usage: "Import ingredients from a JSON or YAML file",
		Flags: []cli.Flag{fileFlag("ingredients fixture file")},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			service, err := catalogService()
			if err != nil {
				return err
			}
			_, err = seed.LoadIngredients(ctx, service, cmd.String("file"))
			return err
		},
	}
}

func loadTagsCmd() *cli.Command {
	return &cli.Command{
		Name:  "load-tags",
		Usage: "Import tags from a JSON or YAML file",
		Flags: []cli.Flag{fileFlag("tags fixture file")},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			service, err := catalogService()
			if err != nil {
				return err
			}
			_, err = seed.LoadTags(ctx, service, cmd.String("file"))
			return err
		},
	}
}

// Run executes the root command and reports a failure on the logger.
func Run(ctx context.Context, args []string) error {
	if err := NewRootCommand().Run(ctx, args); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Errorf("foodgram: %v", err)
		return fmt.Errorf("run: %w", err)
	}
	return nil
}
