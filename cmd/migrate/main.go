package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	product "github.com/angelmondragon/artcart-backend/internal/products"
	"github.com/angelmondragon/artcart-backend/pkg/config"
	"github.com/angelmondragon/artcart-backend/pkg/db"
	"github.com/angelmondragon/artcart-backend/pkg/db/models"
	"github.com/angelmondragon/artcart-backend/pkg/logger"
	"github.com/angelmondragon/artcart-backend/pkg/migrate"
)

type options struct {
	cmd      string
	dir      string
	name     string
	version  string
	seedFile string
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "up|down|status|version|create|validate|seed")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.StringVar(&opts.seedFile, "file", "", "catalog JSON file for -cmd=seed")
	flag.Parse()

	if err := run(logg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "migrate %s: %v\n", opts.cmd, err)
		os.Exit(1)
	}
}

func run(logg *logger.Logger, opts options) error {
	// create and validate only touch the filesystem.
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("missing -name")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer dbClient.Close()

	if opts.cmd == "seed" {
		return seed(ctx, logg, dbClient, opts.seedFile)
	}

	if cfg.DB.Driver == config.DriverSQLite {
		if opts.cmd != "up" {
			return fmt.Errorf("sqlite databases only support -cmd=up")
		}
		logg.Info(ctx, "sqlite: migrating from models")
		return dbClient.AutoMigrate(models.All()...)
	}

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		return fmt.Errorf("sql database: %w", err)
	}
	logg.Info(logg.WithField(ctx, "dir", opts.dir), "migrate ready")
	return goose(ctx, sqlDB, opts)
}

func goose(ctx context.Context, sqlDB *sql.DB, opts options) error {
	switch opts.cmd {
	case "up", "down", "status":
		return migrate.Run(ctx, sqlDB, opts.dir, opts.cmd)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("missing -version")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, opts.dir, opts.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}

func seed(ctx context.Context, logg *logger.Logger, dbClient *db.Client, path string) error {
	if path == "" {
		return fmt.Errorf("missing -file")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	svc, err := product.NewService(product.NewRepository(dbClient.DB()), logg)
	if err != nil {
		return err
	}
	n, err := product.Seed(ctx, svc, f)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "products", n), "catalog seeded")
	return nil
}
