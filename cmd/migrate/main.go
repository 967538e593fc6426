package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/vps-storefront/pkg/config"
	"github.com/angelmondragon/vps-storefront/pkg/db"
	pkgerrors "github.com/angelmondragon/vps-storefront/pkg/errors"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
	"github.com/angelmondragon/vps-storefront/pkg/migrate"
)

const serviceName = "vps-migrate"

type options struct {
	cmd     string
	dir     string
	name    string
	version string
}

// offline commands only touch the migrations directory.
var offline = map[string]func(opts options) (string, error){
	"create": func(opts options) (string, error) {
		if opts.name == "" {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name, time.Now())
		if err != nil {
			return "", err
		}
		return "created migration: " + path, nil
	},
	"validate": func(opts options) (string, error) {
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return "", err
		}
		return "migration validation passed", nil
	},
}

// online commands run against the journal database.
var online = map[string]func(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error{
	"up": func(ctx context.Context, sqlDB *sql.DB, driver string, _ options) error {
		return migrate.Run(ctx, sqlDB, driver, "up")
	},
	"down": func(ctx context.Context, sqlDB *sql.DB, driver string, _ options) error {
		return migrate.Run(ctx, sqlDB, driver, "down")
	},
	"status": func(ctx context.Context, sqlDB *sql.DB, driver string, _ options) error {
		return migrate.Run(ctx, sqlDB, driver, "status")
	},
	"version": func(ctx context.Context, sqlDB *sql.DB, driver string, opts options) error {
		if opts.version == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, sqlDB, driver, opts.version)
	},
}

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "migrations directory (create and validate only)")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.Parse()

	cfg, err := config.LoadStorage()
	if err != nil {
		fail(context.Background(), logg, "failed to load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    opts.cmd,
		"dir":    opts.dir,
		"driver": cfg.DB.Driver,
	})

	if run, ok := offline[opts.cmd]; ok {
		msg, err := run(opts)
		if err != nil {
			fail(ctx, logg, opts.cmd+" failed", err)
		}
		fmt.Println(msg)
		return
	}

	run, ok := online[opts.cmd]
	if !ok {
		fail(ctx, logg, "unknown command", pkgerrors.Newf(pkgerrors.CodeValidation, "unknown -cmd value %q", opts.cmd))
	}
	if !cfg.DB.Enabled() {
		fail(ctx, logg, "database not configured", pkgerrors.Newf(pkgerrors.CodeConfiguration, "VPS_DB_DSN is required for %s", opts.cmd))
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "failed to bootstrap database", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "failed to access sql handle", err)
	}

	if err := run(ctx, sqlDB, dbClient.Driver(), opts); err != nil {
		_ = dbClient.Close()
		fail(ctx, logg, "goose "+opts.cmd+" failed", err)
	}
	logg.Info(ctx, "migrate finished")
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
