package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/alexanderramin/timeledger/internal/cli"
	"github.com/alexanderramin/timeledger/internal/config"
	"github.com/alexanderramin/timeledger/internal/db"
	"github.com/alexanderramin/timeledger/internal/repository"
	"github.com/alexanderramin/timeledger/internal/repository/gormstore"
	"github.com/alexanderramin/timeledger/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// --config has to be known before the root command exists.
	pre := pflag.NewFlagSet("timeledger", pflag.ContinueOnError)
	pre.ParseErrorsWhitelist.UnknownFlags = true
	pre.Usage = func() {}
	pre.SetOutput(io.Discard)
	configPath := pre.String("config", "", "")
	_ = pre.Parse(os.Args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	logger := config.SetupLogger(os.Stderr, cfg.App.LogLevel, cfg.App.LogFormat)

	// Wire storage
	var (
		store repository.Store
		uow   repository.UnitOfWork
	)
	switch cfg.Storage.Driver {
	case db.DriverSQLite:
		database, err := db.OpenDB(cfg.Storage.DSN)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		store = repository.NewSQLiteStore(database)
		uow = repository.NewSQLiteUnitOfWork(db.NewSQLiteUnitOfWork(database))
	default:
		gdb, err := db.OpenGorm(db.GormOptions{Driver: cfg.Storage.Driver, DSN: cfg.Storage.DSN}, gormstore.Models()...)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer db.CloseGorm(gdb)
		store = gormstore.New(gdb)
		uow = gormstore.NewUnitOfWork(gdb)
	}
	logger.Debug("storage ready", slog.String("driver", cfg.Storage.Driver))

	engine := service.NewEngine(store, uow,
		service.WithLogger(logger),
		service.WithForceDelete(cfg.Engine.ForceDelete),
		service.WithObserver(service.NewSlogUseCaseObserver(logger)),
	)

	app := &cli.App{
		Engine: engine,
		Config: cfg,
		Logger: logger,
		// Table output only when stdout is a terminal.
		IsTerminal: func(w io.Writer) bool {
			f, ok := w.(*os.File)
			if !ok {
				return false
			}
			return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		},
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
