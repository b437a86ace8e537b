package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alexanderramin/smeta/internal/api"
	"github.com/alexanderramin/smeta/internal/cli"
	"github.com/alexanderramin/smeta/internal/config"
	"github.com/alexanderramin/smeta/internal/db"
	"github.com/alexanderramin/smeta/internal/i18n"
	"github.com/alexanderramin/smeta/internal/repository"
	"github.com/alexanderramin/smeta/internal/service"
	"github.com/alexanderramin/smeta/internal/session"
	"github.com/alexanderramin/smeta/internal/store"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// The config, api and db flags are needed before the command tree
	// exists. Cobra parses them again and ignores them.
	flags := pflag.NewFlagSet("smeta", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.Usage = func() {}
	configFile := flags.String("config", "", "")
	baseURL := flags.String("api", "", "")
	dbPath := flags.String("db", "", "")
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.LoadWith(config.Options{ConfigFile: *configFile})
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *dbPath != "" {
		if cfg.DB.Path, err = config.ExpandHome(*dbPath); err != nil {
			return err
		}
	}

	logOut, err := cfg.Log.OpenLog()
	if err != nil {
		return err
	}
	defer logOut.Close()
	logOpts := cfg.Log.HandlerOptions()

	translator, err := i18n.New()
	if err != nil {
		return err
	}

	// Open database
	database, err := db.OpenDB(cfg.DB.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	settingsRepo := repository.NewSQLiteSettingsRepo(database)
	historyRepo := repository.NewSQLiteHistoryRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	sess := session.New(settingsRepo, uow, nil)
	if err := sess.Load(context.Background(), i18n.LocaleFromEnv(os.Getenv)); err != nil {
		return fmt.Errorf("loading session: %w", err)
	}

	client := api.New(api.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, sess, api.NewLogObserver(logOut, logOpts))
	cache := store.New()
	observer := service.NewLogUseCaseObserver(logOut, logOpts)

	app := &cli.App{
		Session:    sess,
		Translator: translator,
		Config:     cfg,
		Auth:       service.NewAuthService(sess, client, cache, observer),
		Plans:      service.NewPlanService(client, cache, observer),
		Items:      service.NewItemService(client, cache, observer),
		Executions: service.NewExecutionService(client, cache, observer),
		Catalog:    service.NewCatalogService(client, cache, cfg.UI.SearchMinChars),
		History:    historyRepo,
	}

	// Detect interactive terminal for the TUI entrypoint.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
