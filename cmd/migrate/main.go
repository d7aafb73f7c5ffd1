package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/shopledger/backend/internal/infrastructure/config"
	"github.com/shopledger/backend/internal/infrastructure/logger"
	"github.com/shopledger/backend/internal/infrastructure/migration"
	"github.com/shopledger/backend/migrations"
	"go.uber.org/zap"
)

func main() {
	var (
		dir      string
		logLevel string
	)
	flag.StringVar(&dir, "path", "", "Read migrations from this directory instead of the embedded set")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	// create and list only touch the filesystem
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name>")
		}
		f, err := migration.Create(dirOrDefault(dir), args[1])
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created",
			zap.Uint("version", f.Version),
			zap.String("up_file", f.UpPath),
			zap.String("down_file", f.DownPath))
		return
	case "list":
		entries, err := migration.List(dirOrDefault(dir))
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		for _, e := range entries {
			fmt.Printf("%06d  %s\n", e.Version, e.Name)
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Database.Driver != config.DriverPostgres {
		log.Fatal("SQL migrations target postgres; sqlite schemas are created by auto-migration",
			zap.String("driver", cfg.Database.Driver))
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	var m *migration.Migrator
	if dir == "" {
		m, err = migration.New(db, migrations.FS, log)
	} else {
		m, err = migration.NewFromDir(cfg.Database.DSN(), dir, log)
	}
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	if err := execute(m, args); err != nil {
		log.Fatal("Migration command failed", zap.String("command", command), zap.Error(err))
	}

	if command == "version" {
		status, err := m.Status()
		if err != nil {
			log.Fatal("Failed to read version", zap.Error(err))
		}
		log.Info("Current migration version", zap.Uint("version", status.Version), zap.Bool("dirty", status.Dirty))
	}
}

func execute(m *migration.Migrator, args []string) error {
	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "step":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(n))
	case "force":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	case "version":
		return nil
	}
	printUsage()
	return fmt.Errorf("unknown command %q", args[0])
}

func intArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a numeric argument", args[0])
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[1])
	}
	return n, nil
}

func dirOrDefault(dir string) string {
	if dir == "" {
		return "migrations"
	}
	return dir
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `ShopLedger database migrations

Usage:
  migrate [flags] <command> [argument]

Commands:
  up               Apply all pending migrations
  down             Roll back all migrations
  step <n>         Apply n migrations (negative rolls back)
  goto <version>   Migrate to a specific version
  version          Show the current version
  force <version>  Record a version without running it
  create <name>    Write the next migration pair into ./migrations
  list             List migrations on disk

Flags:
  -path string       Migrations directory (default: embedded set)
  -log-level string  Log level (default: info)`)
}
