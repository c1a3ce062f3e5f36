// Команда migrate управляет схемой PostgreSQL через встроенные миграции:
//
//	migrate [-dsn DSN] [-steps N] [-timeout D] up|down|status|list
//
// Без -dsn строка подключения берётся из конфигурации сервиса
// (CAFE_POSTGRES_DSN или postgres_dsn в файле CAFE_CONFIG_FILE).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/app"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/postgres"
)

const defaultTimeout = 30 * time.Second

type schema interface {
	MigrateUp(ctx context.Context, steps int) error
	MigrateDown(ctx context.Context, steps int) error
	MigrationStatus(ctx context.Context) (int64, int, error)
	Close() error
}

var openSchema = func(ctx context.Context, dsn string) (schema, error) {
	return postgres.Open(ctx, dsn)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.LookupEnv); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, lookup app.EnvLookup) error {
	var (
		steps   int
		dsn     string
		timeout time.Duration
	)
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.IntVar(&steps, "steps", 0, "how many migrations to apply (0 = all) or roll back (default 1)")
	fs.StringVar(&dsn, "dsn", "", "PostgreSQL DSN; defaults to the service configuration")
	fs.DurationVar(&timeout, "timeout", defaultTimeout, "overall deadline")
	fs.Usage = func() {
		_, _ = fmt.Fprintln(out, "usage: migrate [flags] up|down|status|list")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("exactly one command is required")
	}
	command := strings.ToLower(fs.Arg(0))

	known, err := postgres.Migrations()
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	switch command {
	case "list":
		for _, m := range known {
			_, _ = fmt.Fprintf(out, "%04d %s\n", m.Version, m.Name)
		}
		return nil
	case "up", "down", "status":
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if steps < 0 {
		return errors.New("steps must be >= 0")
	}

	if dsn = strings.TrimSpace(dsn); dsn == "" {
		cfg, _, err := app.LoadConfig(lookup)
		if err != nil {
			return err
		}
		dsn = strings.TrimSpace(cfg.PostgresDSN)
	}
	if dsn == "" {
		return errors.New("postgres DSN is required (-dsn, CAFE_POSTGRES_DSN or postgres_dsn in the config file)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := openSchema(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = db.Close() }()

	switch command {
	case "up":
		err = db.MigrateUp(ctx, steps)
	case "down":
		err = db.MigrateDown(ctx, max(steps, 1))
	}
	if err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}

	version, applied, err := db.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("read status: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s: version=%d applied=%d pending=%d\n", command, version, applied, max(len(known)-applied, 0))
	return nil
}
