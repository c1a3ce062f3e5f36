// Команда cafe-report выгружает отчёт кафе в CSV или PDF из настроенного хранилища.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/app"
	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/reports"
)

const (
	formatCSV = "csv"
	formatPDF = "pdf"
	stdoutOut = "-"
)

type options struct {
	kind   reports.Kind
	format string
	rng    reports.Range
	out    string
}

func parseOptions(args []string, loc *time.Location) (options, error) {
	var (
		kindRaw, from, to string
		opts              options
	)
	fs := flag.NewFlagSet("cafe-report", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&kindRaw, "type", string(reports.KindAll), "report type: all|sales|menu|staff|customers")
	fs.StringVar(&opts.format, "format", formatCSV, "output format: csv|pdf")
	fs.StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	fs.StringVar(&opts.out, "out", ".", "output directory, or - for stdout")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	kind, err := reports.ParseKind(kindRaw)
	if err != nil {
		return options{}, err
	}
	opts.kind = kind

	opts.format = strings.ToLower(strings.TrimSpace(opts.format))
	if opts.format != formatCSV && opts.format != formatPDF {
		return options{}, fmt.Errorf("unsupported format %q (use csv|pdf)", opts.format)
	}

	for _, p := range []struct {
		raw string
		dst *time.Time
		nm  string
	}{{from, &opts.rng.From, "from"}, {to, &opts.rng.To, "to"}} {
		if strings.TrimSpace(p.raw) == "" {
			continue
		}
		parsed, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(p.raw), loc)
		if err != nil {
			return options{}, fmt.Errorf("-%s must be in YYYY-MM-DD format", p.nm)
		}
		*p.dst = parsed
	}
	if !opts.rng.From.IsZero() && !opts.rng.To.IsZero() && opts.rng.To.Before(opts.rng.From) {
		return options{}, errors.New("-to must not be before -from")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, lookup app.EnvLookup, stdout io.Writer, logger *log.Entry) (string, error) {
	cfg, warnings, err := app.LoadConfig(lookup)
	if err != nil {
		return "", err
	}
	for _, w := range warnings {
		logger.Warn(w)
	}
	loc, err := cfg.Location()
	if err != nil {
		return "", err
	}
	opts, err := parseOptions(args, loc)
	if err != nil {
		return "", err
	}

	store, err := app.OpenStorage(ctx, cfg, logger.WithField("component", "storage"))
	if err != nil {
		return "", err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close storage")
		}
	}()

	builder := reports.NewBuilder(store.Orders, store.Menu, store.Staff, store.Customers, loc, logger.WithField("component", "reports"))
	snap, err := builder.Snapshot(ctx, opts.rng)
	if err != nil {
		return "", fmt.Errorf("build report: %w", err)
	}

	export := reports.ExportCSV
	if opts.format == formatPDF {
		export = reports.ExportPDF
	}

	if opts.out == stdoutOut {
		return "", export(stdout, snap, opts.kind)
	}

	path := filepath.Join(opts.out, reports.FileName(snap.GeneratedAt, opts.format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if err := export(f, snap, opts.kind); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("export report: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	logger.WithFields(log.Fields{"path": path, "type": opts.kind}).Info("report written")
	return path, nil
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "cafe-report")

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := run(ctx, os.Args[1:], os.LookupEnv, os.Stdout, logger); err != nil {
		cancel()
		logger.WithError(err).Fatal("report failed")
	}
}
