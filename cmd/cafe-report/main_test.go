package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/service/reports"
)

func memoryEnv(key string) (string, bool) {
	switch key {
	case "CAFE_STORAGE_DRIVER":
		return "memory", true
	case "CAFE_TIMEZONE":
		return "UTC", true
	}
	return "", false
}

func testEntry() *log.Entry {
	logger, _ := test.NewNullLogger()
	return logger.WithField("test", "cafe-report")
}

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-type", "Sales", "-format", "PDF", "-from", "2026-05-01", "-to", "2026-05-31"}, time.UTC)
	require.NoError(t, err)
	require.Equal(t, reports.KindSales, opts.kind)
	require.Equal(t, formatPDF, opts.format)
	require.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), opts.rng.From)
	require.Equal(t, time.Date(2026, 5, 31, 0, 0, 0, 0, time.UTC), opts.rng.To)

	opts, err = parseOptions(nil, time.UTC)
	require.NoError(t, err)
	require.Equal(t, reports.KindAll, opts.kind)
	require.Equal(t, formatCSV, opts.format)
	require.True(t, opts.rng.From.IsZero())
}

func TestParseOptions_Errors(t *testing.T) {
	for name, args := range map[string][]string{
		"unknown type":   {"-type", "inventory"},
		"unknown format": {"-format", "xlsx"},
		"bad date":       {"-from", "01/05/2026"},
		"inverted range": {"-from", "2026-05-10", "-to", "2026-05-01"},
		"unknown flag":   {"-verbose"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseOptions(args, time.UTC)
			require.Error(t, err)
		})
	}
}

func TestRun_CSVToStdout(t *testing.T) {
	var out bytes.Buffer
	path, err := run(context.Background(), []string{"-type", "menu", "-out", "-"}, memoryEnv, &out, testEntry())
	require.NoError(t, err)
	require.Empty(t, path)

	body := out.String()
	require.True(t, strings.HasPrefix(body, "Menu Items\n"), body)
	require.Contains(t, body, "Cappuccino")
	require.NotContains(t, body, "Staff Report")
}

func TestRun_PDFToFile(t *testing.T) {
	dir := t.TempDir()
	path, err := run(context.Background(), []string{"-format", "pdf", "-out", dir}, memoryEnv, &bytes.Buffer{}, testEntry())
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(path))
	require.True(t, strings.HasPrefix(filepath.Base(path), "cafe-report-"))
	require.True(t, strings.HasSuffix(path, ".pdf"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRun_Errors(t *testing.T) {
	_, err := run(context.Background(), []string{"-out", filepath.Join(t.TempDir(), "missing", "dir")}, memoryEnv, &bytes.Buffer{}, testEntry())
	require.ErrorContains(t, err, "create report file")

	_, err = run(context.Background(), nil, func(key string) (string, bool) {
		if key == "CAFE_STORAGE_DRIVER" {
			return "sqlite", true
		}
		return "", false
	}, &bytes.Buffer{}, testEntry())
	require.ErrorContains(t, err, "unsupported storage driver")
}
