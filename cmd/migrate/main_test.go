package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shashank-Jadhav9718/Timeout-Cafe/internal/storage/postgres"
)

func noEnv(string) (string, bool) { return "", false }

func envWith(key, value string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		if k == key {
			return value, true
		}
		return "", false
	}
}

// fakeSchema считает применённые миграции в памяти.
type fakeSchema struct {
	applied int
	total   int
	upErr   error
	closed  bool
	dsn     string
}

func (f *fakeSchema) MigrateUp(_ context.Context, steps int) error {
	if f.upErr != nil {
		return f.upErr
	}
	if steps == 0 || f.applied+steps > f.total {
		f.applied = f.total
		return nil
	}
	f.applied += steps
	return nil
}

func (f *fakeSchema) MigrateDown(_ context.Context, steps int) error {
	f.applied = max(f.applied-steps, 0)
	return nil
}

func (f *fakeSchema) MigrationStatus(context.Context) (int64, int, error) {
	return int64(f.applied), f.applied, nil
}

func (f *fakeSchema) Close() error {
	f.closed = true
	return nil
}

func useFake(t *testing.T) *fakeSchema {
	t.Helper()
	known, err := postgres.Migrations()
	require.NoError(t, err)
	fake := &fakeSchema{total: len(known)}

	original := openSchema
	openSchema = func(_ context.Context, dsn string) (schema, error) {
		fake.dsn = dsn
		return fake, nil
	}
	t.Cleanup(func() { openSchema = original })
	return fake
}

func TestRun_List(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"list"}, &out, noEnv))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "0001 "), lines[0])
}

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	require.ErrorContains(t, run(nil, &out, noEnv), "exactly one command")
	assert.Contains(t, out.String(), "usage: migrate")

	require.ErrorContains(t, run([]string{"-dsn=postgres://x", "sideways"}, &bytes.Buffer{}, noEnv), `unknown command "sideways"`)
	require.ErrorContains(t, run([]string{"-dsn=postgres://x", "-steps=-1", "up"}, &bytes.Buffer{}, noEnv), "steps")
}

func TestRun_MissingDSN(t *testing.T) {
	err := run([]string{"status"}, &bytes.Buffer{}, noEnv)
	require.ErrorContains(t, err, "CAFE_POSTGRES_DSN")
}

func TestRun_UpDownStatusWithFake(t *testing.T) {
	fake := useFake(t)
	lookup := envWith("CAFE_POSTGRES_DSN", "postgres://cafe@db/cafe")

	var out bytes.Buffer
	require.NoError(t, run([]string{"-steps=1", "up"}, &out, lookup))
	assert.Equal(t, "postgres://cafe@db/cafe", fake.dsn, "dsn comes from the service config")
	assert.Contains(t, out.String(), "up: version=1 applied=1")
	assert.True(t, fake.closed)

	out.Reset()
	require.NoError(t, run([]string{"UP"}, &out, lookup))
	assert.Contains(t, out.String(), "pending=0")

	out.Reset()
	require.NoError(t, run([]string{"-dsn=postgres://flag", "down"}, &out, lookup))
	assert.Equal(t, "postgres://flag", fake.dsn)
	assert.Equal(t, fake.total-1, fake.applied, "down rolls back one migration by default")
	assert.Contains(t, out.String(), "pending=1")

	out.Reset()
	require.NoError(t, run([]string{"status"}, &out, lookup))
	assert.True(t, strings.HasPrefix(out.String(), "status: "))
}

func TestRun_PropagatesFailures(t *testing.T) {
	fake := useFake(t)
	fake.upErr = postgres.ErrMigrationChecksum
	lookup := envWith("CAFE_POSTGRES_DSN", "postgres://cafe@db/cafe")

	err := run([]string{"up"}, &bytes.Buffer{}, lookup)
	require.ErrorIs(t, err, postgres.ErrMigrationChecksum)
	assert.True(t, fake.closed)

	openSchema = func(context.Context, string) (schema, error) { return nil, errors.New("connection refused") }
	require.ErrorContains(t, run([]string{"status"}, &bytes.Buffer{}, lookup), "connect: connection refused")
}

func TestRun_Postgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("CAFE_TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("CAFE_TEST_POSTGRES_DSN is not set")
	}
	for _, args := range [][]string{{"status"}, {"up"}, {"-steps=1", "down"}, {"up"}} {
		var out bytes.Buffer
		require.NoError(t, run(append([]string{"-dsn=" + dsn}, args...), &out, noEnv), args)
		require.Contains(t, out.String(), "version=")
	}
}
