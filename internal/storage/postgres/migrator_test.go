package postgres

import (
	"context"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func migrationFile(body string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(body)}
}

func TestLoadMigrationsFromFS(t *testing.T) {
	set, err := loadMigrationsFromFS(fstest.MapFS{
		"sql/migrations/0002_more.up.sql":   migrationFile("CREATE TABLE b (id INT);"),
		"sql/migrations/0002_more.down.sql": migrationFile("DROP TABLE b;"),
		"sql/migrations/0001_init.up.sql":   migrationFile("CREATE TABLE a (id INT);"),
		"sql/migrations/0001_init.down.sql": migrationFile("DROP TABLE a;"),
		"sql/migrations/README.txt":         migrationFile("ignored"),
	})
	require.NoError(t, err)
	require.Len(t, set, 2)
	require.Equal(t, int64(1), set[0].Version)
	require.Equal(t, "init", set[0].Name)
	require.Equal(t, "more", set[1].Name)
	require.Len(t, set[0].Checksum, 64)
	require.NotEqual(t, set[0].Checksum, set[1].Checksum)
}

func TestLoadMigrationsFromFS_Errors(t *testing.T) {
	tests := map[string]fstest.MapFS{
		"both up and down": {
			"sql/migrations/0001_init.up.sql": migrationFile("SELECT 1;"),
		},
		"invalid migration file name": {
			"sql/migrations/not_a_migration.sql": migrationFile("SELECT 1;"),
		},
		"is empty": {
			"sql/migrations/0001_init.up.sql":   migrationFile("  \n"),
			"sql/migrations/0001_init.down.sql": migrationFile("SELECT 1;"),
		},
		"conflicting names": {
			"sql/migrations/0001_init.up.sql":    migrationFile("SELECT 1;"),
			"sql/migrations/0001_other.down.sql": migrationFile("SELECT 1;"),
		},
		"no migration files": {
			"sql/migrations/notes.txt": migrationFile("nothing here"),
		},
	}
	for want, fsys := range tests {
		t.Run(want, func(t *testing.T) {
			_, err := loadMigrationsFromFS(fsys)
			require.ErrorContains(t, err, want)
		})
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	infos, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, infos)
	for i, info := range infos {
		require.Equal(t, int64(i+1), info.Version, "versions must be contiguous")
	}
}

func expectMigrationLock(mock sqlmock.Sqlmock) {
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_lock($1)`)).WithArgs(migrationLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectMigrationUnlock(mock sqlmock.Sqlmock) {
	mock.ExpectExec(regexp.QuoteMeta(`SELECT pg_advisory_unlock($1)`)).WithArgs(migrationLockKey).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestMigrateUp_DetectsChecksumDrift(t *testing.T) {
	store, mock := newMockStore(t)
	expectMigrationLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version, checksum FROM schema_migrations`)).
		WillReturnRows(sqlmock.NewRows([]string{"version", "checksum"}).AddRow(int64(1), "deadbeef"))
	expectMigrationUnlock(mock)

	err := store.MigrateUp(context.Background(), 0)
	require.ErrorIs(t, err, ErrMigrationChecksum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUp_NoopWhenEverythingApplied(t *testing.T) {
	set, err := loadMigrationsFromFS(embeddedMigrations)
	require.NoError(t, err)

	store, mock := newMockStore(t)
	expectMigrationLock(mock)
	rows := sqlmock.NewRows([]string{"version", "checksum"})
	for _, m := range set {
		rows.AddRow(m.Version, m.Checksum)
	}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version, checksum FROM schema_migrations`)).WillReturnRows(rows)
	expectMigrationUnlock(mock)

	require.NoError(t, store.MigrateUp(context.Background(), 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateDown_RollsBackLatestInTransaction(t *testing.T) {
	store, mock := newMockStore(t)
	expectMigrationLock(mock)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT version, checksum FROM schema_migrations`)).
		WillReturnRows(sqlmock.NewRows([]string{"version", "checksum"}).AddRow(int64(1), "").AddRow(int64(2), ""))
	mock.ExpectBegin()
	mock.ExpectExec(`DROP`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM schema_migrations WHERE version = $1`)).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectMigrationUnlock(mock)

	require.NoError(t, store.MigrateDown(context.Background(), 0))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationStatus(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS schema_migrations`)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(version), 0), COUNT(*) FROM schema_migrations`)).
		WillReturnRows(sqlmock.NewRows([]string{"version", "count"}).AddRow(int64(2), 2))

	version, count, err := store.MigrationStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(2), version)
	require.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_NilGuards(t *testing.T) {
	var store *Store
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.ErrorIs(t, store.Ping(ctx), errStoreNotInitialized)
	require.ErrorIs(t, store.MigrateUp(ctx, 0), errStoreNotInitialized)
	require.ErrorIs(t, store.MigrateDown(ctx, 1), errStoreNotInitialized)
	_, _, err := store.MigrationStatus(ctx)
	require.ErrorIs(t, err, errStoreNotInitialized)
	require.NoError(t, store.Close())
}

func TestMigrator_PostgresLifecycle(t *testing.T) {
	store := openRawPostgresStoreForIntegrationTest(t)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	infos, err := Migrations()
	require.NoError(t, err)
	latest := infos[len(infos)-1].Version

	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.MigrateDown(ctx, len(infos)))
	version, count, err := store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Zero(t, version)
	require.Zero(t, count)

	require.NoError(t, store.MigrateUp(ctx, 1))
	version, _, err = store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), version)

	require.NoError(t, store.EnsureSchema(ctx))
	require.NoError(t, store.EnsureSchema(ctx))
	version, count, err = store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, latest, version)
	require.Equal(t, len(infos), count)

	require.NoError(t, store.MigrateDown(ctx, 0))
	version, _, err = store.MigrationStatus(ctx)
	require.NoError(t, err)
	require.Equal(t, latest-1, version)
	require.NoError(t, store.EnsureSchema(ctx))
}
