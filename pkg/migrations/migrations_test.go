package migrations

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
}

func (l *recordingLogger) Info(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) logged(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.infos, msg)
}

type fakeMigrator struct {
	upErr      error
	stepsErr   error
	version    uint
	dirty      bool
	versionErr error
	steps      []int
}

func (m *fakeMigrator) Up() error { return m.upErr }

func (m *fakeMigrator) Steps(n int) error {
	m.steps = append(m.steps, n)
	return m.stepsErr
}

func (m *fakeMigrator) Version() (uint, bool, error) { return m.version, m.dirty, m.versionErr }

func (m *fakeMigrator) Close() (error, error) { return nil, nil }

// blockingMigrator hangs in Up until Close is called.
type blockingMigrator struct {
	release chan struct{}
	once    sync.Once
	closed  atomic.Bool
}

func (m *blockingMigrator) Up() error {
	<-m.release
	return nil
}

func (m *blockingMigrator) Steps(int) error { return m.Up() }

func (m *blockingMigrator) Version() (uint, bool, error) { return 0, false, migrate.ErrNilVersion }

func (m *blockingMigrator) Close() (error, error) {
	m.once.Do(func() {
		m.closed.Store(true)
		close(m.release)
	})
	return nil, nil
}

// stubMigrator swaps both factories for the duration of the test and records
// the source URL and config they were called with.
func stubMigrator(t *testing.T, m migrator, initErr error) (*string, *string) {
	t.Helper()

	origDriver, origMigrator := driverFactory, migratorFactory
	t.Cleanup(func() {
		driverFactory, migratorFactory = origDriver, origMigrator
	})

	var gotURL, gotTable string
	driverFactory = func(_ *sql.DB, cfg Config) (database.Driver, error) {
		gotTable = cfg.MigrationsTable
		return nil, nil
	}
	migratorFactory = func(src string, _ database.Driver) (migrator, error) {
		gotURL = src
		if initErr != nil {
			return nil, initErr
		}
		return m, nil
	}
	return &gotURL, &gotTable
}

func TestUp_RequiresDB(t *testing.T) {
	assert.ErrorContains(t, Up(context.Background(), nil, Config{}), "db is nil")
}

func TestUp_CancelledContextSkipsSetup(t *testing.T) {
	gotURL, _ := stubMigrator(t, &fakeMigrator{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *gotURL)
}

func TestUp_DeadlineClosesRunningMigrator(t *testing.T) {
	block := &blockingMigrator{release: make(chan struct{})}
	stubMigrator(t, block, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := Up(ctx, &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, block.closed.Load())
}

func TestUp_NoChangeIsNotAnError(t *testing.T) {
	stubMigrator(t, &fakeMigrator{upErr: migrate.ErrNoChange}, nil)
	logger := &recordingLogger{}

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}))
	assert.True(t, logger.logged("No migrations to apply"))
}

func TestUp_LogsAppliedVersion(t *testing.T) {
	stubMigrator(t, &fakeMigrator{version: 1}, nil)
	logger := &recordingLogger{}

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir(), Logger: logger}))
	assert.True(t, logger.logged("Migrations applied"))
}

func TestUp_DefaultsTableAndEscapesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sql files")
	gotURL, gotTable := stubMigrator(t, &fakeMigrator{upErr: migrate.ErrNoChange}, nil)

	require.NoError(t, Up(context.Background(), &sql.DB{}, Config{Dir: dir}))

	assert.Equal(t, "schema_migrations", *gotTable)

	parsed, err := url.Parse(*gotURL)
	require.NoError(t, err)
	abs, _ := filepath.Abs(dir)
	assert.Equal(t, "file", parsed.Scheme)
	assert.Equal(t, filepath.ToSlash(abs), parsed.Path)
	assert.Contains(t, *gotURL, "sql%20files")
}

func TestUp_WrapsInitError(t *testing.T) {
	stubMigrator(t, nil, errors.New("no such directory"))

	err := Up(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

	assert.ErrorContains(t, err, "migrations: init")
}

func TestDown_StepsBackwards(t *testing.T) {
	fake := &fakeMigrator{}
	stubMigrator(t, fake, nil)

	require.NoError(t, Down(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()}, 2))
	assert.Equal(t, []int{-2}, fake.steps)
}

func TestDown_RejectsNonPositiveSteps(t *testing.T) {
	assert.Error(t, Down(context.Background(), &sql.DB{}, Config{}, 0))
}

func TestDown_WrapsStepError(t *testing.T) {
	stubMigrator(t, &fakeMigrator{stepsErr: errors.New("file does not exist")}, nil)

	err := Down(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()}, 1)

	assert.ErrorContains(t, err, "migrations: down")
}

func TestStatus(t *testing.T) {
	t.Run("applied", func(t *testing.T) {
		stubMigrator(t, &fakeMigrator{version: 3, dirty: true}, nil)

		state, err := Status(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

		require.NoError(t, err)
		assert.Equal(t, State{Version: 3, Dirty: true, Applied: true}, state)
	})

	t.Run("fresh database", func(t *testing.T) {
		stubMigrator(t, &fakeMigrator{versionErr: migrate.ErrNilVersion}, nil)

		state, err := Status(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

		require.NoError(t, err)
		assert.False(t, state.Applied)
	})

	t.Run("version error", func(t *testing.T) {
		stubMigrator(t, &fakeMigrator{versionErr: errors.New("relation missing")}, nil)

		_, err := Status(context.Background(), &sql.DB{}, Config{Dir: t.TempDir()})

		assert.ErrorContains(t, err, "migrations: version")
	})
}
