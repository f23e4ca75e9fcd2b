package postgres

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// testPool is a global connection pool used by all tests in this package.
var testPool *pgxpool.Pool

// TestMain starts PostgreSQL, applies the migrations from disk and runs
// the package tests against it.
func TestMain(m *testing.M) {
	os.Exit(run(m))
}

func run(m *testing.M) int {
	ctx := context.Background()

	log.Println("Setting up PostgreSQL container...")
	pgContainer, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("support-desk"),
		tcpostgres.WithUsername("user"),
		tcpostgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		log.Printf("could not start postgres container: %v", err)
		return 1
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("could not terminate postgres container: %v", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Printf("could not get connection string: %v", err)
		return 1
	}

	// postgres -> secondary -> adapters -> internal -> project root
	migrationsPath, err := filepath.Abs("../../../../migrations")
	if err != nil {
		log.Printf("could not find migrations directory: %v", err)
		return 1
	}

	mig, err := migrate.New("file://"+migrationsPath, connStr)
	if err != nil {
		log.Printf("could not create migrate instance: %v", err)
		return 1
	}
	if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		log.Printf("could not run migrations: %v", err)
		return 1
	}
	_, _ = mig.Close()

	// The embedded copy must agree with the files on disk
	if err := MigrateUp(connStr); err != nil {
		log.Printf("embedded migrations: %v", err)
		return 1
	}

	testPool, err = pgxpool.New(ctx, connStr)
	if err != nil {
		log.Printf("could not create connection pool: %v", err)
		return 1
	}
	defer testPool.Close()

	return m.Run()
}

// resetDB empties every table so each test starts from a blank schema.
func resetDB(t *testing.T) {
	t.Helper()
	_, err := testPool.Exec(context.Background(),
		`TRUNCATE ticket_messages, tickets, topics, staff_settings`)
	require.NoError(t, err)
}

func newTestStorage(t *testing.T) (*TicketRepository, *TopicRepository) {
	t.Helper()
	resetDB(t)
	tm := NewTransactionManager(testPool)
	return NewTicketRepository(testPool, tm), NewTopicRepository(testPool)
}
