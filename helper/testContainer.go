package helper

import (
	"context"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDbImage  = "pgvector/pgvector:pg16"
	testAgeImage = "apache/age:release_PG16_1.5.0"
	testDbName   = "database"
	testDbUser   = "user"
	testDbPass   = "password"
)

// MustStartPostgresContainer starts a pgvector enabled PostgreSQL container and
// returns its teardown function and the mapped port.
func MustStartPostgresContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	return startPostgresContainer(testDbImage)
}

// MustStartAgeContainer starts a PostgreSQL container with Apache AGE installed.
func MustStartAgeContainer() (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	return startPostgresContainer(testAgeImage)
}

func startPostgresContainer(image string) (func(ctx context.Context, opts ...testcontainers.TerminateOption) error, string, error) {
	ctx := context.Background()

	dbContainer, err := postgres.Run(
		ctx,
		image,
		postgres.WithDatabase(testDbName),
		postgres.WithUsername(testDbUser),
		postgres.WithPassword(testDbPass),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}

	dbPort, err := dbContainer.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, "", err
	}

	return dbContainer.Terminate, dbPort.Port(), nil
}

// SetTestDatabaseConfigEnvs points NewDatabaseConfiguration at a test container.
func SetTestDatabaseConfigEnvs(t *testing.T, port string) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", port)
	t.Setenv("DB_DATABASE", testDbName)
	t.Setenv("DB_USERNAME", testDbUser)
	t.Setenv("DB_PASSWORD", testDbPass)
	t.Setenv("DB_SCHEMA", "public")
	t.Setenv("DB_SSLMODE", "disable")
}
