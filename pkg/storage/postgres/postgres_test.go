package postgres_test

import (
	"context"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hues/pkg/storage"
	"github.com/papercomputeco/hues/pkg/storage/postgres"
	testutils "github.com/papercomputeco/hues/pkg/utils/test"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("HUES_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("HUES_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	testutils.ItBehavesLikeADriver(func() storage.Driver {
		ctx := context.Background()
		driver, err := postgres.NewDriver(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())

		// Clean all collections before each test for isolation.
		_, err = driver.DB.ExecContext(ctx, "DELETE FROM fingerprints")
		Expect(err).NotTo(HaveOccurred())
		_, err = driver.DB.ExecContext(ctx, "DELETE FROM collections")
		Expect(err).NotTo(HaveOccurred())

		return driver
	})
})
