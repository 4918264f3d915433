package spanner

import (
	"context"
	"log"
	"os"
	"testing"

	"cloud.google.com/go/spanner"
	initiator "github.com/cccteam/db-initiator"
)

var container *initiator.SpannerContainer

func TestMain(m *testing.M) {
	ctx := context.Background()

	c, err := initiator.NewSpannerContainer(ctx, "latest")
	if err != nil {
		log.Fatal(err)
	}
	container = c

	code := m.Run()

	if err := c.Terminate(ctx); err != nil {
		log.Println(err)
	}
	if err := c.Close(); err != nil {
		log.Println(err)
	}

	os.Exit(code)
}

// newDatabase creates a database named after the test with sourceURL migrated up.
func newDatabase(ctx context.Context, t *testing.T, sourceURL ...string) *initiator.SpannerDB {
	t.Helper()

	db, err := container.CreateDatabase(ctx, t.Name())
	if err != nil {
		t.Fatalf("SpannerContainer.CreateDatabase() error = %v", err)
	}
	t.Cleanup(func() {
		if err := db.DropDatabase(context.Background()); err != nil {
			t.Errorf("SpannerDB.DropDatabase() error = %v", err)
		}
		if err := db.Close(); err != nil {
			t.Errorf("SpannerDB.Close() error = %v", err)
		}
	})

	if err := db.MigrateUp(sourceURL...); err != nil {
		t.Fatalf("SpannerDB.MigrateUp() error = %v", err)
	}

	return db
}

// runAssertions checks that every query returns a single true row.
func runAssertions(ctx context.Context, t *testing.T, client *spanner.Client, assertions []string) {
	t.Helper()

	for i, query := range assertions {
		iter := client.Single().Query(ctx, spanner.NewStatement(query))
		row, err := iter.Next()
		iter.Stop()
		if err != nil {
			t.Errorf("assertion %d: RowIterator.Next() error = %v", i+1, err)

			continue
		}

		var ok bool
		if err := row.Column(0, &ok); err != nil {
			t.Errorf("assertion %d: Row.Column() error = %v", i+1, err)
		} else if !ok {
			t.Errorf("assertion %d is false: %s", i+1, query)
		}
	}
}
