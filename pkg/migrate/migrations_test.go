package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pizzapalace/backend/pkg/migrate"
)

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("migrations directory failed validation: %v", err)
	}
}

func TestInitMigrationContainsCoreConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_init.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no init migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"email TEXT NOT NULL UNIQUE",
		"order_number TEXT NOT NULL UNIQUE",
		"order_id UUID NOT NULL UNIQUE REFERENCES orders (id)",
		"CHECK (quantity >= 1)",
		"idx_payments_session_ref",
		"DROP TABLE IF EXISTS payments;",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
