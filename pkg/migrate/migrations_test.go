package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dice-gateway/bape/pkg/migrate"
)

func TestMigrationsDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}

func TestPaymentIntentsMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_payment_intents.sql")

	checks := []string{
		"CREATE TYPE intent_status AS ENUM",
		"CREATE TABLE IF NOT EXISTS payment_intents",
		"CHECK (amount >= 10.00)",
		"DEFAULT 'Pagamento PIX'",
		"DROP TABLE IF EXISTS payment_intents",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestProviderChargesMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "*_create_provider_charges.sql")

	checks := []string{
		"CREATE TYPE charge_status AS ENUM",
		"CREATE TABLE IF NOT EXISTS provider_charges",
		"FOREIGN KEY (intent_id) REFERENCES payment_intents(id) ON DELETE CASCADE",
		"CHECK (poll_attempts >= 0)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_provider_charges_open_intent",
		"WHERE status = 'pending'",
		"DROP TABLE IF EXISTS provider_charges",
	}
	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func readMigration(t *testing.T, pattern string) string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join("migrations", pattern))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no migration file matches %q", pattern)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	return string(data)
}
