package testutil

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
	namespace TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     BLOB,
	PRIMARY KEY (namespace, key)
)`

// CreateKVFixture writes raw records into a SQLite kv database at dbPath.
// Values are stored verbatim so tests can plant malformed records.
func CreateKVFixture(t *testing.T, dbPath string, records map[string]map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		t.Fatalf("Failed to create fixture directory: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := db.Exec(createKVTable); err != nil {
		t.Fatalf("Failed to create kv table: %v", err)
	}
	for namespace, entries := range records {
		for key, value := range entries {
			if _, err := db.Exec(`INSERT OR REPLACE INTO kv (namespace, key, value) VALUES (?, ?, ?)`, namespace, key, []byte(value)); err != nil {
				t.Fatalf("Failed to insert %s/%s: %v", namespace, key, err)
			}
		}
	}
}
