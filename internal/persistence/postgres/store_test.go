package postgres

import (
	"database/sql"
	"errors"
	"strings"
	"testing"
)

func TestNewStorePropagatesOpenError(t *testing.T) {
	boom := errors.New("boom")
	restore := OverrideSQLOpen(func(driverName, dataSourceName string) (*sql.DB, error) {
		if driverName != defaultDriver {
			t.Fatalf("driver = %s", driverName)
		}
		if dataSourceName != "postgres://example/lexemes" {
			t.Fatalf("dsn = %s", dataSourceName)
		}
		return nil, boom
	})
	defer restore()

	if _, err := NewStore("postgres://example/lexemes"); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewStoreUsesDefaultDSN(t *testing.T) {
	var seen string
	restore := OverrideSQLOpen(func(_, dataSourceName string) (*sql.DB, error) {
		seen = dataSourceName
		return nil, errors.New("stop here")
	})
	defer restore()

	if _, err := NewStore(""); err == nil {
		t.Fatal("expected injected error")
	}
	if !strings.Contains(seen, "lexicore") {
		t.Fatalf("dsn = %s", seen)
	}
}
