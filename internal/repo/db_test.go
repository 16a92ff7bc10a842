package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/tbourn/go-relay-bot/internal/domain"
)

// newRepoDB opens a throwaway SQLite file and migrates the given models.
func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "repo_test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "bot.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var (
		journalMode string
		busyMS      int
		fkOn        int
	)
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if err := db.Raw("PRAGMA busy_timeout;").Row().Scan(&busyMS); err != nil {
		t.Fatalf("PRAGMA busy_timeout: %v", err)
	}
	if busyMS != 5000 {
		t.Fatalf("expected busy_timeout=5000, got %d", busyMS)
	}
	if err := db.Raw("PRAGMA foreign_keys;").Row().Scan(&fkOn); err != nil {
		t.Fatalf("PRAGMA foreign_keys: %v", err)
	}
	if fkOn != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fkOn)
	}

	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.Sequence{}, &domain.Post{}, &domain.ProcessedUpdate{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if err := Ping(context.Background(), db); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestOpen_DispatchesOnDriver(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := Open("SQLite", path)
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	if _, err := Open("mysql", "x"); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
	if _, err := Open(DriverPostgres, "  "); err == nil {
		t.Fatalf("expected error for empty postgres dsn")
	}
}

// TestModels_ColumnTypesPortable resolves every column type the way each
// dialect's migrator would, without a live server.
func TestModels_ColumnTypesPortable(t *testing.T) {
	dialects := map[string]gorm.Dialector{
		"sqlite":   sqlite.Open(":memory:"),
		"postgres": postgres.New(postgres.Config{}),
	}
	timeType := map[string]string{"sqlite": "datetime", "postgres": "timestamptz"}

	for name, d := range dialects {
		t.Run(name, func(t *testing.T) {
			for _, m := range Models() {
				s, err := schema.Parse(m, &sync.Map{}, schema.NamingStrategy{})
				if err != nil {
					t.Fatalf("parse %T: %v", m, err)
				}
				for _, f := range s.Fields {
					if f.DBName == "" {
						continue
					}
					got := d.DataTypeOf(f)
					if strings.Contains(strings.ToUpper(got), "DATETIME") && name == "postgres" {
						t.Fatalf("%s.%s: %q is not a postgres type", s.Table, f.DBName, got)
					}
					if f.DataType == schema.Time && !strings.HasPrefix(got, timeType[name]) {
						t.Fatalf("%s.%s: got %q, want %s", s.Table, f.DBName, got, timeType[name])
					}
				}
			}
		})
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
