package db

import (
	"path/filepath"
	"testing"

	"github.com/quayside/quayside/internal/config"
	"github.com/quayside/quayside/internal/models"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want string
	}{
		{
			"no password",
			config.DatabaseConfig{User: "root", Host: "127.0.0.1", Port: 3306, Name: "quayside"},
			"root@tcp(127.0.0.1:3306)/quayside?parseTime=true",
		},
		{
			"with password",
			config.DatabaseConfig{User: "app", Password: "pw", Host: "db.internal", Port: 3307, Name: "qs"},
			"app:pw@tcp(db.internal:3307)/qs?parseTime=true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DSN(tt.cfg); got != tt.want {
				t.Errorf("DSN = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConnectAndMigrate_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	gormDB, err := Connect(config.DatabaseConfig{Driver: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	if err := AutoMigrate(gormDB); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// Every model table exists and accepts a row.
	u := models.User{ID: "usr-aaaa0001", Email: "a@example.com"}
	if err := gormDB.Create(&u).Error; err != nil {
		t.Errorf("insert user after migrate: %v", err)
	}

	for _, m := range AllModels() {
		if !gormDB.Migrator().HasTable(m) {
			t.Errorf("missing table for %T", m)
		}
	}
}

func TestAllModels(t *testing.T) {
	if got := len(AllModels()); got != 5 {
		t.Errorf("AllModels has %d entries, want 5", got)
	}
}
