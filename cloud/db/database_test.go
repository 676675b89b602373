package db

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_CreatesSQLiteDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "deeper", "sizer.db")

	database, err := New(Config{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if _, err := os.Stat(filepath.Dir(dsn)); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}

	rec := &EstimateRecord{ID: "run-1", Image: "nginx:latest", VCPU: 1}
	if err := database.SaveEstimate(rec); err != nil {
		t.Fatalf("SaveEstimate failed: %v", err)
	}
	records, err := database.RecentEstimates(10)
	if err != nil {
		t.Fatalf("RecentEstimates failed: %v", err)
	}
	if len(records) != 1 || records[0].Image != "nginx:latest" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestNew_UnwritableDirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	parent := t.TempDir()
	if err := os.Chmod(parent, 0500); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(parent, 0755) })

	_, err := New(Config{Driver: "sqlite", DSN: filepath.Join(parent, "sub", "sizer.db")})
	if err == nil {
		t.Fatal("expected an error for an unwritable database directory")
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	if _, err := New(Config{Driver: "oracle", DSN: "whatever"}); err == nil {
		t.Fatal("expected an error for an unsupported driver")
	}
}
