package test

import (
	"os"
	"path/filepath"
	"testing"

	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/db"
)

func TestWithFilePath(t *testing.T) {
	common.SetTestLoggerNop()

	if !common.IsIntegrationTestEnabled() {
		t.Skip("Skipping integration test: RUN_INTEGRATION_TESTS environment variable not set")
	}

	testPath := filepath.Join(t.TempDir(), "test.db")

	instance := db.GetInstance(db.UseSqliteDialector(testPath))
	if instance == nil || instance.Conn == nil {
		t.Fatal("Expected non-nil DB connection")
	}

	if _, err := os.Stat(testPath); os.IsNotExist(err) {
		t.Errorf("Expected database file to be created at %s", testPath)
	}
}
