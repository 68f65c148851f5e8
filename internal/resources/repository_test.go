package resources

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestResizeLocksResourceRow(t *testing.T) {
	db, err := gorm.Open(postgres.Open("host=localhost"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}

	var resource Resource
	stmt := lockForResize(db, uuid.New(), &resource).Statement

	sql := stmt.SQL.String()
	if !strings.Contains(sql, "FOR UPDATE") {
		t.Fatalf("resize reads the resource row without a lock: %q", sql)
	}
}
