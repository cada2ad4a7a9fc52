package audit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/models"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := db.Open("file:" + filepath.Join(t.TempDir(), "audit-test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close(conn) })
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func TestWriterLog_PersistsSnapshots(t *testing.T) {
	conn := openTestDB(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	writer := NewWriter(conn).WithClock(func() time.Time { return at })

	writer.Log(context.Background(), Entry{
		UserID:      Uint64Ptr(3),
		Action:      ActionCreateUser,
		Description: "created user a@x.mz",
		Table:       "users",
		RecordID:    Uint64Ptr(9),
		NewData:     map[string]any{"full_name": "Ana Gonçalves", "registered_at": at},
		OriginIP:    "10.0.0.1",
		UserAgent:   "test",
	})

	var row models.AuditLog
	if errFind := conn.First(&row).Error; errFind != nil {
		t.Fatalf("find audit row: %v", errFind)
	}
	if row.Action != ActionCreateUser || row.TargetTable != "users" || row.RecordID == nil || *row.RecordID != 9 {
		t.Fatalf("unexpected audit row: %+v", row)
	}
	if len(row.OldData) != 0 {
		t.Fatalf("expected empty old data, got %s", string(row.OldData))
	}

	var payload map[string]string
	if errDecode := json.Unmarshal(row.NewData, &payload); errDecode != nil {
		t.Fatalf("decode new data: %v", errDecode)
	}
	if payload["full_name"] != "Ana Gonçalves" {
		t.Fatalf("expected utf-8 name preserved, got %q", payload["full_name"])
	}
	if payload["registered_at"] != "2026-01-02T03:04:05Z" {
		t.Fatalf("expected ISO-8601 timestamp, got %q", payload["registered_at"])
	}
}

func TestWriterLogTx_FailureKeepsTransaction(t *testing.T) {
	conn := openTestDB(t)
	writer := NewWriter(conn)

	errTx := conn.Transaction(func(tx *gorm.DB) error {
		if errCreate := tx.Create(&models.Family{Name: "Fabaceae"}).Error; errCreate != nil {
			return errCreate
		}
		// Unencodable payload forces the audit path to fail.
		writer.LogTx(tx, Entry{Action: ActionCreateFamily, NewData: make(chan int)})
		// Successful entries commit with the surrounding transaction.
		writer.LogTx(tx, Entry{Action: ActionCreateFamily, Table: "families"})
		return tx.Create(&models.Family{Name: "Rubiaceae"}).Error
	})
	if errTx != nil {
		t.Fatalf("transaction: %v", errTx)
	}

	var families int64
	if errCount := conn.Model(&models.Family{}).Count(&families).Error; errCount != nil {
		t.Fatalf("count families: %v", errCount)
	}
	if families != 2 {
		t.Fatalf("expected 2 families, got %d", families)
	}
	var audits int64
	if errCount := conn.Model(&models.AuditLog{}).Count(&audits).Error; errCount != nil {
		t.Fatalf("count audits: %v", errCount)
	}
	if audits != 1 {
		t.Fatalf("expected 1 audit row, got %d", audits)
	}
}
