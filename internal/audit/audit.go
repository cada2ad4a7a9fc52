// Package audit appends audit log rows for mutating actions.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moz-herbarium/medplants/internal/metrics"
	"github.com/moz-herbarium/medplants/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Action codes recorded in audit_logs.action.
const (
	ActionLogin              = "LOGIN"
	ActionLoginFailed        = "LOGIN_FAILED"
	ActionLogout             = "LOGOUT"
	ActionCreateUser         = "CREATE_USER"
	ActionUpdateUser         = "UPDATE_USER"
	ActionCreateFamily       = "CREATE_FAMILY"
	ActionCreatePlant        = "CREATE_PLANT"
	ActionUpdatePlant        = "UPDATE_PLANT"
	ActionDeletePlant        = "DELETE_PLANT"
	ActionCreateLookup       = "CREATE_LOOKUP"
	ActionAssociate          = "ASSOCIATE"
	ActionUploadImage        = "UPLOAD_IMAGE"
	ActionDeleteImage        = "DELETE_IMAGE"
	ActionBootstrapAdminUser = "BOOTSTRAP_ADMIN"
)

const savepointName = "audit_entry"

// Entry describes one audit row.
type Entry struct {
	UserID      *uint64
	Action      string
	Description string
	Table       string
	RecordID    *uint64
	OldData     any
	NewData     any
	OriginIP    string
	UserAgent   string
}

// Writer persists audit entries. Failures are logged and never returned.
type Writer struct {
	db  *gorm.DB
	now func() time.Time
}

// NewWriter constructs a writer bound to db.
func NewWriter(db *gorm.DB) *Writer {
	return &Writer{db: db, now: time.Now}
}

// WithClock overrides the timestamp source.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	if now != nil {
		w.now = now
	}
	return w
}

// Log writes entry in its own statement.
func (w *Writer) Log(ctx context.Context, entry Entry) {
	if w == nil || w.db == nil {
		return
	}
	row, errBuild := w.build(entry)
	if errBuild != nil {
		w.fail(entry, errBuild)
		return
	}
	if errCreate := w.db.WithContext(ctx).Create(row).Error; errCreate != nil {
		w.fail(entry, errCreate)
	}
}

// LogTx writes entry inside tx behind a savepoint so a failed insert leaves tx usable.
func (w *Writer) LogTx(tx *gorm.DB, entry Entry) {
	if w == nil || tx == nil {
		return
	}
	row, errBuild := w.build(entry)
	if errBuild != nil {
		w.fail(entry, errBuild)
		return
	}
	if errSave := tx.SavePoint(savepointName).Error; errSave != nil {
		w.fail(entry, fmt.Errorf("savepoint: %w", errSave))
		return
	}
	if errCreate := tx.Create(row).Error; errCreate != nil {
		if errRollback := tx.RollbackTo(savepointName).Error; errRollback != nil {
			log.WithError(errRollback).Warn("audit: rollback to savepoint failed")
		}
		w.fail(entry, errCreate)
	}
}

func (w *Writer) build(entry Entry) (*models.AuditLog, error) {
	oldData, errOld := Snapshot(entry.OldData)
	if errOld != nil {
		return nil, fmt.Errorf("encode old data: %w", errOld)
	}
	newData, errNew := Snapshot(entry.NewData)
	if errNew != nil {
		return nil, fmt.Errorf("encode new data: %w", errNew)
	}
	return &models.AuditLog{
		UserID:      entry.UserID,
		Action:      entry.Action,
		Description: entry.Description,
		TargetTable: entry.Table,
		RecordID:    entry.RecordID,
		OldData:     oldData,
		NewData:     newData,
		OriginIP:    entry.OriginIP,
		UserAgent:   entry.UserAgent,
		CreatedAt:   w.now().UTC(),
	}, nil
}

func (w *Writer) fail(entry Entry, err error) {
	metrics.AuditWriteFailures.Inc()
	log.WithError(err).WithFields(log.Fields{
		"action": entry.Action,
		"table":  entry.Table,
	}).Warn("audit: failed to persist entry")
}

// Snapshot encodes v as JSON without HTML escaping. Times encode as RFC 3339.
func Snapshot(v any) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return datatypes.JSON(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// Uint64Ptr returns a pointer to v, or nil when v is zero.
func Uint64Ptr(v uint64) *uint64 {
	if v == 0 {
		return nil
	}
	return &v
}

// Actor identifies who performed a mutation and from where.
type Actor struct {
	UserID    *uint64
	OriginIP  string
	UserAgent string
}

// Entry starts an audit entry attributed to the actor.
func (a Actor) Entry(action, description, table string, recordID uint64) Entry {
	return Entry{
		UserID:      a.UserID,
		Action:      action,
		Description: description,
		Table:       table,
		RecordID:    Uint64Ptr(recordID),
		OriginIP:    a.OriginIP,
		UserAgent:   a.UserAgent,
	}
}
