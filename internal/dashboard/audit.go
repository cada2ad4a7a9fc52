package dashboard

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/moz-herbarium/medplants/internal/apperr"
	dbutil "github.com/moz-herbarium/medplants/internal/db"
	"github.com/moz-herbarium/medplants/internal/models"
	"github.com/moz-herbarium/medplants/internal/paging"
)

// DefaultAuditPerPage is the audit listing page size when none is requested.
const DefaultAuditPerPage = 20

// AuditEntry is one audit trail row.
type AuditEntry struct {
	ID          uint64          `json:"id"`
	UserID      *uint64         `json:"user_id"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	Table       string          `json:"table_name,omitempty"`
	RecordID    *uint64         `json:"record_id"`
	OldData     json.RawMessage `json:"old_data,omitempty"`
	NewData     json.RawMessage `json:"new_data,omitempty"`
	OriginIP    string          `json:"origin_ip,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// AuditPage is one page of audit entries, newest first.
type AuditPage struct {
	Items      []AuditEntry `json:"items"`
	Pagination paging.Meta  `json:"pagination"`
}

// SearchTerm is one row of the popular searches report.
type SearchTerm struct {
	Term     string `json:"term"`
	Kind     string `json:"kind"`
	Searches int64  `json:"searches"`
}

// ListAudit returns audit entries newest first, optionally filtered by action.
func (s *Service) ListAudit(ctx context.Context, page, perPage int, action string) (AuditPage, error) {
	params := paging.Normalize(page, perPage, DefaultAuditPerPage)
	base := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if action = strings.ToUpper(strings.TrimSpace(action)); action != "" {
		base = base.Where("action = ?", action)
	}

	var total int64
	if errCount := base.Count(&total).Error; errCount != nil {
		return AuditPage{}, apperr.Internal("count audit entries failed", errCount)
	}

	var rows []models.AuditLog
	if errFind := base.
		Order("created_at DESC, id DESC").
		Offset(params.Offset()).
		Limit(params.PerPage).
		Find(&rows).Error; errFind != nil {
		return AuditPage{}, apperr.Internal("list audit entries failed", errFind)
	}

	items := make([]AuditEntry, 0, len(rows))
	for _, row := range rows {
		items = append(items, AuditEntry{
			ID:          row.ID,
			UserID:      row.UserID,
			Action:      row.Action,
			Description: row.Description,
			Table:       row.TargetTable,
			RecordID:    row.RecordID,
			OldData:     json.RawMessage(row.OldData),
			NewData:     json.RawMessage(row.NewData),
			OriginIP:    row.OriginIP,
			UserAgent:   row.UserAgent,
			CreatedAt:   row.CreatedAt,
		})
	}
	return AuditPage{Items: items, Pagination: params.Meta(total)}, nil
}

// TopSearches returns the most frequent catalog search terms.
func (s *Service) TopSearches(ctx context.Context, limit int) ([]SearchTerm, error) {
	limit = reportSize(limit, DefaultTopSearches)
	var rows []SearchTerm
	conn := s.db.WithContext(ctx)
	folded := dbutil.LowerExpr(conn, "term")
	errFind := conn.
		Model(&models.SearchLog{}).
		Select(folded + " AS term, kind, COUNT(*) AS searches").
		Group(folded + ", kind").
		Order("searches DESC, term ASC").
		Limit(limit).
		Scan(&rows).Error
	if errFind != nil {
		return nil, apperr.Internal("list top searches failed", errFind)
	}
	if rows == nil {
		rows = []SearchTerm{}
	}
	return rows, nil
}
