package catalog

import (
	"context"
	"unicode/utf8"

	"github.com/moz-herbarium/medplants/internal/metrics"
	"github.com/moz-herbarium/medplants/internal/models"
	log "github.com/sirupsen/logrus"
)

// SearchClient describes the caller of a catalog search.
type SearchClient struct {
	IP        string
	UserAgent string
}

const maxSearchTermLength = 255

// logSearch appends a search log row. Failures are logged and counted only.
func (s *Service) logSearch(ctx context.Context, term string, kind models.SearchKind, client SearchClient, total int64) {
	if utf8.RuneCountInString(term) > maxSearchTermLength {
		term = string([]rune(term)[:maxSearchTermLength])
	}
	row := models.SearchLog{
		Term:        term,
		Kind:        kind,
		UserIP:      client.IP,
		UserAgent:   client.UserAgent,
		ResultCount: total,
		CreatedAt:   s.now().UTC(),
	}
	if errCreate := s.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		metrics.SearchLogWriteFailures.Inc()
		log.WithError(errCreate).WithField("kind", kind).Warn("catalog: failed to record search")
	}
}
