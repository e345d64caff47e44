package sendpush

import (
	"context"

	"delivery-notifier/internal/common/logger"
)

type AuditRecorder interface {
	Record(ctx context.Context, rec AuditRecord)
}

// DocumentIndexer is satisfied by database.ElasticsearchClient.
type DocumentIndexer interface {
	IndexDocument(ctx context.Context, index, id string, doc interface{}) error
}

// ElasticsearchAuditor writes one document per dispatch, keyed by dispatch id.
type ElasticsearchAuditor struct {
	indexer DocumentIndexer
	index   string
	logger  logger.Logger
}

func NewElasticsearchAuditor(indexer DocumentIndexer, index string, log logger.Logger) *ElasticsearchAuditor {
	return &ElasticsearchAuditor{indexer: indexer, index: index, logger: log}
}

// Record never fails the dispatch; indexing errors are only logged.
func (a *ElasticsearchAuditor) Record(ctx context.Context, rec AuditRecord) {
	if err := a.indexer.IndexDocument(ctx, a.index, rec.DispatchID, rec); err != nil {
		a.logger.Warn("failed to index dispatch audit record", map[string]interface{}{
			"dispatchId": rec.DispatchID,
			"index":      a.index,
			"error":      err,
		})
	}
}

// AuditIndexMapping is the index layout for AuditRecord documents.
func AuditIndexMapping() map[string]interface{} {
	keyword := map[string]interface{}{"type": "keyword"}
	integer := map[string]interface{}{"type": "integer"}
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"dispatchId":       keyword,
				"source":           keyword,
				"notificationType": keyword,
				"recipients":       integer,
				"subscriptions":    integer,
				"sent":             integer,
				"failed":           integer,
				"pruned":           integer,
				"message":          map[string]interface{}{"type": "text", "fields": map[string]interface{}{"raw": keyword}},
				"durationMs":       map[string]interface{}{"type": "long"},
				"createdAt":        map[string]interface{}{"type": "date"},
			},
		},
	}
}

type NoopAuditor struct{}

func (NoopAuditor) Record(context.Context, AuditRecord) {}
