package audit

import (
	"context"
	"encoding/json"
	"time"

	"propmarket-backend/internal/domain"
	"propmarket-backend/internal/middleware"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service is the append-only audit trail. Append never propagates a write
// failure into the caller's success path: the business transition has already
// committed, so the failure is reported to the operational error channel
// (Redis error log + zerolog) instead.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

// Entry is one record to append.
type Entry struct {
	ActorID    uuid.UUID
	Action     string
	TargetType string
	TargetID   uuid.UUID
	Details    string
	Context    map[string]interface{}
}

// Append writes the entry. The returned error is for callers that want to
// know (e.g. tests); production callers ignore it.
func (s *Service) Append(ctx context.Context, e Entry) error {
	var contextJSON datatypes.JSON
	if e.Context != nil {
		if b, err := json.Marshal(e.Context); err == nil {
			contextJSON = datatypes.JSON(b)
		}
	}
	row := &domain.AuditEntry{
		ActorID:    e.ActorID,
		Action:     e.Action,
		TargetType: e.TargetType,
		TargetID:   e.TargetID,
		Details:    e.Details,
		Context:    contextJSON,
	}
	if err := s.DB.WithContext(ctx).Create(row).Error; err != nil {
		s.reportFailure(ctx, e, err)
		return err
	}
	return nil
}

// reportFailure pushes the lost entry onto the ops error log so it stays
// discoverable via /health/errors even though the DB write failed.
func (s *Service) reportFailure(ctx context.Context, e Entry, cause error) {
	log.Error().
		Err(cause).
		Str("actor_id", e.ActorID.String()).
		Str("action", e.Action).
		Str("target_type", e.TargetType).
		Str("target_id", e.TargetID.String()).
		Msg("audit append failed")
	if s.Rdb == nil {
		return
	}
	b, _ := json.Marshal(map[string]interface{}{
		"time":        time.Now(),
		"kind":        "audit_append_failed",
		"actor_id":    e.ActorID,
		"action":      e.Action,
		"target_type": e.TargetType,
		"target_id":   e.TargetID,
		"details":     e.Details,
		"error":       cause.Error(),
	})
	_, _ = s.Rdb.LPush(ctx, middleware.KeyErrorLog, b).Result()
	_ = s.Rdb.LTrim(ctx, middleware.KeyErrorLog, 0, 199).Err()
}

// QueryFilter narrows an audit query. Zero values mean "any".
type QueryFilter struct {
	ActorID    uuid.UUID
	Action     string
	TargetType string
	TargetID   uuid.UUID
	Limit      int
}

// Query returns matching entries, newest first.
func (s *Service) Query(ctx context.Context, f QueryFilter) ([]domain.AuditEntry, error) {
	q := s.DB.WithContext(ctx).Model(&domain.AuditEntry{})
	if f.ActorID != uuid.Nil {
		q = q.Where("actor_id = ?", f.ActorID)
	}
	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}
	if f.TargetType != "" {
		q = q.Where("target_type = ?", f.TargetType)
	}
	if f.TargetID != uuid.Nil {
		q = q.Where("target_id = ?", f.TargetID)
	}
	var entries []domain.AuditEntry
	if err := q.Order("created_at DESC").Limit(clampLimit(f.Limit)).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// clampLimit bounds a requested page size to at most 500, defaulting to 100
// when the caller gave none.
func clampLimit(n int) int {
	if n <= 0 {
		return 100
	}
	if n > 500 {
		return 500
	}
	return n
}
