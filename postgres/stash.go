package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"cinescope/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrEmptySessionID = errs.Errorf(errs.EINVALID, "session id is required")

// StashModel is one pending handoff query of a browser session.
type StashModel struct {
	SessionID string    `gorm:"column:session_id;primaryKey"`
	Query     string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (StashModel) TableName() string {
	return "search_stash"
}

// StashRepository stores at most one query per session. Take deletes the row
// in the same statement that reads it, so concurrent page loads of one session
// replay the query once.
type StashRepository struct {
	db *gorm.DB
}

func NewStashRepository(db *gorm.DB) *StashRepository {
	return &StashRepository{db: db}
}

func (r *StashRepository) Put(ctx context.Context, sessionID, query string) error {
	if sessionID == "" {
		return ErrEmptySessionID
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return errs.Errorf(errs.EINVALID, "query is required")
	}

	model := StashModel{
		SessionID: sessionID,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"query", "created_at"}),
	}).Create(&model).Error
}

func (r *StashRepository) Take(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		return "", false, ErrEmptySessionID
	}

	var models []StashModel
	err := r.db.WithContext(ctx).
		Raw("DELETE FROM search_stash WHERE session_id = ? RETURNING session_id, query, created_at", sessionID).
		Scan(&models).Error
	if err != nil {
		return "", false, err
	}
	if len(models) == 0 {
		return "", false, nil
	}
	return models[0].Query, true, nil
}

// Purge drops handoffs that were never picked up and returns how many.
func (r *StashRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", before).Delete(&StashModel{})
	if res.Error != nil && !errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// SessionStash binds the repository to one browser session.
type SessionStash struct {
	repo      *StashRepository
	sessionID string
}

func (r *StashRepository) ForSession(sessionID string) *SessionStash {
	return &SessionStash{repo: r, sessionID: sessionID}
}

func (s *SessionStash) Take(ctx context.Context) (string, bool, error) {
	return s.repo.Take(ctx, s.sessionID)
}

func (s *SessionStash) Put(ctx context.Context, query string) error {
	return s.repo.Put(ctx, s.sessionID, query)
}
