package cartstore

import (
	"context"
	"errors"
	"time"

	"github.com/greensolartech/storefront/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLKV stores cart records in the cart_records table.
type SQLKV struct {
	conn *gorm.DB
	now  func() time.Time
}

func NewSQLKV(conn *gorm.DB) *SQLKV {
	return &SQLKV{conn: conn, now: time.Now}
}

func (s *SQLKV) Get(ctx context.Context, key string) (string, bool, error) {
	var rec models.CartRecord
	err := s.conn.WithContext(ctx).
		Where(map[string]any{"key": key}).
		Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.Payload, true, nil
}

func (s *SQLKV) Set(ctx context.Context, key, value string) error {
	rec := models.CartRecord{Key: key, Payload: value, UpdatedAt: s.now().UTC()}
	return s.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *SQLKV) Del(ctx context.Context, key string) error {
	return s.conn.WithContext(ctx).
		Where(map[string]any{"key": key}).
		Delete(&models.CartRecord{}).Error
}

// PurgeBefore deletes records not written since cutoff and returns how many
// were removed.
func (s *SQLKV) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.conn.WithContext(ctx).
		Where("updated_at < ?", cutoff.UTC()).
		Delete(&models.CartRecord{})
	return res.RowsAffected, res.Error
}
