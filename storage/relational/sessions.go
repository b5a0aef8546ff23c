package relational

import (
	"context"
	"errors"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// sessionStore keeps sessions in the sessions table so they survive restarts.
type sessionStore struct {
	db *gorm.DB
}

func (st *sessionStore) Create(ctx context.Context, userID models.ID, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	row := sessionRow{
		Token:     uuid.NewString(),
		UserID:    string(userID),
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	db := st.db.WithContext(ctx)
	// expired rows are pruned on login
	if err := db.Where("expires_at <= ?", now).Delete(&sessionRow{}).Error; err != nil {
		return "", models.Internal("prune sessions", err)
	}
	if err := db.Create(&row).Error; err != nil {
		return "", models.Internal("create session", err)
	}
	return row.Token, nil
}

func (st *sessionStore) Get(ctx context.Context, token string) (models.ID, error) {
	var row sessionRow
	err := st.db.WithContext(ctx).
		Where("token = ? AND expires_at > ?", token, time.Now().UTC()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", storage.ErrSessionNotFound()
		}
		return "", models.Internal("get session", err)
	}
	return models.ID(row.UserID), nil
}

func (st *sessionStore) Destroy(ctx context.Context, token string) error {
	if err := st.db.WithContext(ctx).Where("token = ?", token).Delete(&sessionRow{}).Error; err != nil {
		return models.Internal("destroy session", err)
	}
	return nil
}
