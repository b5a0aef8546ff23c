// Package relational is the MySQL storage backend, built on gorm.
package relational

import (
	"context"
	"errors"
	"time"

	"github.com/Abhi-coder-crypto/Inv-gen/billing"
	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/bsm/redislock"
	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const mysqlDuplicateEntry = 1062

type Store struct {
	db *gorm.DB
	// locker is optional; the client row lock is what serializes numbering.
	locker   *redislock.Client
	sessions *sessionStore
}

var _ storage.Storage = (*Store)(nil)

type Option func(*Store)

// WithLocker takes a best-effort Redis lock per client around invoice creation,
// keeping concurrent requests from queueing on the row lock.
func WithLocker(locker *redislock.Client) Option {
	return func(s *Store) { s.locker = locker }
}

func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, sessions: &sessionStore{db: db}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&userRow{}, &companyRow{}, &clientRow{}, &invoiceRow{},
		&sequenceRow{}, &sessionRow{},
	)
}

func (s *Store) Sessions() storage.SessionStore { return s.sessions }

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isDuplicate(err error) bool {
	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

func notFoundOr(err error, entity string, id models.ID, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(entity, id)
	}
	return models.Internal(op, err)
}

// Users ----------------------------------------------------------------------

func (s *Store) GetUser(ctx context.Context, id models.ID) (*models.User, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("user", id)
	}
	var row userRow
	if err := s.db.WithContext(ctx).Take(&row, key).Error; err != nil {
		return nil, notFoundOr(err, "user", id, "get user")
	}
	return row.toModel(), nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("username = ?", username).Take(&row).Error; err != nil {
		return nil, notFoundOr(err, "user", models.ID(username), "get user by username")
	}
	return row.toModel(), nil
}

func (s *Store) CreateUser(ctx context.Context, input *models.NewUser) (*models.User, error) {
	user, err := input.Build(time.Now().UTC())
	if err != nil {
		return nil, err
	}
	row := userRow{
		Username:  user.Username,
		Password:  user.Password,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return nil, &models.ConflictError{Field: "username", Value: user.Username}
		}
		return nil, models.Internal("create user", err)
	}
	return row.toModel(), nil
}

// Company --------------------------------------------------------------------

// the singleton always lives at id 1, so concurrent first writes collide on the key
const companyID = 1

func (s *Store) GetCompany(ctx context.Context) (*models.Company, error) {
	var row companyRow
	if err := s.db.WithContext(ctx).Order("id").Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &models.NotFoundError{Entity: "company"}
		}
		return nil, models.Internal("get company", err)
	}
	return row.toModel(), nil
}

func (s *Store) UpdateCompany(ctx context.Context, input *models.NewCompany) (*models.Company, error) {
	company, err := s.upsertCompany(ctx, input)
	if err != nil && isDuplicate(err) {
		// lost the race to create the row; merge into the winner's
		company, err = s.upsertCompany(ctx, input)
	}
	return company, err
}

func (s *Store) upsertCompany(ctx context.Context, input *models.NewCompany) (*models.Company, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, models.Internal("update company", tx.Error)
	}

	var current *models.Company
	var row companyRow
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Order("id").Take(&row).Error
	switch {
	case err == nil:
		current = row.toModel()
	case !errors.Is(err, gorm.ErrRecordNotFound):
		tx.Rollback()
		return nil, models.Internal("update company", err)
	}

	merged, err := input.Merge(current)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if current == nil {
		err = tx.Create(companyRowFrom(companyID, merged)).Error
	} else {
		err = tx.Save(companyRowFrom(row.ID, merged)).Error
	}
	if err != nil {
		tx.Rollback()
		return nil, models.Internal("update company", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, models.Internal("update company", err)
	}
	if current == nil {
		merged.ID = formatID(companyID)
	}
	return merged, nil
}

// Clients --------------------------------------------------------------------

func (s *Store) GetClients(ctx context.Context) ([]*models.Client, error) {
	var rows []clientRow
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, models.Internal("get clients", err)
	}
	result := make([]*models.Client, len(rows))
	for i := range rows {
		result[i] = rows[i].toModel()
	}
	return result, nil
}

func (s *Store) GetClient(ctx context.Context, id models.ID) (*models.Client, error) {
	key, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("client", id)
	}
	var row clientRow
	if err := s.db.WithContext(ctx).Take(&row, key).Error; err != nil {
		return nil, notFoundOr(err, "client", id, "get client")
	}
	return row.toModel(), nil
}

func (s *Store) CreateClient(ctx context.Context, input *models.NewClient) (*models.Client, error) {
	client, err := input.Build(time.Now().UTC())
	if err != nil {
		return nil, err
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, models.Internal("create client", tx.Error)
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&sequenceRow{Name: clientSequence}).Error; err != nil {
		tx.Rollback()
		return nil, models.Internal("create client", err)
	}
	var seq sequenceRow
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("name = ?", clientSequence).Take(&seq).Error; err != nil {
		tx.Rollback()
		return nil, models.Internal("create client", err)
	}
	var count int64
	if err := tx.Model(&clientRow{}).Count(&count).Error; err != nil {
		tx.Rollback()
		return nil, models.Internal("create client", err)
	}

	customID := billing.NextCustomID(seq.LastValue, int(count))
	row := clientRow{
		Name:        client.Name,
		CompanyName: client.CompanyName,
		ServiceName: client.ServiceName,
		Address:     client.Address,
		Phone:       client.Phone,
		Email:       client.Email,
		Gst:         client.Gst,
		LogoUrl:     client.LogoUrl,
		CustomId:    &customID,
		CreatedAt:   client.CreatedAt,
	}
	if err := tx.Create(&row).Error; err != nil {
		tx.Rollback()
		if isDuplicate(err) {
			return nil, &models.ConflictError{Field: "customId", Value: customID}
		}
		return nil, models.Internal("create client", err)
	}
	if err := tx.Model(&sequenceRow{}).Where("name = ?", clientSequence).
		Update("last_value", billing.CustomIDSeqOf(customID)).Error; err != nil {
		tx.Rollback()
		return nil, models.Internal("create client", err)
	}
	if err := tx.Commit().Error; err != nil {
		return nil, models.Internal("create client", err)
	}
	return row.toModel(), nil
}

func (s *Store) UpdateClient(ctx context.Context, id models.ID, update *models.ClientUpdate) (*models.Client, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	key, ok := parseID(id)
	if !ok {
		return nil, models.NewNotFoundError("client", id)
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, models.Internal("update client", tx.Error)
	}
	var row clientRow
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&row, key).Error; err != nil {
		tx.Rollback()
		return nil, notFoundOr(err, "client", id, "update client")
	}
	if !update.IsEmpty() {
		if err := tx.Model(&clientRow{}).Where("id = ?", key).Updates(update.Columns()).Error; err != nil {
			tx.Rollback()
			return nil, models.Internal("update client", err)
		}
	}
	if err := tx.Commit().Error; err != nil {
		return nil, models.Internal("update client", err)
	}

	client := row.toModel()
	client.Apply(update)
	return client, nil
}
