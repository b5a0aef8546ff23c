package relational

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/Abhi-coder-crypto/Inv-gen/models"
	"github.com/Abhi-coder-crypto/Inv-gen/storage"
	"github.com/Abhi-coder-crypto/Inv-gen/storage/storagetest"
	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return New(db), mock
}

func TestUnparseableIDsAreNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	ctx := context.Background()

	_, err := s.GetUser(ctx, "abc")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetClient(ctx, "0")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = s.GetInvoice(ctx, "64b7f0c2e1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	deleted, err := s.DeleteInvoice(ctx, "-1")
	require.NoError(t, err)
	assert.False(t, deleted)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClientNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `clients`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.GetClient(context.Background(), "42")
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "client", notFound.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetClientDatabaseError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `clients`").WillReturnError(errors.New("connection reset"))

	_, err := s.GetClient(context.Background(), "42")
	assert.ErrorIs(t, err, models.ErrInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicate(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO `users`").
		WillReturnError(&gomysql.MySQLError{Number: mysqlDuplicateEntry, Message: "Duplicate entry 'admin'"})

	_, err := s.CreateUser(context.Background(), &models.NewUser{Username: "admin", Password: "secret"})
	var conflict *models.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserValidation(t *testing.T) {
	s, mock := newMockStore(t)
	_, err := s.CreateUser(context.Background(), &models.NewUser{Username: "  "})
	assert.ErrorIs(t, err, models.ErrValidation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceUnknownClient(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `clients` .* FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := s.CreateInvoice(context.Background(), storagetest.Invoice("9"))
	var notFound *models.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "client", notFound.Entity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInvoiceReportsRowsAffected(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("DELETE FROM `invoices`").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `invoices`").WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := s.DeleteInvoice(context.Background(), "3")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = s.DeleteInvoice(context.Background(), "3")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionGetMissing(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery("SELECT \\* FROM `sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id"}))

	_, err := s.Sessions().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestStoreContract runs against a real MySQL when TEST_MYSQL_DSN is set.
// Every subtest starts from empty tables.
func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("TEST_MYSQL_DSN not set")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	storagetest.Run(t, func(t *testing.T) storage.Storage {
		for _, table := range []string{"invoices", "clients", "companies", "users", "sequences", "sessions"} {
			require.NoError(t, db.Exec("DELETE FROM "+table).Error)
		}
		return New(db)
	})
}
