package userrepo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"siteadmin/internal/domain"
	apperror "siteadmin/internal/errors"
	"siteadmin/internal/pkg/logger"
)

var columns = []string{"id", "name", "email", "password_hash", "rol", "profile_image", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewUserRepository(db, time.Second, logger.Nop()), mock
}

func TestSave(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs(sqlmock.AnyArg(), "Jacky", "jacky@testcorreo.com", "hash", "autor", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	user, err := repo.Save(context.Background(), domain.User{Name: "Jacky", Email: "jacky@testcorreo.com", PasswordHash: "hash", Role: domain.RoleAuthor})
	require.NoError(t, err)
	_, err = uuid.Parse(user.ID)
	assert.NoError(t, err)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestSave_DuplicateEmail(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := repo.Save(context.Background(), domain.User{Email: "admin@admin.com"})
	require.Error(t, err)
	assert.IsType(t, &apperror.ConflictError{}, err)
}

func TestFindByEmail(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	id := uuid.NewString()

	mock.ExpectQuery(`SELECT .+ FROM users WHERE email = \$1`).
		WithArgs("admin@admin.com").
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "admin", "admin@admin.com", "hash", "administrador", nil, now, now))

	user, err := repo.FindByEmail(context.Background(), "admin@admin.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	assert.Nil(t, user.ProfileImage)
}

func TestFindByID_MalformedIDIsNotFound(t *testing.T) {
	repo, _ := newMockRepo(t)

	_, err := repo.FindByID(context.Background(), "123")
	assert.True(t, apperror.IsNotFound(err))
}

func TestList_SearchRoleAndPagination(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE \(name ILIKE \$1 OR email ILIKE \$1\) AND rol = \$2`).
		WithArgs("%testcorreo%", "autor").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
	mock.ExpectQuery(`SELECT .+ FROM users WHERE .+ ORDER BY created_at DESC, id LIMIT \$3 OFFSET \$4`).
		WithArgs("%testcorreo%", "autor", 5, 5).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(uuid.NewString(), "Tomas", "tomas@testcorreo.com", "h", "autor", "assets/images/profiles/1_t.png", now, now))

	users, total, err := repo.List(context.Background(), domain.UserFilter{Search: "testcorreo", Role: domain.RoleAuthor, Page: 2, PerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	require.Len(t, users, 1)
	require.NotNil(t, users[0].ProfileImage)
	assert.Equal(t, "assets/images/profiles/1_t.png", *users[0].ProfileImage)
}

func TestList_NoFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT .+ FROM users ORDER BY created_at DESC, id LIMIT \$1 OFFSET \$2`).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows(columns))

	users, total, err := repo.List(context.Background(), domain.UserFilter{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, users)
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.True(t, apperror.IsNotFound(repo.Delete(context.Background(), id)))
}

func TestUpdateProfileImage(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	id := uuid.NewString()
	img := "assets/images/profiles/1700000000_yo.png"

	mock.ExpectQuery(`UPDATE users SET profile_image = \$1, updated_at = NOW\(\) WHERE id = \$2 RETURNING`).
		WithArgs(img, id).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(id, "Ana", "ana@testcorreo.com", "h", "cliente", img, now, now))

	user, err := repo.UpdateProfileImage(context.Background(), id, &img)
	require.NoError(t, err)
	require.NotNil(t, user.ProfileImage)
	assert.Equal(t, img, *user.ProfileImage)
}

func TestUpdateProfileImage_UnknownUser(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.NewString()
	img := "assets/images/profiles/1_x.png"

	mock.ExpectQuery(`UPDATE users SET profile_image`).
		WithArgs(img, id).
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := repo.UpdateProfileImage(context.Background(), id, &img)
	assert.True(t, apperror.IsNotFound(err))
}
