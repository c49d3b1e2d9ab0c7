package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"gameofbones/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{Title: "Rex skull find", Content: "Nearly complete.", UserID: 1, Published: true}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_WithDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// Single query carries the counts and liked flag as SELECT aliases.
	mock.ExpectQuery(`SELECT posts\.\*.+comments_count.+likes_count.+liked.+FROM "posts"`).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "title", "user_id", "published", "comments_count", "likes_count", "liked"}).
			AddRow(1, "Post 1", 10, true, 5, 12, true))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users"`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(10, "mary_anning"))

	post, err := repo.GetByID(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "Post 1", post.Title)
	assert.Equal(t, 5, post.CommentsCount)
	assert.Equal(t, 12, post.LikesCount)
	assert.True(t, post.Liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	mock.ExpectQuery(`SELECT posts\.\*.+FROM "posts"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 99, 2)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestPostRepository_List_HotSortSQL(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)

	// The hot ORDER BY must repeat the count subqueries; postgres rejects
	// SELECT aliases inside an ORDER BY expression.
	mock.ExpectQuery(`ORDER BY \(\(SELECT COUNT\(\*\) FROM likes.+\(SELECT COUNT\(\*\) FROM comments.+EXTRACT\(EPOCH FROM \(NOW\(\) - posts\.created_at\)\)`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "user_id"}))

	_, err := repo.List(context.Background(), 10, 0, 0, "hot")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHotScore(t *testing.T) {
	t.Parallel()

	for _, dialect := range []string{"postgres", "sqlite"} {
		expr := hotScore(dialect)
		assert.NotContains(t, expr, "likes_count", dialect)
		assert.NotContains(t, expr, "comments_count", dialect)
	}
	assert.Contains(t, hotScore("postgres"), "EXTRACT(EPOCH")
	assert.Contains(t, hotScore("sqlite"), "strftime")
}

func TestPostRepository_CreateLike(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.CreateLike(ctx, 2, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CreateLike_DuplicateTranslated(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "likes"`)).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			ConstraintName: "idx_user_post",
		})
	mock.ExpectRollback()

	err := repo.CreateLike(ctx, 2, 1)
	assert.ErrorIs(t, err, ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_DeleteLike(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	// Hard delete: likes have no deleted_at column.
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
		WithArgs(2, 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.DeleteLike(ctx, 2, 1)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_IsLiked(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
		WithArgs(2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	liked, err := repo.IsLiked(ctx, 2, 1)
	require.NoError(t, err)
	assert.True(t, liked)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE user_id = $1 AND post_id = $2`)).
		WithArgs(3, 1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	liked, err = repo.IsLiked(ctx, 3, 1)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_CountLikes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "likes" WHERE post_id = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountLikes(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetLikedPostIDs_Empty(t *testing.T) {
	db, _ := setupMockDB(t)
	repo := NewPostRepository(db)

	// No IDs, no query.
	ids, err := repo.GetLikedPostIDs(context.Background(), 2, nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
}

func TestTranslateError(t *testing.T) {
	t.Parallel()

	assert.NoError(t, translateError(nil))

	assert.ErrorIs(t, translateError(gorm.ErrDuplicatedKey), ErrDuplicateKey)
	assert.ErrorIs(t, translateError(&pgconn.PgError{Code: "23505"}), ErrDuplicateKey)
	assert.ErrorIs(t,
		translateError(errors.New("UNIQUE constraint failed: likes.user_id, likes.post_id")),
		ErrDuplicateKey)

	plain := errors.New("connection refused")
	assert.Equal(t, plain, translateError(plain))
	assert.NotErrorIs(t, translateError(&pgconn.PgError{Code: "23503"}), ErrDuplicateKey)
}
