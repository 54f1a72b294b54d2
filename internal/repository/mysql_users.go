package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"classifieds/internal/domain"
	"classifieds/internal/infrastructure/metrics"

	"github.com/go-sql-driver/mysql"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const mysqlErrDuplicateEntry = 1062

type mysqlUserRepository struct {
	db      *sql.DB
	metrics *metrics.RepositoryMetrics
	tracer  trace.Tracer
}

// NewMysqlUserRepository stores users in MySQL. A user's ad ids are read from
// ads.user_id, so AddAdID and RemoveAdID only check that the user exists.
func NewMysqlUserRepository(db *sql.DB, metrics *metrics.RepositoryMetrics) UserRepository {
	return &mysqlUserRepository{
		db:      db,
		metrics: metrics,
		tracer:  otel.Tracer("classifieds/repository"),
	}
}

func isDuplicateEntry(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry
}

func (r *mysqlUserRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "Repository CreateUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", user.ID))

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "CreateUser", status, startTime)
	}()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateEntry(err) {
			status = "conflict"
			return nil, ErrDuplicateEmail
		}
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	created := user.Clone()
	created.AdIDs = []int64{}
	return created, nil
}

func (r *mysqlUserRepository) getUser(ctx context.Context, operation, where string, arg any) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "Repository "+operation)
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, operation, status, startTime)
	}()

	var user domain.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, created_at, updated_at FROM users WHERE "+where, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			status = "not_found"
			return nil, ErrNotFound
		}
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ids, err := r.adIDs(ctx, user.ID)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}
	user.AdIDs = ids

	return &user, nil
}

func (r *mysqlUserRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getUser(ctx, "GetUserByID", "id = ?", id)
}

func (r *mysqlUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, "GetUserByEmail", "email = ?", email)
}

func (r *mysqlUserRepository) adIDs(ctx context.Context, userID string) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM ads WHERE user_id = ? ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user ad ids: %w", err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ad id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *mysqlUserRepository) GetAllUsers(ctx context.Context) ([]*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "Repository GetAllUsers")
	defer span.End()

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "GetAllUsers", status, startTime)
	}()

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, username, email, password_hash, created_at, updated_at FROM users ORDER BY created_at")
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
			status = "error"
			span.RecordError(err)
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.AdIDs = []int64{}
		users = append(users, &user)
	}
	if err := rows.Err(); err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := r.attachAdIDs(ctx, users); err != nil {
		status = "error"
		span.RecordError(err)
		return nil, err
	}

	return users, nil
}

func (r *mysqlUserRepository) attachAdIDs(ctx context.Context, users []*domain.User) error {
	if len(users) == 0 {
		return nil
	}

	byID := make(map[string]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	rows, err := r.db.QueryContext(ctx, "SELECT user_id, id FROM ads ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to retrieve ad owners: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID string
			adID   int64
		)
		if err := rows.Scan(&userID, &adID); err != nil {
			return fmt.Errorf("failed to scan ad owner: %w", err)
		}
		if u, ok := byID[userID]; ok {
			u.AdIDs = append(u.AdIDs, adID)
		}
	}
	return rows.Err()
}

func (r *mysqlUserRepository) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, span := r.tracer.Start(ctx, "Repository UpdateUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", user.ID))

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "UpdateUser", status, startTime)
	}()

	result, err := r.db.ExecContext(ctx,
		"UPDATE users SET username = ?, email = ?, password_hash = ?, updated_at = ? WHERE id = ?",
		user.Username, user.Email, user.PasswordHash, user.UpdatedAt, user.ID)
	if err != nil {
		if isDuplicateEntry(err) {
			status = "conflict"
			return nil, ErrDuplicateEmail
		}
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return nil, fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	if rowsAffected == 0 {
		status = "not_found"
		return nil, ErrNotFound
	}

	return user.Clone(), nil
}

func (r *mysqlUserRepository) DeleteUser(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "Repository DeleteUser")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", id))

	startTime := time.Now()
	status := "success"

	defer func() {
		r.metrics.Observe(backendMySQL, "DeleteUser", status, startTime)
	}()

	result, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		status = "error"
		span.RecordError(err)
		return fmt.Errorf("failed to retrieve rows affected: %w", err)
	}

	if rowsAffected == 0 {
		status = "not_found"
		return ErrNotFound
	}

	return nil
}

func (r *mysqlUserRepository) userExists(ctx context.Context, userID string) error {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (r *mysqlUserRepository) AddAdID(ctx context.Context, userID string, adID int64) error {
	return r.userExists(ctx, userID)
}

func (r *mysqlUserRepository) RemoveAdID(ctx context.Context, userID string, adID int64) error {
	return r.userExists(ctx, userID)
}
