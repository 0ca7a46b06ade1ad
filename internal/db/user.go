package db

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"

	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const userCols = `id, name, role, max_hours_per_week, coordinator_id, telegram_id, is_active, created_at`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(database *sql.DB) *UserRepo {
	return &UserRepo{db: database}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Role, &u.MaxHoursPerWeek, &u.CoordinatorID, &u.TelegramID, &u.IsActive, &u.CreatedAt)
	return u, err
}

func (r *UserRepo) Create(ctx context.Context, u models.User) (models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (name, role, max_hours_per_week, coordinator_id, telegram_id, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+userCols,
		u.Name, string(u.Role), u.MaxHoursPerWeek, u.CoordinatorID, u.TelegramID, u.IsActive)
	created, err := scanUser(row)
	if err != nil {
		return models.User{}, classify(err, "create user")
	}
	return created, nil
}

func (r *UserRepo) Get(ctx context.Context, id int64) (models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if err != nil {
		return models.User{}, classify(err, "user")
	}
	return u, nil
}

// List: все пользователи или только роли role, по возрастанию id.
func (r *UserRepo) List(ctx context.Context, role models.Role) ([]models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := psql.Select(userCols).From("users").OrderBy("id")
	if role != "" {
		q = q.Where(sq.Eq{"role": string(role)})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list users")
	}
	defer func() { _ = rows.Close() }()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *UserRepo) SetMaxHours(ctx context.Context, id int64, hours *float64) (models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET max_hours_per_week = $2 WHERE id = $1
		RETURNING `+userCols, id, hours))
	if err != nil {
		return models.User{}, classify(err, "set max hours")
	}
	return u, nil
}

func (r *UserRepo) SetCoordinator(ctx context.Context, id int64, coordinatorID *int64) (models.User, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	u, err := scanUser(r.db.QueryRowContext(ctx, `
		UPDATE users SET coordinator_id = $2 WHERE id = $1
		RETURNING `+userCols, id, coordinatorID))
	if err != nil {
		return models.User{}, classify(err, "set coordinator")
	}
	return u, nil
}
