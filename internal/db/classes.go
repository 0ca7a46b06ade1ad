package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
	"github.com/Spok95/tutor-platform/internal/schedule"
)

const classCols = `id, teacher_id, student_id, title, starts_at, duration_minutes, created_by, created_at`

// DefaultLockTimeout: сколько ждать блокировку учителя, прежде чем вернуть конфликт.
const DefaultLockTimeout = 5 * time.Second

type ClassRepo struct {
	db          *sql.DB
	lockTimeout time.Duration
}

func NewClassRepo(database *sql.DB, lockTimeout time.Duration) *ClassRepo {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &ClassRepo{db: database, lockTimeout: lockTimeout}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanClass(row rowScanner) (models.ScheduledClass, error) {
	var c models.ScheduledClass
	err := row.Scan(&c.ID, &c.TeacherID, &c.StudentID, &c.Title, &c.StartsAt, &c.DurationMinutes, &c.CreatedBy, &c.CreatedAt)
	return c, err
}

func queryClasses(ctx context.Context, q queryer, query string, args ...any) ([]models.ScheduledClass, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err, "list classes")
	}
	defer func() { _ = rows.Close() }()

	var out []models.ScheduledClass
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const classesBetweenSQL = `
	SELECT ` + classCols + `
	FROM scheduled_classes
	WHERE teacher_id = $1 AND starts_at >= $2 AND starts_at < $3
	ORDER BY starts_at, id`

// InTeacherTx: advisory-lock на id учителя живёт до конца транзакции.
// Не дождались за lockTimeout: ErrConcurrencyConflict, ничего не записано.
func (r *ClassRepo) InTeacherTx(ctx context.Context, teacherID int64, fn func(schedule.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ms := r.lockTimeout.Milliseconds()
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`SET LOCAL lock_timeout = '%dms'`, ms)); err != nil {
		return classify(err, "set lock timeout")
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, teacherID); err != nil {
		return classify(err, fmt.Sprintf("lock teacher %d", teacherID))
	}

	if err := fn(&classTx{tx: tx}); err != nil {
		return err
	}
	return classify(tx.Commit(), "commit class")
}

type classTx struct {
	tx *sql.Tx
}

func (t *classTx) ClassesBetween(ctx context.Context, teacherID int64, from, to time.Time) ([]models.ScheduledClass, error) {
	return queryClasses(ctx, t.tx, classesBetweenSQL, teacherID, from, to)
}

func (t *classTx) Insert(ctx context.Context, c models.ScheduledClass) (models.ScheduledClass, error) {
	created, err := scanClass(t.tx.QueryRowContext(ctx, `
		INSERT INTO scheduled_classes (teacher_id, student_id, title, starts_at, duration_minutes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+classCols,
		c.TeacherID, c.StudentID, c.Title, c.StartsAt, c.DurationMinutes, c.CreatedBy))
	if err != nil {
		return models.ScheduledClass{}, classify(err, "insert class")
	}
	return created, nil
}

func (r *ClassRepo) ClassesBetween(ctx context.Context, teacherID int64, from, to time.Time) ([]models.ScheduledClass, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	return queryClasses(ctx, r.db, classesBetweenSQL, teacherID, from, to)
}

func (r *ClassRepo) List(ctx context.Context, f schedule.Filter) ([]models.ScheduledClass, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	q := psql.Select(classCols).From("scheduled_classes").OrderBy("starts_at", "id")
	if f.TeacherID != nil {
		q = q.Where(sq.Eq{"teacher_id": *f.TeacherID})
	}
	if f.StudentID != nil {
		q = q.Where(sq.Eq{"student_id": *f.StudentID})
	}
	if !f.From.IsZero() {
		q = q.Where(sq.GtOrEq{"starts_at": f.From})
	}
	if !f.To.IsZero() {
		q = q.Where(sq.Lt{"starts_at": f.To})
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return queryClasses(ctx, r.db, query, args...)
}

func (r *ClassRepo) Get(ctx context.Context, id int64) (models.ScheduledClass, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	c, err := scanClass(r.db.QueryRowContext(ctx, `SELECT `+classCols+` FROM scheduled_classes WHERE id = $1`, id))
	if err != nil {
		return models.ScheduledClass{}, classify(err, fmt.Sprintf("class %d", id))
	}
	return c, nil
}

func (r *ClassRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM scheduled_classes WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "class %d", id)
	}
	return nil
}
