package db

import (
	"context"
	"database/sql"

	"github.com/Spok95/tutor-platform/internal/apperr"
	"github.com/Spok95/tutor-platform/internal/ctxutil"
	"github.com/Spok95/tutor-platform/internal/models"
)

const discountCols = `id, user_id, percent, max_usage, usage_count, created_by, created_at, updated_at`

type DiscountRepo struct {
	db *sql.DB
}

func NewDiscountRepo(database *sql.DB) *DiscountRepo {
	return &DiscountRepo{db: database}
}

func scanDiscount(row rowScanner) (models.Discount, error) {
	var d models.Discount
	err := row.Scan(&d.ID, &d.UserID, &d.Percent, &d.MaxUsage, &d.UsageCount, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	return d, err
}

func (r *DiscountRepo) Create(ctx context.Context, d models.Discount) (models.Discount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	created, err := scanDiscount(r.db.QueryRowContext(ctx, `
		INSERT INTO discounts (user_id, percent, max_usage, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING `+discountCols, d.UserID, d.Percent, d.MaxUsage, d.CreatedBy))
	if err != nil {
		return models.Discount{}, classify(err, "create discount")
	}
	return created, nil
}

func (r *DiscountRepo) Get(ctx context.Context, id int64) (models.Discount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	d, err := scanDiscount(r.db.QueryRowContext(ctx, `SELECT `+discountCols+` FROM discounts WHERE id = $1`, id))
	if err != nil {
		return models.Discount{}, classify(err, "discount")
	}
	return d, nil
}

// Update меняет percent и max_usage; usage_count <= max_usage держит CHECK в таблице.
func (r *DiscountRepo) Update(ctx context.Context, d models.Discount) (models.Discount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	updated, err := scanDiscount(r.db.QueryRowContext(ctx, `
		UPDATE discounts
		SET percent = $2, max_usage = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+discountCols, d.ID, d.Percent, d.MaxUsage))
	if err != nil {
		return models.Discount{}, classify(err, "update discount")
	}
	return updated, nil
}

func (r *DiscountRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM discounts WHERE id = $1`, id)
	if err != nil {
		return classify(err, "delete discount")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "discount %d", id)
	}
	return nil
}

func (r *DiscountRepo) ListByUser(ctx context.Context, userID int64) ([]models.Discount, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctx)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+discountCols+` FROM discounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, classify(err, "list discounts")
	}
	defer func() { _ = rows.Close() }()

	var out []models.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
