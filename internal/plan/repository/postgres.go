package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// PGBillingService answers the limiter's single question from the
// subscription table the billing webhook processor maintains. A cancelled
// subscription still inside its paid period counts as PRO.
type PGBillingService struct {
	DB *sqlx.DB
}

func NewPGBillingService(db *sqlx.DB) *PGBillingService {
	return &PGBillingService{DB: db}
}

func (r *PGBillingService) IsPro(ctx context.Context, userID string) (bool, error) {
	query := `
        SELECT EXISTS (
            SELECT 1 FROM user_subscriptions
            WHERE user_id = $1
              AND plan = 'PRO'
              AND (status = 'active' OR (status = 'cancelled' AND expires_at > NOW()))
        )
    `
	var pro bool
	if err := r.DB.GetContext(ctx, &pro, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, errors.Wrapf(err, "resolve subscription for user %s", userID)
	}
	return pro, nil
}
