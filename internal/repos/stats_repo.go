package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"honeydesk/internal/domain"
)

type StatsRepo struct {
	db     *sqlx.DB
	orders *OrderRepo
}

func NewStatsRepo(db *sqlx.DB) *StatsRepo { return &StatsRepo{db: db, orders: NewOrderRepo(db)} }

// Overview gathers the admin dashboard counters.
func (r *StatsRepo) Overview(ctx context.Context) (domain.Stats, error) {
	var s domain.Stats
	err := r.db.GetContext(ctx, &s, `
		SELECT
		  (SELECT COUNT(*) FROM customers WHERE status <> 'Deleted')        AS customers,
		  (SELECT COUNT(*) FROM tickets)                                    AS tickets,
		  (SELECT COUNT(*) FROM tickets WHERE status = 'Pending')           AS pending_tickets,
		  (SELECT COUNT(*) FROM tickets WHERE status = 'Closed')            AS closed_tickets,
		  (SELECT COUNT(*) FROM orders WHERE status = 'Approved')           AS approved_orders,
		  (SELECT COUNT(*) FROM orders WHERE status = 'Pending')            AS pending_orders`)
	if err != nil {
		return s, storeErr(err, "load stats")
	}
	s.Revenue, s.UnpricedOrders, err = r.orders.Revenue(ctx)
	return s, err
}
