package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/sqlpulse/sqlpulse/internal/db"
)

// analyticsAPI serves canned analytic queries over the practice database.
// Each request opens and closes its own session.
type analyticsAPI struct {
	deps Deps
}

func (a *analyticsAPI) withDB(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, client *db.Client)) {
	client, err := db.Open(r.Context(), a.deps.DB, a.deps.Log, a.deps.Thresholds.SlowQuery())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database connection failed")
		return
	}
	defer client.Close()
	fn(r.Context(), client)
}

func pagination(r *http.Request) (limit, offset int) {
	page := 1
	perPage := 10
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 && v <= 100 {
		perPage = v
	}
	return perPage, (page - 1) * perPage
}

func (a *analyticsAPI) stats(w http.ResponseWriter, r *http.Request) {
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		stats := make(map[string]any)
		for _, table := range []string{"customers", "products", "orders", "order_items"} {
			rows, err := client.QueryMaps(ctx, "SELECT COUNT(*) AS count FROM "+table)
			if err == nil && len(rows) > 0 {
				stats[table] = rows[0]["count"]
			}
		}
		if rows, err := client.QueryMaps(ctx,
			"SELECT COUNT(*) AS count FROM orders WHERE order_date >= DATE_SUB(NOW(), INTERVAL 30 DAY)"); err == nil && len(rows) > 0 {
			stats["recent_orders"] = rows[0]["count"]
		}
		if rows, err := client.QueryMaps(ctx,
			"SELECT COALESCE(SUM(total_amount), 0) AS total FROM orders"); err == nil && len(rows) > 0 {
			stats["total_revenue"] = rows[0]["total"]
		}
		writeJSON(w, http.StatusOK, stats)
	})
}

func (a *analyticsAPI) customers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		rows, err := client.QueryMaps(ctx, `
			SELECT customer_id, first_name, last_name, email, city, state
			FROM customers ORDER BY customer_id LIMIT ? OFFSET ?`, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})
}

func (a *analyticsAPI) customer(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		rows, err := client.QueryMaps(ctx, `
			SELECT customer_id, first_name, last_name, email, phone,
			       address, city, state, zip_code, created_at
			FROM customers WHERE customer_id = ?`, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(rows) == 0 {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeJSON(w, http.StatusOK, rows[0])
	})
}

func (a *analyticsAPI) customerOrders(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		rows, err := client.QueryMaps(ctx, `
			SELECT o.order_id, o.order_date, o.status, o.total_amount,
			       COUNT(oi.order_item_id) AS item_count
			FROM orders o
			LEFT JOIN order_items oi ON o.order_id = oi.order_id
			WHERE o.customer_id = ?
			GROUP BY o.order_id, o.order_date, o.status, o.total_amount
			ORDER BY o.order_date DESC`, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})
}

func (a *analyticsAPI) products(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	category := r.URL.Query().Get("category")
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		query := `
			SELECT p.product_id, p.product_name, p.price, p.stock_quantity, c.category_name
			FROM products p JOIN categories c ON p.category_id = c.category_id`
		args := []any{}
		if category != "" {
			query += " WHERE c.category_name = ?"
			args = append(args, category)
		}
		query += " ORDER BY p.product_id LIMIT ? OFFSET ?"
		args = append(args, limit, offset)

		rows, err := client.QueryMaps(ctx, query, args...)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})
}

func (a *analyticsAPI) product(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		rows, err := client.QueryMaps(ctx, `
			SELECT p.product_id, p.product_name, p.description, p.price,
			       p.stock_quantity, c.category_name
			FROM products p JOIN categories c ON p.category_id = c.category_id
			WHERE p.product_id = ?`, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(rows) == 0 {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeJSON(w, http.StatusOK, rows[0])
	})
}

func (a *analyticsAPI) orders(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		rows, err := client.QueryMaps(ctx, `
			SELECT o.order_id, o.order_date, o.status, o.total_amount,
			       c.first_name, c.last_name, c.email
			FROM orders o JOIN customers c ON o.customer_id = c.customer_id
			ORDER BY o.order_date DESC LIMIT ? OFFSET ?`, limit, offset)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})
}

func (a *analyticsAPI) order(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		orders, err := client.QueryMaps(ctx, `
			SELECT o.order_id, o.order_date, o.status, o.total_amount,
			       c.customer_id, c.first_name, c.last_name, c.email
			FROM orders o JOIN customers c ON o.customer_id = c.customer_id
			WHERE o.order_id = ?`, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(orders) == 0 {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		items, err := client.QueryMaps(ctx, `
			SELECT oi.order_item_id, oi.quantity, oi.unit_price, oi.total_price,
			       p.product_name
			FROM order_items oi JOIN products p ON oi.product_id = p.product_id
			WHERE oi.order_id = ?`, id)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		order := orders[0]
		order["items"] = items
		writeJSON(w, http.StatusOK, order)
	})
}

func (a *analyticsAPI) salesByMonth(w http.ResponseWriter, r *http.Request) {
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		rows, err := client.QueryMaps(ctx, `
			SELECT DATE_FORMAT(order_date, '%Y-%m') AS month,
			       COUNT(*) AS order_count,
			       SUM(total_amount) AS revenue,
			       AVG(total_amount) AS avg_order_value
			FROM orders
			GROUP BY DATE_FORMAT(order_date, '%Y-%m')
			ORDER BY month DESC LIMIT 12`)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})
}

func (a *analyticsAPI) topProducts(w http.ResponseWriter, r *http.Request) {
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		rows, err := client.QueryMaps(ctx, `
			SELECT p.product_id, p.product_name,
			       SUM(oi.quantity) AS units_sold,
			       SUM(oi.total_price) AS revenue
			FROM order_items oi JOIN products p ON oi.product_id = p.product_id
			GROUP BY p.product_id, p.product_name
			ORDER BY revenue DESC LIMIT 10`)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})
}

func (a *analyticsAPI) searchCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}
	a.withDB(w, r, func(ctx context.Context, client *db.Client) {
		like := "%" + q + "%"
		rows, err := client.QueryMaps(ctx, `
			SELECT customer_id, first_name, last_name, email, city, state
			FROM customers
			WHERE first_name LIKE ? OR last_name LIKE ? OR email LIKE ?
			ORDER BY last_name, first_name LIMIT 50`, like, like, like)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rows)
	})
}
