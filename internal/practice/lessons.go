package practice

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/sqlpulse/sqlpulse/internal/db"
)

// Lessons returns the lesson catalog in teaching order.
func Lessons() []Lesson {
	return []Lesson{
		crudLesson(),
		joinsLesson(),
		subqueriesLesson(),
		windowLesson(),
		analyticsLesson(),
		proceduresLesson(),
		transactionsLesson(),
	}
}

func crudLesson() Lesson {
	return Lesson{
		Name:    "crud",
		Summary: "Basic INSERT, SELECT, UPDATE and DELETE against the practice tables.",
		Steps: []Step{
			{
				Title: "Insert a customer",
				Query: `INSERT INTO customers (first_name, last_name, email, phone, city, state)
					VALUES ('Ada', 'Lovelace', 'ada.lovelace@practice.local', '(555) 010-1815', 'London', 'NY')
					ON DUPLICATE KEY UPDATE phone = VALUES(phone)`,
				Exec: true,
			},
			{
				Title: "Select all categories",
				Query: "SELECT category_id, category_name, description FROM categories ORDER BY category_id",
			},
			{
				Title: "Products under fifty with stock, cheapest first",
				Query: `SELECT p.product_name, p.price, p.stock_quantity
					FROM products p
					WHERE p.price < 50 AND p.stock_quantity > 0
					ORDER BY p.price
					LIMIT 10`,
			},
			{
				Title: "Order counts per status",
				Query: `SELECT status, COUNT(*) AS orders, SUM(total_amount) AS revenue
					FROM orders GROUP BY status ORDER BY orders DESC`,
			},
			{
				Title: "Raise prices five percent for one category",
				Query: `UPDATE products
					SET price = ROUND(price * 1.05, 2)
					WHERE category_id = (SELECT category_id FROM categories WHERE category_name = 'Books')`,
				Exec: true,
			},
			{
				Title: "Delete the lesson customer",
				Query: "DELETE FROM customers WHERE email = 'ada.lovelace@practice.local'",
				Exec:  true,
			},
		},
	}
}

func joinsLesson() Lesson {
	return Lesson{
		Name:    "joins",
		Summary: "Multi-table JOINs with aggregation over the order graph.",
		Steps: []Step{
			{
				Title: "Customer order summary across all five tables",
				Query: `SELECT
						CONCAT(c.first_name, ' ', c.last_name) AS customer_name,
						c.email,
						COUNT(DISTINCT o.order_id) AS total_orders,
						COUNT(oi.order_item_id) AS total_items,
						SUM(oi.total_price) AS total_spent,
						AVG(o.total_amount) AS avg_order_value,
						MAX(o.order_date) AS last_order_date,
						GROUP_CONCAT(DISTINCT cat.category_name ORDER BY cat.category_name) AS categories_purchased
					FROM customers c
					LEFT JOIN orders o ON c.customer_id = o.customer_id
					LEFT JOIN order_items oi ON o.order_id = oi.order_id
					LEFT JOIN products p ON oi.product_id = p.product_id
					LEFT JOIN categories cat ON p.category_id = cat.category_id
					GROUP BY c.customer_id, c.first_name, c.last_name, c.email
					HAVING total_orders > 0
					ORDER BY total_spent DESC
					LIMIT 10`,
			},
			{
				Title: "Customers with no orders (anti-join)",
				Query: `SELECT c.customer_id, c.first_name, c.last_name, c.email
					FROM customers c
					LEFT JOIN orders o ON c.customer_id = o.customer_id
					WHERE o.order_id IS NULL
					LIMIT 10`,
			},
		},
	}
}

func subqueriesLesson() Lesson {
	return Lesson{
		Name:    "subqueries",
		Summary: "Correlated subqueries and EXISTS filters.",
		Steps: []Step{
			{
				Title: "Products priced above their category average",
				Query: `SELECT
						p1.product_name,
						c.category_name,
						p1.price,
						(SELECT AVG(p2.price) FROM products p2
						 WHERE p2.category_id = p1.category_id) AS category_avg_price,
						ROUND(p1.price - (SELECT AVG(p2.price) FROM products p2
						 WHERE p2.category_id = p1.category_id), 2) AS price_difference
					FROM products p1
					JOIN categories c ON p1.category_id = c.category_id
					WHERE p1.price > (SELECT AVG(p2.price) FROM products p2
						WHERE p2.category_id = p1.category_id)
					ORDER BY price_difference DESC
					LIMIT 10`,
			},
			{
				Title: "Customers who ordered from more than one category",
				Query: `SELECT customer_name, email, categories_count
					FROM (
						SELECT
							CONCAT(c.first_name, ' ', c.last_name) AS customer_name,
							c.email,
							(SELECT COUNT(DISTINCT p.category_id)
							 FROM orders o
							 JOIN order_items oi ON o.order_id = oi.order_id
							 JOIN products p ON oi.product_id = p.product_id
							 WHERE o.customer_id = c.customer_id) AS categories_count
						FROM customers c
						WHERE EXISTS (
							SELECT 1 FROM orders o WHERE o.customer_id = c.customer_id
						)
					) buyers
					WHERE categories_count > 1
					ORDER BY categories_count DESC
					LIMIT 10`,
			},
			{
				Title: "Orders above the average order value",
				Query: `SELECT o.order_id, o.order_date, o.total_amount,
						CONCAT(c.first_name, ' ', c.last_name) AS customer_name
					FROM orders o
					JOIN customers c ON o.customer_id = c.customer_id
					WHERE o.total_amount > (SELECT AVG(total_amount) FROM orders)
					ORDER BY o.total_amount DESC
					LIMIT 10`,
			},
		},
	}
}

func windowLesson() Lesson {
	return Lesson{
		Name:    "window",
		Summary: "Window functions: ranking, running totals and moving averages.",
		Steps: []Step{
			{
				Title: "Price ranking within each category",
				Query: `SELECT
						c.category_name,
						p.product_name,
						p.price,
						ROW_NUMBER() OVER (PARTITION BY c.category_id ORDER BY p.price DESC) AS price_rank,
						RANK() OVER (PARTITION BY c.category_id ORDER BY p.price DESC) AS price_rank_with_ties,
						ROUND(AVG(p.price) OVER (PARTITION BY c.category_id), 2) AS category_avg_price
					FROM products p
					JOIN categories c ON p.category_id = c.category_id
					ORDER BY c.category_name, price_rank
					LIMIT 20`,
			},
			{
				Title: "Running order total with a three-order moving average",
				Query: `SELECT
						order_date,
						order_id,
						total_amount,
						SUM(total_amount) OVER (ORDER BY order_date, order_id) AS running_total,
						AVG(total_amount) OVER (ORDER BY order_date
							ROWS BETWEEN 2 PRECEDING AND CURRENT ROW) AS moving_avg_3
					FROM orders
					ORDER BY order_date, order_id
					LIMIT 15`,
			},
		},
	}
}

func analyticsLesson() Lesson {
	return Lesson{
		Name:    "analytics",
		Summary: "Reporting queries: monthly cohorts, product performance and a pivot.",
		Steps: []Step{
			{
				Title: "Monthly order cohort",
				Query: `SELECT
						DATE_FORMAT(order_date, '%Y-%m') AS order_month,
						COUNT(DISTINCT customer_id) AS customers,
						COUNT(order_id) AS total_orders,
						SUM(total_amount) AS monthly_revenue,
						AVG(total_amount) AS avg_order_value
					FROM orders
					GROUP BY DATE_FORMAT(order_date, '%Y-%m')
					ORDER BY order_month DESC
					LIMIT 12`,
			},
			{
				Title: "Product performance tiers",
				Query: `SELECT
						p.product_name,
						c.category_name,
						COALESCE(SUM(oi.quantity), 0) AS total_sold,
						COALESCE(SUM(oi.total_price), 0) AS total_revenue,
						CASE
							WHEN SUM(oi.quantity) IS NULL THEN 'No Sales'
							WHEN SUM(oi.quantity) >= 10 THEN 'Best Seller'
							WHEN SUM(oi.quantity) >= 5 THEN 'Good Seller'
							ELSE 'Low Seller'
						END AS performance_tier
					FROM products p
					JOIN categories c ON p.category_id = c.category_id
					LEFT JOIN order_items oi ON p.product_id = oi.product_id
					GROUP BY p.product_id, p.product_name, c.category_name
					ORDER BY total_revenue DESC
					LIMIT 10`,
			},
			{
				Title: "Category revenue by month (conditional aggregation pivot)",
				Query: `SELECT
						DATE_FORMAT(o.order_date, '%Y-%m') AS month,
						SUM(CASE WHEN c.category_name = 'Electronics' THEN oi.total_price ELSE 0 END) AS electronics,
						SUM(CASE WHEN c.category_name = 'Clothing' THEN oi.total_price ELSE 0 END) AS clothing,
						SUM(CASE WHEN c.category_name = 'Books' THEN oi.total_price ELSE 0 END) AS books,
						SUM(CASE WHEN c.category_name = 'Sports' THEN oi.total_price ELSE 0 END) AS sports,
						SUM(oi.total_price) AS total
					FROM orders o
					JOIN order_items oi ON o.order_id = oi.order_id
					JOIN products p ON oi.product_id = p.product_id
					JOIN categories c ON p.category_id = c.category_id
					GROUP BY DATE_FORMAT(o.order_date, '%Y-%m')
					ORDER BY month DESC
					LIMIT 12`,
			},
			{
				Title: "Customer summary view",
				Query: "SELECT * FROM customer_summary ORDER BY total_spent DESC LIMIT 5",
			},
		},
	}
}

func proceduresLesson() Lesson {
	return Lesson{
		Name:    "procedures",
		Summary: "Stored procedures and functions created by setup.",
		Steps: []Step{
			{
				Title: "Page through a category with GetProductsByCategory",
				Query: "CALL GetProductsByCategory('Electronics', 5, 0)",
			},
			{
				Title: "Recompute an order total with CalculateOrderTotal",
				Query: `SELECT order_id, total_amount,
						CalculateOrderTotal(order_id) AS computed_total
					FROM orders
					ORDER BY order_id
					LIMIT 5`,
			},
			{
				Title: "Registered routines in this schema",
				Query: `SELECT ROUTINE_NAME, ROUTINE_TYPE, CREATED
					FROM information_schema.ROUTINES
					WHERE ROUTINE_SCHEMA = DATABASE()
					ORDER BY ROUTINE_NAME`,
			},
		},
	}
}

func transactionsLesson() Lesson {
	return Lesson{
		Name:    "transactions",
		Summary: "Atomic multi-statement writes: a committed order and a forced rollback.",
		Custom:  runTransactionsLesson,
	}
}

// errRollbackDemo aborts the second transaction on purpose.
var errRollbackDemo = fmt.Errorf("demonstration rollback")

func runTransactionsLesson(ctx context.Context, client *db.Client, out io.Writer) error {
	fmt.Fprintln(out, "\n1. Commit: order plus items as one unit")
	err := client.Tx(ctx, func(tx *sql.Tx) error {
		var customerID, productID int64
		var price float64
		if err := tx.QueryRowContext(ctx,
			"SELECT customer_id FROM customers ORDER BY customer_id LIMIT 1").Scan(&customerID); err != nil {
			return err
		}
		if err := tx.QueryRowContext(ctx,
			"SELECT product_id, price FROM products WHERE stock_quantity > 0 ORDER BY product_id LIMIT 1").
			Scan(&productID, &price); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO orders (customer_id, status, total_amount) VALUES (?, 'pending', ?)",
			customerID, price)
		if err != nil {
			return err
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
			VALUES (?, ?, 1, ?, ?)`, orderID, productID, price, price); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE products SET stock_quantity = stock_quantity - 1 WHERE product_id = ?",
			productID); err != nil {
			return err
		}
		fmt.Fprintf(out, "   committed order %d for customer %d\n", orderID, customerID)
		return nil
	})
	if err != nil {
		fmt.Fprintf(out, "   error: %v\n", err)
	}

	fmt.Fprintln(out, "\n2. Rollback: the insert below never becomes visible")
	var before, after int64
	if err := countOrders(ctx, client, &before); err != nil {
		return err
	}
	err = client.Tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO orders (customer_id, status, total_amount)
			SELECT customer_id, 'pending', 1.00 FROM customers LIMIT 1`); err != nil {
			return err
		}
		return errRollbackDemo
	})
	if err != errRollbackDemo {
		fmt.Fprintf(out, "   unexpected error: %v\n", err)
	}
	if err := countOrders(ctx, client, &after); err != nil {
		return err
	}
	fmt.Fprintf(out, "   orders before: %d, after rollback: %d\n", before, after)

	fmt.Fprintln(out, "\n3. Transaction counters")
	rows, err := client.QueryMaps(ctx,
		"SHOW GLOBAL STATUS WHERE Variable_name IN ('Com_commit', 'Com_rollback')")
	if err != nil {
		fmt.Fprintf(out, "   error: %v\n", err)
		return nil
	}
	renderRows(out, rows, 4)
	return nil
}

func countOrders(ctx context.Context, client *db.Client, dest *int64) error {
	rows, err := client.QueryMaps(ctx, "SELECT COUNT(*) AS n FROM orders")
	if err != nil {
		return err
	}
	if len(rows) == 1 {
		switch v := rows[0]["n"].(type) {
		case int64:
			*dest = v
		case string:
			fmt.Sscan(v, dest)
		}
	}
	return nil
}
