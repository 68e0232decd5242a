// Package schema owns the practice database DDL.
package schema

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/db"
)

// tables are created in dependency order.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		category_id   INT AUTO_INCREMENT PRIMARY KEY,
		category_name VARCHAR(100) NOT NULL UNIQUE,
		description   TEXT,
		created_at    TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		customer_id INT AUTO_INCREMENT PRIMARY KEY,
		first_name  VARCHAR(50) NOT NULL,
		last_name   VARCHAR(50) NOT NULL,
		email       VARCHAR(100) NOT NULL UNIQUE,
		phone       VARCHAR(20),
		address     VARCHAR(200),
		city        VARCHAR(100),
		state       VARCHAR(50),
		zip_code    VARCHAR(10),
		created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		INDEX idx_customers_email (email),
		INDEX idx_customers_location (state, city)
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		product_id     INT AUTO_INCREMENT PRIMARY KEY,
		product_name   VARCHAR(200) NOT NULL,
		description    TEXT,
		price          DECIMAL(10,2) NOT NULL,
		stock_quantity INT NOT NULL DEFAULT 0,
		sku            VARCHAR(50) NOT NULL UNIQUE,
		category_id    INT NOT NULL,
		created_at     TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (category_id) REFERENCES categories(category_id),
		INDEX idx_products_category (category_id),
		INDEX idx_products_name (product_name)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		order_id     INT AUTO_INCREMENT PRIMARY KEY,
		customer_id  INT NOT NULL,
		order_date   DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		status       ENUM('pending','processing','shipped','delivered','cancelled') NOT NULL DEFAULT 'pending',
		total_amount DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		reference    VARCHAR(36),
		created_at   TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (customer_id) REFERENCES customers(customer_id),
		INDEX idx_orders_customer (customer_id),
		INDEX idx_orders_date (order_date),
		INDEX idx_orders_status (status)
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_item_id INT AUTO_INCREMENT PRIMARY KEY,
		order_id      INT NOT NULL,
		product_id    INT NOT NULL,
		quantity      INT NOT NULL,
		unit_price    DECIMAL(10,2) NOT NULL,
		total_price   DECIMAL(10,2) NOT NULL,
		FOREIGN KEY (order_id) REFERENCES orders(order_id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(product_id),
		INDEX idx_order_items_order (order_id),
		INDEX idx_order_items_product (product_id)
	)`,
}

var views = []string{
	`CREATE OR REPLACE VIEW customer_summary AS
	SELECT
		c.customer_id,
		CONCAT(c.first_name, ' ', c.last_name) AS customer_name,
		c.email,
		c.city,
		c.state,
		COUNT(DISTINCT o.order_id) AS total_orders,
		COALESCE(SUM(o.total_amount), 0) AS total_spent,
		COALESCE(AVG(o.total_amount), 0) AS avg_order_value,
		MAX(o.order_date) AS last_order_date,
		DATEDIFF(CURDATE(), MAX(o.order_date)) AS days_since_last_order
	FROM customers c
	LEFT JOIN orders o ON c.customer_id = o.customer_id
	GROUP BY c.customer_id, c.first_name, c.last_name, c.email, c.city, c.state`,

	`CREATE OR REPLACE VIEW product_performance AS
	SELECT
		p.product_id,
		p.product_name,
		cat.category_name,
		p.price,
		p.stock_quantity,
		COALESCE(SUM(oi.quantity), 0) AS total_sold,
		COALESCE(SUM(oi.total_price), 0) AS total_revenue,
		COALESCE(AVG(oi.unit_price), p.price) AS avg_selling_price,
		COUNT(DISTINCT oi.order_id) AS number_of_orders
	FROM products p
	JOIN categories cat ON p.category_id = cat.category_id
	LEFT JOIN order_items oi ON p.product_id = oi.product_id
	GROUP BY p.product_id, p.product_name, cat.category_name, p.price, p.stock_quantity`,

	`CREATE OR REPLACE VIEW monthly_sales AS
	SELECT
		YEAR(order_date) AS year,
		MONTH(order_date) AS month,
		DATE_FORMAT(order_date, '%Y-%m') AS sales_month,
		COUNT(DISTINCT order_id) AS total_orders,
		COUNT(DISTINCT customer_id) AS unique_customers,
		SUM(total_amount) AS total_revenue,
		AVG(total_amount) AS avg_order_value,
		MIN(total_amount) AS min_order_value,
		MAX(total_amount) AS max_order_value
	FROM orders
	GROUP BY YEAR(order_date), MONTH(order_date)`,
}

// procedures are recreated on every setup run so edits take effect.
var procedures = []string{
	`DROP PROCEDURE IF EXISTS GetCustomerOrders`,
	`CREATE PROCEDURE GetCustomerOrders(IN customer_email VARCHAR(100))
	BEGIN
		SELECT
			o.order_id,
			o.order_date,
			o.status,
			o.total_amount,
			COUNT(oi.order_item_id) AS item_count
		FROM customers c
		JOIN orders o ON c.customer_id = o.customer_id
		LEFT JOIN order_items oi ON o.order_id = oi.order_id
		WHERE c.email = customer_email
		GROUP BY o.order_id, o.order_date, o.status, o.total_amount
		ORDER BY o.order_date DESC;
	END`,

	`DROP PROCEDURE IF EXISTS UpdateProductStock`,
	`CREATE PROCEDURE UpdateProductStock(
		IN p_sku VARCHAR(50),
		IN p_quantity_change INT,
		OUT p_new_stock INT,
		OUT p_result VARCHAR(100)
	)
	BEGIN
		DECLARE current_stock INT DEFAULT 0;
		DECLARE product_count INT DEFAULT 0;

		SELECT COUNT(*) INTO product_count FROM products WHERE sku = p_sku;

		IF product_count = 0 THEN
			SET p_result = 'Product not found';
			SET p_new_stock = -1;
		ELSE
			SELECT stock_quantity INTO current_stock FROM products WHERE sku = p_sku;

			IF (current_stock + p_quantity_change) < 0 THEN
				SET p_result = 'Insufficient stock';
				SET p_new_stock = current_stock;
			ELSE
				UPDATE products
				SET stock_quantity = stock_quantity + p_quantity_change
				WHERE sku = p_sku;

				SELECT stock_quantity INTO p_new_stock FROM products WHERE sku = p_sku;
				SET p_result = 'Stock updated successfully';
			END IF;
		END IF;
	END`,

	`DROP PROCEDURE IF EXISTS GetProductsByCategory`,
	`CREATE PROCEDURE GetProductsByCategory(
		IN p_category_name VARCHAR(100),
		IN p_limit INT,
		IN p_offset INT
	)
	BEGIN
		SELECT
			p.product_id,
			p.product_name,
			p.price,
			p.stock_quantity,
			p.sku,
			c.category_name
		FROM products p
		JOIN categories c ON p.category_id = c.category_id
		WHERE c.category_name = p_category_name
		ORDER BY p.product_name
		LIMIT p_limit OFFSET p_offset;
	END`,

	`DROP FUNCTION IF EXISTS CalculateOrderTotal`,
	`CREATE FUNCTION CalculateOrderTotal(order_id_param INT)
	RETURNS DECIMAL(10,2)
	READS SQL DATA
	DETERMINISTIC
	BEGIN
		DECLARE total DECIMAL(10,2) DEFAULT 0.00;

		SELECT COALESCE(SUM(total_price), 0.00) INTO total
		FROM order_items
		WHERE order_id = order_id_param;

		RETURN total;
	END`,
}

var baseCategories = []string{
	"Electronics", "Clothing", "Books", "Home & Garden",
	"Sports", "Toys", "Automotive", "Health & Beauty",
}

// Setup creates the practice tables, views, procedures and baseline
// categories. Statements are idempotent; failures on individual views
// or procedures are logged and do not abort the run.
func Setup(ctx context.Context, client *db.Client, log *zap.Logger) error {
	for _, stmt := range tables {
		if _, err := client.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	log.Info("tables ready", zap.Int("count", len(tables)))

	for _, name := range baseCategories {
		desc := name + " and related items"
		if _, err := client.Exec(ctx,
			"INSERT IGNORE INTO categories (category_name, description) VALUES (?, ?)", name, desc); err != nil {
			log.Warn("category insert failed", zap.String("category", name), zap.Error(err))
		}
	}

	for _, stmt := range views {
		if _, err := client.Exec(ctx, stmt); err != nil {
			log.Warn("view creation failed", zap.String("view", objectName(stmt)), zap.Error(err))
		}
	}

	for _, stmt := range procedures {
		if _, err := client.Exec(ctx, stmt); err != nil {
			if strings.HasPrefix(stmt, "DROP") {
				continue
			}
			log.Warn("routine creation failed", zap.String("routine", objectName(stmt)), zap.Error(err))
		}
	}

	return nil
}

// objectName pulls a best-effort identifier out of a DDL statement for logging.
func objectName(stmt string) string {
	fields := strings.Fields(stmt)
	for i, f := range fields {
		switch strings.ToUpper(f) {
		case "VIEW", "PROCEDURE", "FUNCTION", "TABLE":
			if i+1 < len(fields) {
				return strings.TrimSuffix(fields[i+1], "(")
			}
		}
	}
	return "unknown"
}
