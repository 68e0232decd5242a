// Package seed generates practice data sized for experimenting with
// indexes, query plans and the profiler.
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sqlpulse/sqlpulse/internal/db"
)

// Counts controls how much of each entity to generate.
type Counts struct {
	Customers int
	Products  int
	Orders    int
}

// DefaultCounts matches a dataset big enough that unindexed scans are
// visibly slower than indexed lookups.
func DefaultCounts() Counts {
	return Counts{Customers: 1000, Products: 500, Orders: 2000}
}

var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael",
		"Linda", "William", "Elizabeth", "David", "Barbara", "Richard", "Susan",
		"Joseph", "Jessica", "Thomas", "Sarah", "Christopher", "Karen",
		"Charles", "Nancy", "Daniel", "Lisa", "Matthew", "Betty", "Anthony",
		"Helen", "Mark", "Sandra", "Donald", "Donna", "Steven", "Carol",
		"Paul", "Ruth", "Andrew", "Sharon", "Joshua", "Michelle",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller",
		"Davis", "Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez",
		"Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
		"Lee", "Perez", "Thompson", "White", "Harris", "Sanchez", "Clark",
		"Ramirez", "Lewis", "Robinson",
	}
	cities = []string{
		"New York", "Los Angeles", "Chicago", "Houston", "Phoenix",
		"Philadelphia", "San Antonio", "San Diego", "Dallas", "San Jose",
		"Austin", "Jacksonville", "Fort Worth", "Columbus", "Indianapolis",
		"Charlotte", "San Francisco", "Seattle", "Denver", "Washington DC",
		"Boston", "El Paso", "Nashville", "Detroit", "Oklahoma City",
		"Portland", "Las Vegas", "Memphis", "Louisville", "Baltimore",
	}
	states = []string{
		"NY", "CA", "IL", "TX", "AZ", "PA", "FL", "OH", "IN", "NC", "WA",
		"CO", "MA", "TN", "MI", "OK", "OR", "NV", "KY", "MD", "WI", "NM",
	}
	streetNames = []string{"Main", "Oak", "Pine", "Elm", "Cedar", "Maple"}
	streetKinds = []string{"St", "Ave", "Dr", "Ln", "Blvd"}

	productAdjectives = []string{
		"Premium", "Deluxe", "Professional", "Advanced", "Smart", "Ultra",
		"Super", "Mega", "Pro", "Elite", "Ultimate", "Enhanced", "Digital",
		"Wireless", "Portable", "Compact", "Heavy-Duty", "Industrial",
		"Commercial", "Eco-Friendly",
	}
	productNouns = []string{
		"Widget", "Device", "Tool", "Gadget", "Accessory", "Kit", "Set",
		"Pack", "System", "Solution", "Equipment", "Apparatus", "Instrument",
		"Machine", "Component", "Module", "Unit", "Assembly",
	}
	orderStatuses = []string{"pending", "processing", "shipped", "delivered", "cancelled"}
)

// Seeder generates random entities against an existing schema.
type Seeder struct {
	client *db.Client
	log    *zap.Logger
	rng    *rand.Rand
}

func New(client *db.Client, log *zap.Logger) *Seeder {
	return &Seeder{
		client: client,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run generates customers, then products, then orders. Orders need the
// first two to exist.
func (s *Seeder) Run(ctx context.Context, counts Counts) error {
	if counts.Customers > 0 {
		if err := s.Customers(ctx, counts.Customers); err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}
	}
	if counts.Products > 0 {
		if err := s.Products(ctx, counts.Products); err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
	}
	if counts.Orders > 0 {
		if err := s.Orders(ctx, counts.Orders); err != nil {
			return fmt.Errorf("seed orders: %w", err)
		}
	}
	return nil
}

const batchSize = 200

// Customers inserts count random customers in batches. Generated emails
// can collide with the unique index; INSERT IGNORE drops the duplicate
// row and the loop tops the total back up with the next batch.
func (s *Seeder) Customers(ctx context.Context, count int) error {
	inserted := 0
	for inserted < count {
		query, args := s.customerBatch(min(batchSize, count-inserted))
		rows, err := s.client.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		inserted += int(rows)
	}
	s.log.Info("customers generated", zap.Int("count", inserted))
	return nil
}

func (s *Seeder) customerBatch(n int) (string, []any) {
	var sb strings.Builder
	sb.WriteString("INSERT IGNORE INTO customers (first_name, last_name, email, phone, address, city, state, zip_code) VALUES ")
	args := make([]any, 0, n*8)
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?, ?, ?, ?)")
		first := pick(s.rng, firstNames)
		last := pick(s.rng, lastNames)
		email := fmt.Sprintf("%s.%s%d@email.com",
			strings.ToLower(first), strings.ToLower(last), s.rng.Intn(999999)+1)
		phone := fmt.Sprintf("(%d) %d-%d",
			s.rng.Intn(800)+200, s.rng.Intn(800)+200, s.rng.Intn(9000)+1000)
		address := fmt.Sprintf("%d %s %s",
			s.rng.Intn(9999)+1, pick(s.rng, streetNames), pick(s.rng, streetKinds))
		zip := fmt.Sprintf("%05d", s.rng.Intn(90000)+10000)
		args = append(args, first, last, email, phone, address,
			pick(s.rng, cities), pick(s.rng, states), zip)
	}
	return sb.String(), args
}

// Products inserts count random products spread over existing categories.
func (s *Seeder) Products(ctx context.Context, count int) error {
	categories, err := s.client.QueryMaps(ctx, "SELECT category_id, category_name FROM categories")
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return fmt.Errorf("no categories found, run setup first")
	}

	inserted := 0
	for inserted < count {
		n := min(batchSize, count-inserted)
		var sb strings.Builder
		sb.WriteString("INSERT INTO products (product_name, description, price, stock_quantity, sku, category_id) VALUES ")
		args := make([]any, 0, n*6)
		for i := 0; i < n; i++ {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(?, ?, ?, ?, ?, ?)")
			cat := categories[s.rng.Intn(len(categories))]
			catName, _ := cat["category_name"].(string)
			noun := pick(s.rng, productNouns)
			name := pick(s.rng, productAdjectives) + " " + noun
			desc := fmt.Sprintf("High-quality %s for %s applications",
				strings.ToLower(noun), strings.ToLower(catName))
			price := float64(s.rng.Intn(99000)+999) / 100
			sku := fmt.Sprintf("%s-%s",
				strings.ToUpper(prefix(catName, 4)), uuid.NewString()[:8])
			args = append(args, name, desc, price, s.rng.Intn(201), sku, cat["category_id"])
		}
		rows, err := s.client.Exec(ctx, sb.String(), args...)
		if err != nil {
			return err
		}
		inserted += int(rows)
	}
	s.log.Info("products generated", zap.Int("count", inserted))
	return nil
}

// Orders creates count orders, each with 1-5 items, inside one
// transaction per order so totals stay consistent with items.
func (s *Seeder) Orders(ctx context.Context, count int) error {
	customers, err := s.client.QueryMaps(ctx, "SELECT customer_id FROM customers")
	if err != nil {
		return err
	}
	products, err := s.client.QueryMaps(ctx,
		"SELECT product_id, price FROM products WHERE stock_quantity > 0")
	if err != nil {
		return err
	}
	if len(customers) == 0 || len(products) == 0 {
		return fmt.Errorf("no customers or products found, seed them first")
	}

	generated := 0
	for i := 0; i < count; i++ {
		if err := s.order(ctx, customers, products); err != nil {
			s.log.Warn("order generation failed", zap.Error(err))
			continue
		}
		generated++
		if generated%500 == 0 {
			s.log.Info("orders in progress", zap.Int("generated", generated))
		}
	}
	s.log.Info("orders generated", zap.Int("count", generated))
	return nil
}

func (s *Seeder) order(ctx context.Context, customers, products []map[string]any) error {
	customer := customers[s.rng.Intn(len(customers))]
	orderDate := time.Now().Add(-time.Duration(s.rng.Intn(730*24)) * time.Hour)
	status := pick(s.rng, orderStatuses)
	reference := uuid.NewString()

	return s.client.Tx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO orders (customer_id, order_date, status, total_amount, reference)
			VALUES (?, ?, ?, 0.00, ?)`,
			customer["customer_id"], orderDate, status, reference)
		if err != nil {
			return err
		}
		orderID, err := res.LastInsertId()
		if err != nil {
			return err
		}

		total := 0.0
		for n := s.rng.Intn(5) + 1; n > 0; n-- {
			product := products[s.rng.Intn(len(products))]
			quantity := s.rng.Intn(3) + 1
			price := toFloat(product["price"])
			lineTotal := price * float64(quantity)
			total += lineTotal

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO order_items (order_id, product_id, quantity, unit_price, total_price)
				VALUES (?, ?, ?, ?, ?)`,
				orderID, product["product_id"], quantity, price, lineTotal); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE orders SET total_amount = ? WHERE order_id = ?", total, orderID)
		return err
	})
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func prefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}

func toFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	case []byte:
		f, _ := strconv.ParseFloat(string(t), 64)
		return f
	case int64:
		return float64(t)
	}
	return 0
}
