package warranty

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	// ErrMissingIdentifier is returned when neither a product ID nor a
	// serial number was supplied.
	ErrMissingIdentifier = errors.New("either product_id or serial_number is required")
	// ErrNotFound is returned when no product matches the identifier.
	ErrNotFound = errors.New("product not found")
)

// Product is a catalog row plus its coverage windows in months.
type Product struct {
	ProductID    string
	ProductType  string
	ProductName  string
	SerialNumber string
	PurchaseDate string
	Coverage     map[string]int
}

// ProductRepo looks up products in the warranty catalog.
type ProductRepo interface {
	GetByProductID(ctx context.Context, productID string) (*Product, error)
	GetBySerialNumber(ctx context.Context, serialNumber string) (*Product, error)
}

// SQLiteProductRepo implements ProductRepo using a SQLite database.
type SQLiteProductRepo struct {
	db *sql.DB
}

// NewSQLiteProductRepo creates a new SQLiteProductRepo.
func NewSQLiteProductRepo(db *sql.DB) *SQLiteProductRepo {
	return &SQLiteProductRepo{db: db}
}

func (r *SQLiteProductRepo) GetByProductID(ctx context.Context, productID string) (*Product, error) {
	return r.get(ctx, "product_id", productID)
}

func (r *SQLiteProductRepo) GetBySerialNumber(ctx context.Context, serialNumber string) (*Product, error) {
	return r.get(ctx, "serial_number", serialNumber)
}

func (r *SQLiteProductRepo) get(ctx context.Context, column, value string) (*Product, error) {
	query := fmt.Sprintf(
		`SELECT product_id, product_type, product_name, serial_number, purchase_date
		 FROM products WHERE %s = ?`, column)
	row := r.db.QueryRowContext(ctx, query, value)

	var p Product
	err := row.Scan(&p.ProductID, &p.ProductType, &p.ProductName, &p.SerialNumber, &p.PurchaseDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("product %s=%s: %w", column, value, ErrNotFound)
		}
		return nil, fmt.Errorf("scanning product: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT coverage_type, duration_months FROM product_coverage WHERE product_id = ?`,
		p.ProductID)
	if err != nil {
		return nil, fmt.Errorf("querying coverage: %w", err)
	}
	defer rows.Close()

	p.Coverage = make(map[string]int)
	for rows.Next() {
		var covType string
		var months int
		if err := rows.Scan(&covType, &months); err != nil {
			return nil, fmt.Errorf("scanning coverage: %w", err)
		}
		p.Coverage[covType] = months
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating coverage: %w", err)
	}

	return &p, nil
}
