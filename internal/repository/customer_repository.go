package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/restaurant-service/internal/domain"
)

// CustomerRepository defines persistence access for customers.
type CustomerRepository interface {
	Update(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Customer, error)
	FindOrCreateByPhone(ctx context.Context, phone string) (*domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

func (r *customerRepository) Update(ctx context.Context, customer *domain.Customer) error {
	const query = `
        UPDATE customers SET phone=$1, name=$2, status=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query,
		customer.Phone,
		customer.Name,
		customer.Status,
		customer.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, phone, name, status, created_at, updated_at
        FROM customers WHERE id=$1`

	return r.scanOne(ctx, query, id)
}

func (r *customerRepository) GetByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	const query = `
        SELECT id, phone, name, status, created_at, updated_at
        FROM customers WHERE phone=$1`

	return r.scanOne(ctx, query, phone)
}

// FindOrCreateByPhone upserts the customer row for a verified phone. The
// conflict clause makes concurrent first logins for the same phone converge
// on one row.
func (r *customerRepository) FindOrCreateByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	const query = `
        INSERT INTO customers (phone, status)
        VALUES ($1, $2)
        ON CONFLICT (phone) DO UPDATE SET updated_at=NOW()
        RETURNING id, phone, name, status, created_at, updated_at`

	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, phone, domain.EntityStatusActive).Scan(
		&customer.ID,
		&customer.Phone,
		&customer.Name,
		&customer.Status,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) scanOne(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var customer domain.Customer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&customer.ID,
		&customer.Phone,
		&customer.Name,
		&customer.Status,
		&customer.CreatedAt,
		&customer.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &customer, nil
}
