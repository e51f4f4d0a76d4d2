package repository

import (
	"context"
	"database/sql"

	"github.com/floorops/restaurant-reservation/internal/model"
)

// RestaurantRepo encapsulates database operations for restaurants.
type RestaurantRepo struct {
	db *sql.DB
}

// NewRestaurantRepo constructs a RestaurantRepo given a DB handle.
func NewRestaurantRepo(db *sql.DB) *RestaurantRepo {
	return &RestaurantRepo{db: db}
}

// GetByID loads one restaurant.
func (r *RestaurantRepo) GetByID(ctx context.Context, id uint64) (*model.Restaurant, error) {
	var (
		rest  model.Restaurant
		phone sql.NullString
		email sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, phone, email, created_at, updated_at FROM restaurants WHERE id = ?`, id).
		Scan(&rest.ID, &rest.Name, &phone, &email, &rest.CreatedAt, &rest.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if phone.Valid {
		rest.Phone = &phone.String
	}
	if email.Valid {
		rest.Email = &email.String
	}
	return &rest, nil
}
