package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OliveaSegaram/EC-sub001/internal/domain"
)

// DistrictRepository serves the read-only district and skill lookup tables.
type DistrictRepository interface {
	GetByID(ctx context.Context, id string) (*domain.District, error)
	ListActive(ctx context.Context) ([]domain.District, error)
	ListActiveSkills(ctx context.Context) ([]domain.Skill, error)
}

type districtRepository struct {
	pool *pgxpool.Pool
}

// NewDistrictRepository builds the repository.
func NewDistrictRepository(pool *pgxpool.Pool) DistrictRepository {
	return &districtRepository{pool: pool}
}

func (r *districtRepository) GetByID(ctx context.Context, id string) (*domain.District, error) {
	const query = `
        SELECT id, name, is_active, created_at, updated_at
        FROM districts WHERE id=$1`
	var district domain.District
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&district.ID,
		&district.Name,
		&district.IsActive,
		&district.CreatedAt,
		&district.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &district, nil
}

func (r *districtRepository) ListActive(ctx context.Context) ([]domain.District, error) {
	const query = `
        SELECT id, name, is_active, created_at, updated_at
        FROM districts WHERE is_active = TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.District
	for rows.Next() {
		var district domain.District
		if err := rows.Scan(&district.ID, &district.Name, &district.IsActive, &district.CreatedAt, &district.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, district)
	}
	return result, rows.Err()
}

func (r *districtRepository) ListActiveSkills(ctx context.Context) ([]domain.Skill, error) {
	const query = `
        SELECT id, name, is_active, created_at, updated_at
        FROM skills WHERE is_active = TRUE ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Skill
	for rows.Next() {
		var skill domain.Skill
		if err := rows.Scan(&skill.ID, &skill.Name, &skill.IsActive, &skill.CreatedAt, &skill.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, skill)
	}
	return result, rows.Err()
}
