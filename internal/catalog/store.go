// internal/catalog/store.go

// Package catalog manages the reference data a search consumes: the
// ingredient list and the named flavor requirements. Postgres is the
// source of truth; a Redis read-through cache and an optional
// Elasticsearch name search sit on top of the store.
package catalog

import (
	"context"
	"database/sql"

	"flavor-solver/internal/common/errors"
	"flavor-solver/internal/models"
)

// Store reads and writes catalog rows. Flavor vectors live in five integer
// columns so rows stay queryable without JSON unpacking.
type Store struct {
	db *sql.DB
}

// NewStore creates a store on an open database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanIngredient(row rowScanner) (models.Ingredient, error) {
	var ing models.Ingredient
	err := row.Scan(
		&ing.ID,
		&ing.Name,
		&ing.Level,
		&ing.Calories,
		&ing.Flavors.Sweet,
		&ing.Flavors.Spicy,
		&ing.Flavors.Sour,
		&ing.Flavors.Bitter,
		&ing.Flavors.Fresh,
		&ing.Special,
	)
	return ing, err
}

func scanRequirement(row rowScanner) (models.Requirement, error) {
	var req models.Requirement
	err := row.Scan(
		&req.ID,
		&req.Name,
		&req.Target.Sweet,
		&req.Target.Spicy,
		&req.Target.Sour,
		&req.Target.Bitter,
		&req.Target.Fresh,
	)
	return req, err
}

// GetIngredient loads a single ingredient by ID.
func (s *Store) GetIngredient(ctx context.Context, id string) (models.Ingredient, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, level, calories, sweet, spicy, sour, bitter, fresh, special
		FROM ingredients
		WHERE id = $1`, id)

	ing, err := scanIngredient(row)
	if err == sql.ErrNoRows {
		return models.Ingredient{}, errors.NewIngredientNotFoundError(id)
	}
	if err != nil {
		return models.Ingredient{}, errors.NewQueryExecutionFailedError("get ingredient", err)
	}
	return ing, nil
}

// ListIngredients returns the full catalog ordered by level then name.
func (s *Store) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, level, calories, sweet, spicy, sour, bitter, fresh, special
		FROM ingredients
		ORDER BY level, name`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list ingredients", err)
	}
	defer rows.Close()

	var ingredients []models.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list ingredients", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list ingredients", err)
	}
	return ingredients, nil
}

// SearchIngredientsByName scans the catalog with a case-insensitive
// substring match. This is the fallback path when no search index is
// configured; the catalog is small enough that a sequential scan is fine.
func (s *Store) SearchIngredientsByName(ctx context.Context, query string) ([]models.Ingredient, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, level, calories, sweet, spicy, sour, bitter, fresh, special
		FROM ingredients
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY level, name`, query)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("search ingredients", err)
	}
	defer rows.Close()

	var ingredients []models.Ingredient
	for rows.Next() {
		ing, err := scanIngredient(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("search ingredients", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("search ingredients", err)
	}
	return ingredients, nil
}

// UpsertIngredient inserts an ingredient or replaces the row with the same ID.
func (s *Store) UpsertIngredient(ctx context.Context, ing models.Ingredient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingredients (id, name, level, calories, sweet, spicy, sour, bitter, fresh, special)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			level = EXCLUDED.level,
			calories = EXCLUDED.calories,
			sweet = EXCLUDED.sweet,
			spicy = EXCLUDED.spicy,
			sour = EXCLUDED.sour,
			bitter = EXCLUDED.bitter,
			fresh = EXCLUDED.fresh,
			special = EXCLUDED.special`,
		ing.ID,
		ing.Name,
		ing.Level,
		ing.Calories,
		ing.Flavors.Sweet,
		ing.Flavors.Spicy,
		ing.Flavors.Sour,
		ing.Flavors.Bitter,
		ing.Flavors.Fresh,
		ing.Special,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("upsert ingredient", err)
	}
	return nil
}

// GetRequirement loads a single requirement by ID.
func (s *Store) GetRequirement(ctx context.Context, id string) (models.Requirement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, sweet, spicy, sour, bitter, fresh
		FROM requirements
		WHERE id = $1`, id)

	req, err := scanRequirement(row)
	if err == sql.ErrNoRows {
		return models.Requirement{}, errors.NewRequirementNotFoundError(id)
	}
	if err != nil {
		return models.Requirement{}, errors.NewQueryExecutionFailedError("get requirement", err)
	}
	return req, nil
}

// ListRequirements returns all named requirements ordered by name.
func (s *Store) ListRequirements(ctx context.Context) ([]models.Requirement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, sweet, spicy, sour, bitter, fresh
		FROM requirements
		ORDER BY name`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list requirements", err)
	}
	defer rows.Close()

	var requirements []models.Requirement
	for rows.Next() {
		req, err := scanRequirement(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("list requirements", err)
		}
		requirements = append(requirements, req)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list requirements", err)
	}
	return requirements, nil
}

// UpsertRequirement inserts a requirement or replaces the row with the same ID.
func (s *Store) UpsertRequirement(ctx context.Context, req models.Requirement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO requirements (id, name, sweet, spicy, sour, bitter, fresh)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			sweet = EXCLUDED.sweet,
			spicy = EXCLUDED.spicy,
			sour = EXCLUDED.sour,
			bitter = EXCLUDED.bitter,
			fresh = EXCLUDED.fresh`,
		req.ID,
		req.Name,
		req.Target.Sweet,
		req.Target.Spicy,
		req.Target.Sour,
		req.Target.Bitter,
		req.Target.Fresh,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("upsert requirement", err)
	}
	return nil
}
