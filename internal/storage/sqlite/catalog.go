package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// CreateTag persists a new tag.
func (s *SQLiteStore) CreateTag(ctx context.Context, tag *models.Tag) error {
	if tag.ID == "" {
		tag.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (id, name, color, slug) VALUES (?, ?, ?, ?)`,
		tag.ID, tag.Name, tag.Color, tag.Slug,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("tag %s: %w", tag.Slug, storage.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to insert tag: %w", err)
	}
	return nil
}

// ListTags returns all tags ordered by name.
func (s *SQLiteStore) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return queryTags(ctx, s.db, `SELECT id, name, color, slug FROM tags ORDER BY name`)
}

// GetTagsByIDs returns the tags that exist among ids, ordered by name.
func (s *SQLiteStore) GetTagsByIDs(ctx context.Context, ids []string) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return queryTags(ctx, s.db,
		`SELECT id, name, color, slug FROM tags WHERE id IN (`+placeholders(len(ids))+`) ORDER BY name`,
		stringArgs(ids)...)
}

func queryTags(ctx context.Context, q querier, query string, args ...any) ([]*models.Tag, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []*models.Tag
	for rows.Next() {
		tag := &models.Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.Slug); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// CreateIngredient persists a new ingredient.
func (s *SQLiteStore) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error {
	if ingredient.ID == "" {
		ingredient.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, measurement_unit) VALUES (?, ?, ?)`,
		ingredient.ID, ingredient.Name, ingredient.MeasurementUnit,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ingredient: %w", err)
	}
	return nil
}

// GetIngredient retrieves an ingredient by ID.
func (s *SQLiteStore) GetIngredient(ctx context.Context, id string) (*models.Ingredient, error) {
	ingredient := &models.Ingredient{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients WHERE id = ?`, id,
	).Scan(&ingredient.ID, &ingredient.Name, &ingredient.MeasurementUnit)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("ingredient %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	return ingredient, nil
}

// ListIngredients returns ingredients whose name starts with prefix, ignoring case.
func (s *SQLiteStore) ListIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error) {
	// SQLite's LIKE only folds ASCII, so non-ASCII prefixes are matched in Go.
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, measurement_unit FROM ingredients ORDER BY name, measurement_unit, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	prefix = strings.ToLower(prefix)
	var ingredients []*models.Ingredient
	for rows.Next() {
		ingredient := &models.Ingredient{}
		if err := rows.Scan(&ingredient.ID, &ingredient.Name, &ingredient.MeasurementUnit); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		if strings.HasPrefix(strings.ToLower(ingredient.Name), prefix) {
			ingredients = append(ingredients, ingredient)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}
	return ingredients, nil
}

// GetOrCreateIngredientAmount returns the shared row for (ingredientID, amount).
func (s *SQLiteStore) GetOrCreateIngredientAmount(ctx context.Context, ingredientID string, amount int) (*models.IngredientAmount, bool, error) {
	var (
		result  *models.IngredientAmount
		created bool
	)
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		var err error
		result, created, err = getOrCreateAmount(ctx, tx, ingredientID, amount)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

// getOrCreateAmount relies on the UNIQUE (ingredient_id, amount) constraint:
// a conflicting insert is a no-op and the existing row is read back.
func getOrCreateAmount(ctx context.Context, q querier, ingredientID string, amount int) (*models.IngredientAmount, bool, error) {
	if amount < 0 {
		return nil, false, fmt.Errorf("ingredient amount cannot be negative: %d", amount)
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO ingredient_amounts (id, ingredient_id, amount) VALUES (?, ?, ?)
		ON CONFLICT (ingredient_id, amount) DO NOTHING`,
		uuid.New().String(), ingredientID, amount,
	)
	if isForeignKeyViolation(err) {
		return nil, false, fmt.Errorf("ingredient %s: %w", ingredientID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert ingredient amount: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("failed to insert ingredient amount: %w", err)
	}

	ia := &models.IngredientAmount{}
	err = q.QueryRowContext(ctx, `
		SELECT ia.id, ia.ingredient_id, ia.amount, i.name, i.measurement_unit
		FROM ingredient_amounts ia
		JOIN ingredients i ON i.id = ia.ingredient_id
		WHERE ia.ingredient_id = ? AND ia.amount = ?`,
		ingredientID, amount,
	).Scan(&ia.ID, &ia.IngredientID, &ia.Amount, &ia.Name, &ia.MeasurementUnit)
	if err == sql.ErrNoRows {
		return nil, false, fmt.Errorf("ingredient %s: %w", ingredientID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get ingredient amount: %w", err)
	}

	return ia, inserted > 0, nil
}
