package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

const recipeColumns = `r.id, r.author_id, r.name, r.image, r.text, r.cooking_time, r.created_at`

func scanRecipe(row rowScanner) (*models.Recipe, error) {
	recipe := &models.Recipe{}
	err := row.Scan(&recipe.ID, &recipe.AuthorID, &recipe.Name, &recipe.Image,
		&recipe.Text, &recipe.CookingTime, &recipe.CreatedAt)
	return recipe, err
}

// CreateRecipe persists a new recipe with its ingredients and tags.
func (s *SQLiteStore) CreateRecipe(ctx context.Context, recipe *models.Recipe, ingredients []models.RecipeIngredient, tagIDs []string) error {
	// Generate ID if not set
	if recipe.ID == "" {
		recipe.ID = uuid.New().String()
	}
	if recipe.CreatedAt == 0 {
		recipe.CreatedAt = time.Now().Unix()
	}

	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipes (id, author_id, name, image, text, cooking_time, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			recipe.ID, recipe.AuthorID, recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.CreatedAt,
		)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("author %s: %w", recipe.AuthorID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to insert recipe: %w", err)
		}

		return linkRecipe(ctx, tx, recipe.ID, ingredients, tagIDs)
	})
	if err != nil {
		return err
	}

	return loadRecipeDetails(ctx, s.db, []*models.Recipe{recipe})
}

// GetRecipe retrieves a recipe by ID, including ingredients and tags.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	recipe, err := scanRecipe(s.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r WHERE r.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("recipe %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}

	if err := loadRecipeDetails(ctx, s.db, []*models.Recipe{recipe}); err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateRecipe replaces an existing recipe's fields, ingredients and tags.
func (s *SQLiteStore) UpdateRecipe(ctx context.Context, recipe *models.Recipe, ingredients []models.RecipeIngredient, tagIDs []string) error {
	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = ?, image = ?, text = ?, cooking_time = ? WHERE id = ?`,
			recipe.Name, recipe.Image, recipe.Text, recipe.CookingTime, recipe.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update recipe: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("recipe %s: %w", recipe.ID, storage.ErrNotFound)
		}

		previous, err := linkedAmountIDs(ctx, tx, recipe.ID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_ingredients WHERE recipe_id = ?`, recipe.ID); err != nil {
			return fmt.Errorf("failed to clear recipe ingredients: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM recipe_tags WHERE recipe_id = ?`, recipe.ID); err != nil {
			return fmt.Errorf("failed to clear recipe tags: %w", err)
		}

		if err := linkRecipe(ctx, tx, recipe.ID, ingredients, tagIDs); err != nil {
			return err
		}
		return deleteOrphanedAmounts(ctx, tx, previous)
	})
	if err != nil {
		return err
	}

	// Reload so CreatedAt, AuthorID and the resolved amounts are current.
	updated, err := s.GetRecipe(ctx, recipe.ID)
	if err != nil {
		return err
	}
	*recipe = *updated
	return nil
}

// DeleteRecipe removes a recipe by ID.
func (s *SQLiteStore) DeleteRecipe(ctx context.Context, id string) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		previous, err := linkedAmountIDs(ctx, tx, id)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("recipe %s: %w", id, storage.ErrNotFound)
		}

		return deleteOrphanedAmounts(ctx, tx, previous)
	})
}

// linkRecipe resolves each ingredient to its shared amount row and links it and the tags.
func linkRecipe(ctx context.Context, tx *sql.Tx, recipeID string, ingredients []models.RecipeIngredient, tagIDs []string) error {
	for _, ingredient := range ingredients {
		amount, _, err := getOrCreateAmount(ctx, tx, ingredient.IngredientID, ingredient.Amount)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (recipe_id, ingredient_amount_id) VALUES (?, ?)`,
			recipeID, amount.ID,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("ingredient %s listed twice: %w", ingredient.IngredientID, storage.ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("failed to link ingredient: %w", err)
		}
	}

	for _, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			recipeID, tagID,
		)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("tag %s: %w", tagID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to link tag: %w", err)
		}
	}

	return nil
}

func linkedAmountIDs(ctx context.Context, q querier, recipeID string) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ingredient_amount_id FROM recipe_ingredients WHERE recipe_id = ?`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe ingredients: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient amount: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe ingredients: %w", err)
	}
	return ids, nil
}

// deleteOrphanedAmounts removes the given amount rows once no recipe links to them.
func deleteOrphanedAmounts(ctx context.Context, q querier, amountIDs []string) error {
	if len(amountIDs) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx, `
		DELETE FROM ingredient_amounts
		WHERE id IN (`+placeholders(len(amountIDs))+`)
		  AND NOT EXISTS (
		      SELECT 1 FROM recipe_ingredients ri WHERE ri.ingredient_amount_id = ingredient_amounts.id
		  )`,
		stringArgs(amountIDs)...,
	)
	if err != nil {
		return fmt.Errorf("failed to delete orphaned ingredient amounts: %w", err)
	}
	return nil
}

// loadRecipeDetails fills Ingredients and Tags for each recipe.
func loadRecipeDetails(ctx context.Context, q querier, recipes []*models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	byID := make(map[string]*models.Recipe, len(recipes))
	ids := make([]string, len(recipes))
	for i, r := range recipes {
		r.Ingredients = nil
		r.Tags = nil
		byID[r.ID] = r
		ids[i] = r.ID
	}
	in := placeholders(len(ids))
	args := stringArgs(ids)

	rows, err := q.QueryContext(ctx, `
		SELECT ri.recipe_id, ia.id, ia.ingredient_id, ia.amount, i.name, i.measurement_unit
		FROM recipe_ingredients ri
		JOIN ingredient_amounts ia ON ia.id = ri.ingredient_amount_id
		JOIN ingredients i ON i.id = ia.ingredient_id
		WHERE ri.recipe_id IN (`+in+`)
		ORDER BY i.name, i.measurement_unit, ia.amount`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get recipe ingredients: %w", err)
	}
	for rows.Next() {
		var recipeID string
		var ia models.IngredientAmount
		if err := rows.Scan(&recipeID, &ia.ID, &ia.IngredientID, &ia.Amount, &ia.Name, &ia.MeasurementUnit); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan recipe ingredient: %w", err)
		}
		byID[recipeID].Ingredients = append(byID[recipeID].Ingredients, ia)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe ingredients: %w", err)
	}

	tagRows, err := q.QueryContext(ctx, `
		SELECT rt.recipe_id, t.id, t.name, t.color, t.slug
		FROM recipe_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.recipe_id IN (`+in+`)
		ORDER BY t.name`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to get recipe tags: %w", err)
	}
	defer tagRows.Close()
	for tagRows.Next() {
		var recipeID string
		var tag models.Tag
		if err := tagRows.Scan(&recipeID, &tag.ID, &tag.Name, &tag.Color, &tag.Slug); err != nil {
			return fmt.Errorf("failed to scan recipe tag: %w", err)
		}
		byID[recipeID].Tags = append(byID[recipeID].Tags, tag)
	}
	if err := tagRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe tags: %w", err)
	}

	return nil
}

// ListRecipes returns a filtered page of recipes, newest first.
func (s *SQLiteStore) ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.AuthorID != "" {
		where = append(where, "r.author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		where = append(where, `EXISTS (
			SELECT 1 FROM recipe_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE rt.recipe_id = r.id AND t.slug IN (`+placeholders(len(filter.TagSlugs))+`))`)
		args = append(args, stringArgs(filter.TagSlugs)...)
	}
	if filter.OnlyFavorited && filter.ViewerID != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)`)
		args = append(args, filter.ViewerID)
	}
	if filter.OnlyInCart && filter.ViewerID != "" {
		where = append(where, `EXISTS (
			SELECT 1 FROM shopping_cart_recipes scr JOIN shopping_carts sc ON sc.id = scr.cart_id
			WHERE scr.recipe_id = r.id AND sc.user_id = ?)`)
		args = append(args, filter.ViewerID)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes r`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = -1 // no limit
	}
	pageArgs := append(append([]any{}, args...), limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes r`+clause+`
		 ORDER BY r.created_at DESC, r.rowid DESC
		 LIMIT ? OFFSET ?`,
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	var recipes []*models.Recipe
	for rows.Next() {
		recipe, err := scanRecipe(rows)
		if err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan recipe: %w", err)
		}
		recipes = append(recipes, recipe)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	if err := loadRecipeDetails(ctx, s.db, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// CountRecipesByAuthor returns the number of recipes per author. Authors
// without recipes are omitted.
func (s *SQLiteStore) CountRecipesByAuthor(ctx context.Context, authorIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT author_id, COUNT(*) FROM recipes WHERE author_id IN (`+placeholders(len(authorIDs))+`) GROUP BY author_id`,
		stringArgs(authorIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var authorID string
		var n int
		if err := rows.Scan(&authorID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan recipe count: %w", err)
		}
		counts[authorID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipe counts: %w", err)
	}
	return counts, nil
}
