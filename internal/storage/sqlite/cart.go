package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
)

// AddFavorite bookmarks a recipe for a user.
func (s *SQLiteStore) AddFavorite(ctx context.Context, userID, recipeID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (user_id, recipe_id, created_at) VALUES (?, ?, ?)`,
		userID, recipeID, time.Now().Unix(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("favorite %s: %w", recipeID, storage.ErrAlreadyExists)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("recipe %s: %w", recipeID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// RemoveFavorite deletes a bookmark.
func (s *SQLiteStore) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE user_id = ? AND recipe_id = ?`, userID, recipeID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("favorite %s: %w", recipeID, storage.ErrNotFound)
	}
	return nil
}

// AddToShoppingCart adds a recipe to the user's cart, creating the cart if needed.
func (s *SQLiteStore) AddToShoppingCart(ctx context.Context, userID, recipeID string) error {
	return s.inTx(ctx, nil, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO shopping_carts (id, user_id) VALUES (?, ?) ON CONFLICT (user_id) DO NOTHING`,
			uuid.New().String(), userID,
		)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("user %s: %w", userID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to create shopping cart: %w", err)
		}

		var cartID string
		if err := tx.QueryRowContext(ctx,
			`SELECT id FROM shopping_carts WHERE user_id = ?`, userID).Scan(&cartID); err != nil {
			return fmt.Errorf("failed to get shopping cart: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO shopping_cart_recipes (cart_id, recipe_id) VALUES (?, ?)`,
			cartID, recipeID,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("recipe %s in shopping cart: %w", recipeID, storage.ErrAlreadyExists)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("recipe %s: %w", recipeID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to add recipe to shopping cart: %w", err)
		}
		return nil
	})
}

// RemoveFromShoppingCart removes a recipe from the user's cart.
func (s *SQLiteStore) RemoveFromShoppingCart(ctx context.Context, userID, recipeID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM shopping_cart_recipes
		WHERE recipe_id = ?
		  AND cart_id = (SELECT id FROM shopping_carts WHERE user_id = ?)`,
		recipeID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to remove recipe from shopping cart: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("recipe %s in shopping cart: %w", recipeID, storage.ErrNotFound)
	}
	return nil
}

// GetShoppingCart loads the user's cart with all recipes and their ingredients.
// Everything is read inside one transaction so the list reflects a single snapshot.
func (s *SQLiteStore) GetShoppingCart(ctx context.Context, userID string) (*models.ShoppingCart, error) {
	cart := &models.ShoppingCart{OwnerID: userID}

	err := s.inTx(ctx, nil, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM shopping_carts WHERE user_id = ?`, userID).Scan(&cart.ID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("shopping cart of %s: %w", userID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to get shopping cart: %w", err)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT `+recipeColumns+`
			FROM shopping_cart_recipes scr
			JOIN recipes r ON r.id = scr.recipe_id
			WHERE scr.cart_id = ?
			ORDER BY r.name, r.id`,
			cart.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to get shopping cart recipes: %w", err)
		}
		var recipes []*models.Recipe
		for rows.Next() {
			recipe, err := scanRecipe(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan recipe: %w", err)
			}
			recipes = append(recipes, recipe)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to iterate shopping cart recipes: %w", err)
		}

		if err := loadRecipeDetails(ctx, tx, recipes); err != nil {
			return err
		}
		for _, r := range recipes {
			cart.Recipes = append(cart.Recipes, *r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// GetRecipeFlags reports favorite and cart membership of recipeIDs for userID.
func (s *SQLiteStore) GetRecipeFlags(ctx context.Context, userID string, recipeIDs []string) (map[string]bool, map[string]bool, error) {
	favorited := make(map[string]bool)
	inCart := make(map[string]bool)
	if userID == "" || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	args := append([]any{userID}, stringArgs(recipeIDs)...)
	in := placeholders(len(recipeIDs))

	if err := collectIDs(ctx, s.db, favorited,
		`SELECT recipe_id FROM favorites WHERE user_id = ? AND recipe_id IN (`+in+`)`, args...); err != nil {
		return nil, nil, err
	}
	if err := collectIDs(ctx, s.db, inCart, `
		SELECT scr.recipe_id
		FROM shopping_cart_recipes scr
		JOIN shopping_carts sc ON sc.id = scr.cart_id
		WHERE sc.user_id = ? AND scr.recipe_id IN (`+in+`)`, args...); err != nil {
		return nil, nil, err
	}
	return favorited, inCart, nil
}

func collectIDs(ctx context.Context, q querier, into map[string]bool, query string, args ...any) error {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query recipe flags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan recipe flag: %w", err)
		}
		into[id] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate recipe flags: %w", err)
	}
	return nil
}
