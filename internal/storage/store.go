// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/foodgram/internal/models"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a uniqueness constraint would be violated.
	ErrAlreadyExists = errors.New("already exists")
)

// UserStore persists accounts and follow relationships.
type UserStore interface {
	// CreateUser inserts a new user. Returns ErrAlreadyExists if the email
	// or username is taken.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	SetUserBlocked(ctx context.Context, id string, blocked bool) error

	// CreateFollow subscribes userID to authorID. Returns ErrAlreadyExists
	// for an existing subscription.
	CreateFollow(ctx context.Context, userID, authorID string) error
	// DeleteFollow returns ErrNotFound if there is no such subscription.
	DeleteFollow(ctx context.Context, userID, authorID string) error
	IsFollowing(ctx context.Context, userID, authorID string) (bool, error)
	// ListFollowing returns the authors userID follows, oldest subscription first,
	// and the total number of them.
	ListFollowing(ctx context.Context, userID string, limit, offset int) ([]*models.User, int, error)
}

// CatalogStore persists tags, ingredients and shared ingredient amounts.
type CatalogStore interface {
	CreateTag(ctx context.Context, tag *models.Tag) error
	ListTags(ctx context.Context) ([]*models.Tag, error)
	GetTagsByIDs(ctx context.Context, ids []string) ([]*models.Tag, error)

	CreateIngredient(ctx context.Context, ingredient *models.Ingredient) error
	GetIngredient(ctx context.Context, id string) (*models.Ingredient, error)
	// ListIngredients returns ingredients whose name starts with prefix
	// (case-insensitive), ordered by name.
	ListIngredients(ctx context.Context, prefix string) ([]*models.Ingredient, error)

	// GetOrCreateIngredientAmount returns the unique row for (ingredientID, amount),
	// creating it if needed. created reports whether a new row was inserted.
	GetOrCreateIngredientAmount(ctx context.Context, ingredientID string, amount int) (*models.IngredientAmount, bool, error)
}

// RecipeStore persists recipes, favorites and shopping carts.
type RecipeStore interface {
	// CreateRecipe inserts the recipe and links it to the get-or-create
	// amount row of each ingredient. recipe.Ingredients and recipe.Tags are
	// populated on return.
	CreateRecipe(ctx context.Context, recipe *models.Recipe, ingredients []models.RecipeIngredient, tagIDs []string) error
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	// UpdateRecipe replaces all fields, ingredients and tags of an existing recipe.
	UpdateRecipe(ctx context.Context, recipe *models.Recipe, ingredients []models.RecipeIngredient, tagIDs []string) error
	// DeleteRecipe removes the recipe and every ingredient amount row no
	// other recipe still links to.
	DeleteRecipe(ctx context.Context, id string) error
	// ListRecipes returns a page of recipes, newest first, and the total match count.
	ListRecipes(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, int, error)
	CountRecipesByAuthor(ctx context.Context, authorIDs []string) (map[string]int, error)

	AddFavorite(ctx context.Context, userID, recipeID string) error
	RemoveFavorite(ctx context.Context, userID, recipeID string) error

	// AddToShoppingCart creates the user's cart on first use. Returns
	// ErrAlreadyExists if the recipe is already in the cart.
	AddToShoppingCart(ctx context.Context, userID, recipeID string) error
	// RemoveFromShoppingCart returns ErrNotFound if the recipe is not in the cart.
	RemoveFromShoppingCart(ctx context.Context, userID, recipeID string) error
	// GetShoppingCart loads the cart with every recipe and its ingredient
	// amounts in a single read transaction. Returns ErrNotFound if the user
	// never created a cart.
	GetShoppingCart(ctx context.Context, userID string) (*models.ShoppingCart, error)

	// GetRecipeFlags reports which of recipeIDs userID has favorited and put in the cart.
	GetRecipeFlags(ctx context.Context, userID string, recipeIDs []string) (favorited, inCart map[string]bool, err error)
}

// Store defines the interface for all storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	UserStore
	CatalogStore
	RecipeStore

	// Close releases any resources held by the store.
	Close() error
}
