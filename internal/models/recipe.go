package models

// Recipe represents a dish published by an author.
type Recipe struct {
	// ID is the unique identifier for the recipe (UUID format).
	ID string

	AuthorID string
	Name     string

	// Image is the picture as a data URI (base64 encoded).
	Image string

	Text string

	// CookingTime is in minutes, within [0, 1440].
	CookingTime int

	// Ingredients are the shared amount rows linked to this recipe.
	Ingredients []IngredientAmount

	Tags []Tag

	CreatedAt int64
}

// RecipeIngredient is an ingredient requirement as submitted by a client,
// before it is resolved to a shared IngredientAmount row.
type RecipeIngredient struct {
	IngredientID string
	Amount       int
}

// RecipeFilter narrows ListRecipes. Zero values disable a filter.
type RecipeFilter struct {
	// TagSlugs matches recipes carrying any of the given tags.
	TagSlugs []string

	AuthorID string

	// ViewerID is the user whose favorites and cart the flags below refer to.
	ViewerID      string
	OnlyFavorited bool
	OnlyInCart    bool

	Limit  int
	Offset int
}

// ShoppingCart is the set of recipes a user plans to shop for.
// A cart exists once the user has added a recipe at least once.
type ShoppingCart struct {
	ID      string
	OwnerID string

	// Recipes are loaded with their ingredient amounts.
	Recipes []Recipe
}

// Favorite is a user's bookmark of a recipe.
type Favorite struct {
	UserID    string
	RecipeID  string
	CreatedAt int64
}
