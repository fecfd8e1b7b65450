package api

// User is a public profile.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type Ingredient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

// RecipeIngredient is an ingredient of a recipe; ID is the ingredient's ID.
type RecipeIngredient struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type Recipe struct {
	ID               string             `json:"id"`
	Tags             []Tag              `json:"tags"`
	Author           User               `json:"author"`
	Ingredients      []RecipeIngredient `json:"ingredients"`
	IsFavorited      bool               `json:"is_favorited"`
	IsInShoppingCart bool               `json:"is_in_shopping_cart"`
	Name             string             `json:"name"`
	Image            string             `json:"image"`
	Text             string             `json:"text"`
	CookingTime      int                `json:"cooking_time"`
}

// ShortRecipe is the compact form used in subscriptions and favorite/cart replies.
type ShortRecipe struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// Auth

type RegisterRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"auth_token"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"auth_token"`
}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

// Users

type GetUserRequest struct {
	UserID string `json:"user_id"`
}

type GetUserResponse struct {
	User User `json:"user"`
}

// Subscription is a followed author with a preview of their recipes.
type Subscription struct {
	User
	Recipes      []ShortRecipe `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}

type SubscribeRequest struct {
	AuthorID     string `json:"author_id"`
	RecipesLimit int    `json:"recipes_limit,omitempty"`
}

type SubscribeResponse struct {
	Subscription Subscription `json:"subscription"`
}

type UnsubscribeRequest struct {
	AuthorID string `json:"author_id"`
}

type UnsubscribeResponse struct{}

type ListSubscriptionsRequest struct {
	Page         int `json:"page,omitempty"`
	Limit        int `json:"limit,omitempty"`
	RecipesLimit int `json:"recipes_limit,omitempty"`
}

type ListSubscriptionsResponse struct {
	Count   int            `json:"count"`
	Results []Subscription `json:"results"`
}

type BlockUserRequest struct {
	UserID  string `json:"user_id"`
	Blocked bool   `json:"blocked"`
}

type BlockUserResponse struct{}

// Catalog

type ListTagsRequest struct{}

type ListTagsResponse struct {
	Tags []Tag `json:"tags"`
}

type CreateTagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Slug  string `json:"slug"`
}

type CreateTagResponse struct {
	Tag Tag `json:"tag"`
}

// ListIngredientsRequest filters by case-insensitive name prefix.
type ListIngredientsRequest struct {
	Name string `json:"name,omitempty"`
}

type ListIngredientsResponse struct {
	Ingredients []Ingredient `json:"ingredients"`
}

type CreateIngredientRequest struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type CreateIngredientResponse struct {
	Ingredient Ingredient `json:"ingredient"`
}

// Recipes

// IngredientAmount references an ingredient by ID with the amount needed.
type IngredientAmount struct {
	ID     string `json:"id"`
	Amount int    `json:"amount"`
}

type CreateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients"`
	Tags        []string           `json:"tags"`
	Image       string             `json:"image"`
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
}

type CreateRecipeResponse struct {
	Recipe Recipe `json:"recipe"`
}

type UpdateRecipeRequest struct {
	RecipeID    string             `json:"recipe_id"`
	Ingredients []IngredientAmount `json:"ingredients"`
	Tags        []string           `json:"tags"`
	Image       string             `json:"image"`
	Name        string             `json:"name"`
	Text        string             `json:"text"`
	CookingTime int                `json:"cooking_time"`
}

type UpdateRecipeResponse struct {
	Recipe Recipe `json:"recipe"`
}

type GetRecipeRequest struct {
	RecipeID string `json:"recipe_id"`
}

type GetRecipeResponse struct {
	Recipe Recipe `json:"recipe"`
}

type ListRecipesRequest struct {
	Page             int      `json:"page,omitempty"`
	Limit            int      `json:"limit,omitempty"`
	Tags             []string `json:"tags,omitempty"` // tag slugs
	Author           string   `json:"author,omitempty"`
	IsFavorited      bool     `json:"is_favorited,omitempty"`
	IsInShoppingCart bool     `json:"is_in_shopping_cart,omitempty"`
}

type ListRecipesResponse struct {
	Count   int      `json:"count"`
	Results []Recipe `json:"results"`
}

type DeleteRecipeRequest struct {
	RecipeID string `json:"recipe_id"`
}

type DeleteRecipeResponse struct{}

// RecipeActionRequest targets one recipe for a favorite or shopping cart change.
type RecipeActionRequest struct {
	RecipeID string `json:"recipe_id"`
}

// RecipeActionResponse echoes the recipe on add; it is empty on remove.
type RecipeActionResponse struct {
	Recipe *ShortRecipe `json:"recipe,omitempty"`
}
