package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/pkg/api"
)

const (
	maxCookingTime    = 1440
	maxRecipeNameSize = 200
)

// ErrDuplicateMembership is returned when a recipe is added to a shopping
// cart that already holds it, or removed from one that does not.
var ErrDuplicateMembership = errors.New("duplicate shopping cart membership")

// RecipeService implements recipes, favorites and shopping cart membership.
type RecipeService struct {
	store storage.Store
}

// NewRecipeService creates a new RecipeService with the given storage backend.
func NewRecipeService(store storage.Store) *RecipeService {
	return &RecipeService{store: store}
}

// recipeInput is the writable part of a recipe shared by create and update.
type recipeInput struct {
	ingredients []api.IngredientAmount
	tags        []string
	name        string
	text        string
	cookingTime int
}

// validate checks the input and resolves it to storage arguments.
func (s *RecipeService) validate(ctx context.Context, in recipeInput) ([]models.RecipeIngredient, []string, error) {
	if strings.TrimSpace(in.name) == "" {
		return nil, nil, invalidArgument("recipe name is required")
	}
	if len([]rune(in.name)) > maxRecipeNameSize {
		return nil, nil, invalidArgument("recipe name is longer than %d characters", maxRecipeNameSize)
	}
	if strings.TrimSpace(in.text) == "" {
		return nil, nil, invalidArgument("recipe text is required")
	}
	if in.cookingTime < 1 || in.cookingTime > maxCookingTime {
		return nil, nil, invalidArgument("cooking time must be between 1 and %d minutes", maxCookingTime)
	}
	if len(in.ingredients) == 0 {
		return nil, nil, invalidArgument("at least one ingredient is required")
	}
	if len(in.tags) == 0 {
		return nil, nil, invalidArgument("at least one tag is required")
	}

	ingredients := make([]models.RecipeIngredient, 0, len(in.ingredients))
	seen := make(map[string]bool, len(in.ingredients))
	for _, ia := range in.ingredients {
		if seen[ia.ID] {
			return nil, nil, invalidArgument("ingredient %s is listed more than once", ia.ID)
		}
		seen[ia.ID] = true
		if ia.Amount <= 0 {
			return nil, nil, invalidArgument("amount of ingredient %s must be positive", ia.ID)
		}
		if _, err := s.store.GetIngredient(ctx, ia.ID); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, nil, invalidArgument("unknown ingredient %s", ia.ID)
			}
			return nil, nil, connect.NewError(connect.CodeInternal, err)
		}
		ingredients = append(ingredients, models.RecipeIngredient{IngredientID: ia.ID, Amount: ia.Amount})
	}

	tagIDs := make([]string, 0, len(in.tags))
	seenTags := make(map[string]bool, len(in.tags))
	for _, id := range in.tags {
		if !seenTags[id] {
			seenTags[id] = true
			tagIDs = append(tagIDs, id)
		}
	}
	tags, err := s.store.GetTagsByIDs(ctx, tagIDs)
	if err != nil {
		return nil, nil, connect.NewError(connect.CodeInternal, err)
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, invalidArgument("unknown tag in %v", tagIDs)
	}

	return ingredients, tagIDs, nil
}

// CreateRecipe publishes a recipe authored by the caller.
func (s *RecipeService) CreateRecipe(ctx context.Context, req *connect.Request[api.CreateRecipeRequest]) (*connect.Response[api.CreateRecipeResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}
	msg := req.Msg
	slog.Info("CreateRecipe request received",
		"user_id", user.ID,
		"name", msg.Name,
		"ingredients_count", len(msg.Ingredients),
	)

	ingredients, tagIDs, err := s.validate(ctx, recipeInput{
		ingredients: msg.Ingredients,
		tags:        msg.Tags,
		name:        msg.Name,
		text:        msg.Text,
		cookingTime: msg.CookingTime,
	})
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    user.ID,
		Name:        strings.TrimSpace(msg.Name),
		Image:       msg.Image,
		Text:        msg.Text,
		CookingTime: msg.CookingTime,
	}
	if err := s.store.CreateRecipe(ctx, recipe, ingredients, tagIDs); err != nil {
		slog.Error("CreateRecipe failed", "error", err)
		return nil, storeError(err)
	}
	slog.Info("Recipe created", "recipe_id", recipe.ID)

	view := toAPIRecipe(recipe, toAPIUser(user, false), false, false)
	return connect.NewResponse(&api.CreateRecipeResponse{Recipe: view}), nil
}

// GetRecipe returns one recipe with the caller's flags.
func (s *RecipeService) GetRecipe(ctx context.Context, req *connect.Request[api.GetRecipeRequest]) (*connect.Response[api.GetRecipeResponse], error) {
	recipe, err := s.store.GetRecipe(ctx, req.Msg.RecipeID)
	if err != nil {
		return nil, storeError(err)
	}

	views, err := s.views(ctx, middleware.GetUserID(ctx), []*models.Recipe{recipe})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.GetRecipeResponse{Recipe: views[0]}), nil
}

// ListRecipes returns a page of recipes, newest first.
func (s *RecipeService) ListRecipes(ctx context.Context, req *connect.Request[api.ListRecipesRequest]) (*connect.Response[api.ListRecipesResponse], error) {
	msg := req.Msg
	viewerID := middleware.GetUserID(ctx)

	// Personal filters match nothing for anonymous callers.
	if viewerID == "" && (msg.IsFavorited || msg.IsInShoppingCart) {
		return connect.NewResponse(&api.ListRecipesResponse{Results: []api.Recipe{}}), nil
	}

	limit, offset := paginate(msg.Page, msg.Limit)
	recipes, total, err := s.store.ListRecipes(ctx, models.RecipeFilter{
		TagSlugs:      msg.Tags,
		AuthorID:      msg.Author,
		ViewerID:      viewerID,
		OnlyFavorited: msg.IsFavorited,
		OnlyInCart:    msg.IsInShoppingCart,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	views, err := s.views(ctx, viewerID, recipes)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.ListRecipesResponse{Count: total, Results: views}), nil
}

// loadOwned fetches a recipe the caller may modify.
func (s *RecipeService) loadOwned(ctx context.Context, recipeID string) (*models.User, *models.Recipe, error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, nil, err
	}
	recipe, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, nil, storeError(err)
	}
	if recipe.AuthorID != user.ID && !user.IsAdmin {
		return nil, nil, connect.NewError(connect.CodePermissionDenied, fmt.Errorf("only the author can modify recipe %s", recipeID))
	}
	return user, recipe, nil
}

// UpdateRecipe replaces a recipe. Only its author or an admin may do so.
func (s *RecipeService) UpdateRecipe(ctx context.Context, req *connect.Request[api.UpdateRecipeRequest]) (*connect.Response[api.UpdateRecipeResponse], error) {
	msg := req.Msg
	user, recipe, err := s.loadOwned(ctx, msg.RecipeID)
	if err != nil {
		return nil, err
	}

	ingredients, tagIDs, err := s.validate(ctx, recipeInput{
		ingredients: msg.Ingredients,
		tags:        msg.Tags,
		name:        msg.Name,
		text:        msg.Text,
		cookingTime: msg.CookingTime,
	})
	if err != nil {
		return nil, err
	}

	recipe.Name = strings.TrimSpace(msg.Name)
	recipe.Text = msg.Text
	recipe.CookingTime = msg.CookingTime
	if msg.Image != "" {
		recipe.Image = msg.Image
	}
	if err := s.store.UpdateRecipe(ctx, recipe, ingredients, tagIDs); err != nil {
		slog.Error("UpdateRecipe failed", "recipe_id", recipe.ID, "error", err)
		return nil, storeError(err)
	}
	slog.Info("Recipe updated", "recipe_id", recipe.ID, "user_id", user.ID)

	views, err := s.views(ctx, user.ID, []*models.Recipe{recipe})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.UpdateRecipeResponse{Recipe: views[0]}), nil
}

// DeleteRecipe removes a recipe. Only its author or an admin may do so.
func (s *RecipeService) DeleteRecipe(ctx context.Context, req *connect.Request[api.DeleteRecipeRequest]) (*connect.Response[api.DeleteRecipeResponse], error) {
	user, recipe, err := s.loadOwned(ctx, req.Msg.RecipeID)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteRecipe(ctx, recipe.ID); err != nil {
		return nil, storeError(err)
	}
	slog.Info("Recipe deleted", "recipe_id", recipe.ID, "user_id", user.ID)
	return connect.NewResponse(&api.DeleteRecipeResponse{}), nil
}

// AddFavorite bookmarks a recipe for the caller.
func (s *RecipeService) AddFavorite(ctx context.Context, req *connect.Request[api.RecipeActionRequest]) (*connect.Response[api.RecipeActionResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}
	recipe, err := s.store.GetRecipe(ctx, req.Msg.RecipeID)
	if err != nil {
		return nil, storeError(err)
	}

	if err := s.store.AddFavorite(ctx, user.ID, recipe.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("recipe %q is already in favorites", recipe.Name))
		}
		return nil, storeError(err)
	}

	short := toShortRecipe(recipe)
	return connect.NewResponse(&api.RecipeActionResponse{Recipe: &short}), nil
}

// RemoveFavorite drops a bookmark.
func (s *RecipeService) RemoveFavorite(ctx context.Context, req *connect.Request[api.RecipeActionRequest]) (*connect.Response[api.RecipeActionResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}
	recipe, err := s.store.GetRecipe(ctx, req.Msg.RecipeID)
	if err != nil {
		return nil, storeError(err)
	}

	if err := s.store.RemoveFavorite(ctx, user.ID, recipe.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("recipe %q is not in favorites", recipe.Name))
		}
		return nil, storeError(err)
	}
	return connect.NewResponse(&api.RecipeActionResponse{}), nil
}

// AddToShoppingCart puts a recipe in the caller's cart, creating the cart on
// first use. Adding a recipe twice fails and leaves the cart unchanged.
func (s *RecipeService) AddToShoppingCart(ctx context.Context, req *connect.Request[api.RecipeActionRequest]) (*connect.Response[api.RecipeActionResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}
	recipe, err := s.store.GetRecipe(ctx, req.Msg.RecipeID)
	if err != nil {
		return nil, storeError(err)
	}

	if err := s.store.AddToShoppingCart(ctx, user.ID, recipe.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			err = fmt.Errorf("%w: recipe %q is already in the shopping cart: %w", ErrDuplicateMembership, recipe.Name, err)
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return nil, storeError(err)
	}
	slog.Info("Recipe added to shopping cart", "user_id", user.ID, "recipe_id", recipe.ID)

	short := toShortRecipe(recipe)
	return connect.NewResponse(&api.RecipeActionResponse{Recipe: &short}), nil
}

// RemoveFromShoppingCart takes a recipe out of the caller's cart. Removing a
// recipe that is not there fails and leaves the cart unchanged.
func (s *RecipeService) RemoveFromShoppingCart(ctx context.Context, req *connect.Request[api.RecipeActionRequest]) (*connect.Response[api.RecipeActionResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}
	recipe, err := s.store.GetRecipe(ctx, req.Msg.RecipeID)
	if err != nil {
		return nil, storeError(err)
	}

	if err := s.store.RemoveFromShoppingCart(ctx, user.ID, recipe.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("%w: recipe %q is not in the shopping cart: %w", ErrDuplicateMembership, recipe.Name, err)
			return nil, connect.NewError(connect.CodeFailedPrecondition, err)
		}
		return nil, storeError(err)
	}
	slog.Info("Recipe removed from shopping cart", "user_id", user.ID, "recipe_id", recipe.ID)
	return connect.NewResponse(&api.RecipeActionResponse{}), nil
}

// views decorates recipes with their authors and the viewer's flags.
func (s *RecipeService) views(ctx context.Context, viewerID string, recipes []*models.Recipe) ([]api.Recipe, error) {
	recipeIDs := make([]string, 0, len(recipes))
	authorIDs := make([]string, 0, len(recipes))
	seenAuthor := make(map[string]bool)
	for _, r := range recipes {
		recipeIDs = append(recipeIDs, r.ID)
		if !seenAuthor[r.AuthorID] {
			seenAuthor[r.AuthorID] = true
			authorIDs = append(authorIDs, r.AuthorID)
		}
	}

	authors, err := s.store.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	favorited, inCart, err := s.store.GetRecipeFlags(ctx, viewerID, recipeIDs)
	if err != nil {
		return nil, err
	}

	following := make(map[string]bool)
	if viewerID != "" {
		for _, id := range authorIDs {
			if id == viewerID {
				continue
			}
			ok, err := s.store.IsFollowing(ctx, viewerID, id)
			if err != nil {
				return nil, err
			}
			following[id] = ok
		}
	}

	views := make([]api.Recipe, 0, len(recipes))
	for _, r := range recipes {
		var author api.User
		if a, ok := authors[r.AuthorID]; ok {
			author = toAPIUser(a, following[a.ID])
		} else {
			author = api.User{ID: r.AuthorID}
		}
		views = append(views, toAPIRecipe(r, author, favorited[r.ID], inCart[r.ID]))
	}
	return views, nil
}
