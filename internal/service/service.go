// Package service implements the Foodgram Connect services and the shopping
// list download endpoint.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/pkg/api"
)

const (
	defaultPageSize = 6
	maxPageSize     = 100
)

var (
	errAuthRequired  = errors.New("authentication required")
	errAdminRequired = errors.New("admin rights required")
)

// requireUserID returns the authenticated caller's ID.
func requireUserID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errAuthRequired)
	}
	return userID, nil
}

// currentUser loads the authenticated caller. Blocked accounts are refused
// even while their token is still valid.
func currentUser(ctx context.Context, users storage.UserStore) (*models.User, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := users.GetUserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
	}
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if user.IsBlocked {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrUserBlocked)
	}
	return user, nil
}

func requireAdmin(ctx context.Context, users storage.UserStore) (*models.User, error) {
	user, err := currentUser(ctx, users)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, connect.NewError(connect.CodePermissionDenied, errAdminRequired)
	}
	return user, nil
}

// storeError maps storage sentinels onto Connect codes.
func storeError(err error) *connect.Error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrAlreadyExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// paginate turns 1-based page/limit into limit/offset.
func paginate(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	return limit, (page - 1) * limit
}

func invalidArgument(format string, args ...any) *connect.Error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

func toAPIUser(user *models.User, subscribed bool) api.User {
	return api.User{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
	}
}

func toShortRecipe(recipe *models.Recipe) api.ShortRecipe {
	return api.ShortRecipe{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}

func toAPITag(tag *models.Tag) api.Tag {
	return api.Tag{ID: tag.ID, Name: tag.Name, Color: tag.Color, Slug: tag.Slug}
}

func toAPIRecipe(recipe *models.Recipe, author api.User, favorited, inCart bool) api.Recipe {
	out := api.Recipe{
		ID:               recipe.ID,
		Tags:             make([]api.Tag, 0, len(recipe.Tags)),
		Author:           author,
		Ingredients:      make([]api.RecipeIngredient, 0, len(recipe.Ingredients)),
		IsFavorited:      favorited,
		IsInShoppingCart: inCart,
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
	}
	for i := range recipe.Tags {
		out.Tags = append(out.Tags, toAPITag(&recipe.Tags[i]))
	}
	for _, ia := range recipe.Ingredients {
		out.Ingredients = append(out.Ingredients, api.RecipeIngredient{
			ID:              ia.IngredientID,
			Name:            ia.Name,
			MeasurementUnit: ia.MeasurementUnit,
			Amount:          ia.Amount,
		})
	}
	return out
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(api.Codec{})}, opts...)
}

// NewAuthServiceHandler mounts every AuthService procedure. It returns the
// path prefix to register the handler under.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(api.AuthServiceRegisterProcedure, connect.NewUnaryHandler(api.AuthServiceRegisterProcedure, svc.Register, opts...))
	mux.Handle(api.AuthServiceLoginProcedure, connect.NewUnaryHandler(api.AuthServiceLoginProcedure, svc.Login, opts...))
	mux.Handle(api.AuthServiceGetCurrentUserProcedure, connect.NewUnaryHandler(api.AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, opts...))
	return "/" + api.AuthServiceName + "/", mux
}

// NewUserServiceHandler mounts every UserService procedure.
func NewUserServiceHandler(svc *UserService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(api.UserServiceGetUserProcedure, connect.NewUnaryHandler(api.UserServiceGetUserProcedure, svc.GetUser, opts...))
	mux.Handle(api.UserServiceSubscribeProcedure, connect.NewUnaryHandler(api.UserServiceSubscribeProcedure, svc.Subscribe, opts...))
	mux.Handle(api.UserServiceUnsubscribeProcedure, connect.NewUnaryHandler(api.UserServiceUnsubscribeProcedure, svc.Unsubscribe, opts...))
	mux.Handle(api.UserServiceListSubscriptionsProcedure, connect.NewUnaryHandler(api.UserServiceListSubscriptionsProcedure, svc.ListSubscriptions, opts...))
	mux.Handle(api.UserServiceBlockUserProcedure, connect.NewUnaryHandler(api.UserServiceBlockUserProcedure, svc.BlockUser, opts...))
	return "/" + api.UserServiceName + "/", mux
}

// NewCatalogServiceHandler mounts every CatalogService procedure.
func NewCatalogServiceHandler(svc *CatalogService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(api.CatalogServiceListTagsProcedure, connect.NewUnaryHandler(api.CatalogServiceListTagsProcedure, svc.ListTags, opts...))
	mux.Handle(api.CatalogServiceCreateTagProcedure, connect.NewUnaryHandler(api.CatalogServiceCreateTagProcedure, svc.CreateTag, opts...))
	mux.Handle(api.CatalogServiceListIngredientsProcedure, connect.NewUnaryHandler(api.CatalogServiceListIngredientsProcedure, svc.ListIngredients, opts...))
	mux.Handle(api.CatalogServiceCreateIngredientProcedure, connect.NewUnaryHandler(api.CatalogServiceCreateIngredientProcedure, svc.CreateIngredient, opts...))
	return "/" + api.CatalogServiceName + "/", mux
}

// NewRecipeServiceHandler mounts every RecipeService procedure.
func NewRecipeServiceHandler(svc *RecipeService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	mux := http.NewServeMux()
	mux.Handle(api.RecipeServiceCreateRecipeProcedure, connect.NewUnaryHandler(api.RecipeServiceCreateRecipeProcedure, svc.CreateRecipe, opts...))
	mux.Handle(api.RecipeServiceGetRecipeProcedure, connect.NewUnaryHandler(api.RecipeServiceGetRecipeProcedure, svc.GetRecipe, opts...))
	mux.Handle(api.RecipeServiceListRecipesProcedure, connect.NewUnaryHandler(api.RecipeServiceListRecipesProcedure, svc.ListRecipes, opts...))
	mux.Handle(api.RecipeServiceUpdateRecipeProcedure, connect.NewUnaryHandler(api.RecipeServiceUpdateRecipeProcedure, svc.UpdateRecipe, opts...))
	mux.Handle(api.RecipeServiceDeleteRecipeProcedure, connect.NewUnaryHandler(api.RecipeServiceDeleteRecipeProcedure, svc.DeleteRecipe, opts...))
	mux.Handle(api.RecipeServiceAddFavoriteProcedure, connect.NewUnaryHandler(api.RecipeServiceAddFavoriteProcedure, svc.AddFavorite, opts...))
	mux.Handle(api.RecipeServiceRemoveFavoriteProcedure, connect.NewUnaryHandler(api.RecipeServiceRemoveFavoriteProcedure, svc.RemoveFavorite, opts...))
	mux.Handle(api.RecipeServiceAddToShoppingCartProcedure, connect.NewUnaryHandler(api.RecipeServiceAddToShoppingCartProcedure, svc.AddToShoppingCart, opts...))
	mux.Handle(api.RecipeServiceRemoveFromShoppingCartProcedure, connect.NewUnaryHandler(api.RecipeServiceRemoveFromShoppingCartProcedure, svc.RemoveFromShoppingCart, opts...))
	return "/" + api.RecipeServiceName + "/", mux
}
