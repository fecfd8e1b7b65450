package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/pkg/api"
)

// UserService implements profiles, subscriptions and account blocking.
type UserService struct {
	store storage.Store
}

// NewUserService creates a new UserService with the given storage backend.
func NewUserService(store storage.Store) *UserService {
	return &UserService{store: store}
}

// GetUser returns a profile. is_subscribed refers to the caller, if any.
func (s *UserService) GetUser(ctx context.Context, req *connect.Request[api.GetUserRequest]) (*connect.Response[api.GetUserResponse], error) {
	user, err := s.store.GetUserByID(ctx, req.Msg.UserID)
	if err != nil {
		return nil, storeError(err)
	}

	subscribed := false
	if viewerID := middleware.GetUserID(ctx); viewerID != "" && viewerID != user.ID {
		subscribed, err = s.store.IsFollowing(ctx, viewerID, user.ID)
		if err != nil {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}

	return connect.NewResponse(&api.GetUserResponse{User: toAPIUser(user, subscribed)}), nil
}

// Subscribe makes the caller follow an author.
func (s *UserService) Subscribe(ctx context.Context, req *connect.Request[api.SubscribeRequest]) (*connect.Response[api.SubscribeResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}
	authorID := req.Msg.AuthorID
	if authorID == user.ID {
		return nil, invalidArgument("cannot subscribe to yourself")
	}

	author, err := s.store.GetUserByID(ctx, authorID)
	if err != nil {
		return nil, storeError(err)
	}

	if err := s.store.CreateFollow(ctx, user.ID, author.ID); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, connect.NewError(connect.CodeAlreadyExists, fmt.Errorf("already subscribed to %s", author.Username))
		}
		slog.Error("Subscribe failed", "user_id", user.ID, "author_id", author.ID, "error", err)
		return nil, storeError(err)
	}
	slog.Info("Subscribed", "user_id", user.ID, "author_id", author.ID)

	subs, err := s.subscriptions(ctx, []*models.User{author}, req.Msg.RecipesLimit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.SubscribeResponse{Subscription: subs[0]}), nil
}

// Unsubscribe removes a subscription.
func (s *UserService) Unsubscribe(ctx context.Context, req *connect.Request[api.UnsubscribeRequest]) (*connect.Response[api.UnsubscribeResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteFollow(ctx, user.ID, req.Msg.AuthorID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, connect.NewError(connect.CodeFailedPrecondition, fmt.Errorf("not subscribed to %s", req.Msg.AuthorID))
		}
		return nil, storeError(err)
	}
	slog.Info("Unsubscribed", "user_id", user.ID, "author_id", req.Msg.AuthorID)
	return connect.NewResponse(&api.UnsubscribeResponse{}), nil
}

// ListSubscriptions pages through the authors the caller follows.
func (s *UserService) ListSubscriptions(ctx context.Context, req *connect.Request[api.ListSubscriptionsRequest]) (*connect.Response[api.ListSubscriptionsResponse], error) {
	user, err := currentUser(ctx, s.store)
	if err != nil {
		return nil, err
	}

	limit, offset := paginate(req.Msg.Page, req.Msg.Limit)
	authors, total, err := s.store.ListFollowing(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	results, err := s.subscriptions(ctx, authors, req.Msg.RecipesLimit)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&api.ListSubscriptionsResponse{Count: total, Results: results}), nil
}

// subscriptions builds the followed-author view. recipesLimit <= 0 includes every recipe.
func (s *UserService) subscriptions(ctx context.Context, authors []*models.User, recipesLimit int) ([]api.Subscription, error) {
	ids := make([]string, len(authors))
	for i, a := range authors {
		ids[i] = a.ID
	}
	counts, err := s.store.CountRecipesByAuthor(ctx, ids)
	if err != nil {
		return nil, err
	}

	results := make([]api.Subscription, 0, len(authors))
	for _, author := range authors {
		recipes, _, err := s.store.ListRecipes(ctx, models.RecipeFilter{AuthorID: author.ID, Limit: recipesLimit})
		if err != nil {
			return nil, err
		}
		sub := api.Subscription{
			User:         toAPIUser(author, true),
			Recipes:      make([]api.ShortRecipe, 0, len(recipes)),
			RecipesCount: counts[author.ID],
		}
		for _, r := range recipes {
			sub.Recipes = append(sub.Recipes, toShortRecipe(r))
		}
		results = append(results, sub)
	}
	return results, nil
}

// BlockUser blocks or unblocks an account. Admin only.
func (s *UserService) BlockUser(ctx context.Context, req *connect.Request[api.BlockUserRequest]) (*connect.Response[api.BlockUserResponse], error) {
	admin, err := requireAdmin(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if req.Msg.UserID == admin.ID {
		return nil, invalidArgument("cannot block yourself")
	}

	if err := s.store.SetUserBlocked(ctx, req.Msg.UserID, req.Msg.Blocked); err != nil {
		return nil, storeError(err)
	}
	slog.Info("User block state changed", "admin_id", admin.ID, "user_id", req.Msg.UserID, "blocked", req.Msg.Blocked)
	return connect.NewResponse(&api.BlockUserResponse{}), nil
}
