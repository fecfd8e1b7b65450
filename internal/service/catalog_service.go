package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/storage"
	"github.com/mmynk/foodgram/pkg/api"
)

var (
	colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	slugPattern  = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// CatalogService serves tags and ingredients.
type CatalogService struct {
	store storage.Store
}

// NewCatalogService creates a new CatalogService with the given storage backend.
func NewCatalogService(store storage.Store) *CatalogService {
	return &CatalogService{store: store}
}

// ListTags returns every tag, ordered by name.
func (s *CatalogService) ListTags(ctx context.Context, req *connect.Request[api.ListTagsRequest]) (*connect.Response[api.ListTagsResponse], error) {
	tags, err := s.store.ListTags(ctx)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &api.ListTagsResponse{Tags: make([]api.Tag, 0, len(tags))}
	for _, tag := range tags {
		resp.Tags = append(resp.Tags, toAPITag(tag))
	}
	return connect.NewResponse(resp), nil
}

// CreateTag adds a tag. Admin only.
func (s *CatalogService) CreateTag(ctx context.Context, req *connect.Request[api.CreateTagRequest]) (*connect.Response[api.CreateTagResponse], error) {
	if _, err := requireAdmin(ctx, s.store); err != nil {
		return nil, err
	}

	tag := &models.Tag{
		Name:  strings.TrimSpace(req.Msg.Name),
		Color: strings.ToUpper(req.Msg.Color),
		Slug:  req.Msg.Slug,
	}
	if tag.Name == "" {
		return nil, invalidArgument("tag name is required")
	}
	if !colorPattern.MatchString(tag.Color) {
		return nil, invalidArgument("color %q is not #RRGGBB", req.Msg.Color)
	}
	if !slugPattern.MatchString(tag.Slug) {
		return nil, invalidArgument("invalid slug %q", tag.Slug)
	}

	if err := s.store.CreateTag(ctx, tag); err != nil {
		return nil, storeError(err)
	}
	slog.Info("Tag created", "tag_id", tag.ID, "slug", tag.Slug)
	return connect.NewResponse(&api.CreateTagResponse{Tag: toAPITag(tag)}), nil
}

// ListIngredients returns ingredients whose name starts with req.Name, ignoring case.
func (s *CatalogService) ListIngredients(ctx context.Context, req *connect.Request[api.ListIngredientsRequest]) (*connect.Response[api.ListIngredientsResponse], error) {
	ingredients, err := s.store.ListIngredients(ctx, strings.TrimSpace(req.Msg.Name))
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := &api.ListIngredientsResponse{Ingredients: make([]api.Ingredient, 0, len(ingredients))}
	for _, in := range ingredients {
		resp.Ingredients = append(resp.Ingredients, api.Ingredient{
			ID:              in.ID,
			Name:            in.Name,
			MeasurementUnit: in.MeasurementUnit,
		})
	}
	return connect.NewResponse(resp), nil
}

// CreateIngredient adds an ingredient. Admin only.
func (s *CatalogService) CreateIngredient(ctx context.Context, req *connect.Request[api.CreateIngredientRequest]) (*connect.Response[api.CreateIngredientResponse], error) {
	if _, err := requireAdmin(ctx, s.store); err != nil {
		return nil, err
	}

	ingredient := &models.Ingredient{
		Name:            strings.TrimSpace(req.Msg.Name),
		MeasurementUnit: strings.TrimSpace(req.Msg.MeasurementUnit),
	}
	if ingredient.Name == "" || ingredient.MeasurementUnit == "" {
		return nil, invalidArgument("ingredient name and measurement unit are required")
	}

	if err := s.store.CreateIngredient(ctx, ingredient); err != nil {
		return nil, storeError(err)
	}
	slog.Info("Ingredient created", "ingredient_id", ingredient.ID, "name", ingredient.Name)
	return connect.NewResponse(&api.CreateIngredientResponse{
		Ingredient: api.Ingredient{
			ID:              ingredient.ID,
			Name:            ingredient.Name,
			MeasurementUnit: ingredient.MeasurementUnit,
		},
	}), nil
}
