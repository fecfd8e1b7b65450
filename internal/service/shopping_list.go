package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/calculator"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/render"
	"github.com/mmynk/foodgram/internal/storage"
)

// Download endpoints. Both require a bearer token.
const (
	DownloadShoppingCartPath    = "/api/recipes/download_shopping_cart/"
	DownloadShoppingCartPDFPath = "/api/recipes/download_shopping_cart/pdf/"
)

// Document is a rendered shopping list ready to be served as an attachment.
type Document struct {
	Body        []byte
	ContentType string
	Filename    string
}

// ShoppingListService aggregates a user's shopping cart into a downloadable list.
type ShoppingListService struct {
	store    storage.Store
	renderer *render.Renderer
	metrics  *middleware.Metrics
}

// NewShoppingListService creates a ShoppingListService. metrics may be nil.
func NewShoppingListService(store storage.Store, renderer *render.Renderer, metrics *middleware.Metrics) *ShoppingListService {
	return &ShoppingListService{store: store, renderer: renderer, metrics: metrics}
}

// Download builds and renders userID's shopping list. It fails with
// calculator.ErrEmptyCart when the user has no cart or the cart holds no recipes.
func (s *ShoppingListService) Download(ctx context.Context, userID string, format render.Format) (*Document, error) {
	cart, err := s.store.GetShoppingCart(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, calculator.ErrEmptyCart
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping cart: %w", err)
	}
	if len(cart.Recipes) == 0 {
		return nil, calculator.ErrEmptyCart
	}

	items, err := calculator.BuildShoppingList(userID, toCalculatorCart(cart))
	if err != nil {
		return nil, err
	}

	body, err := s.renderer.Render(items, format)
	if err != nil {
		return nil, err
	}

	return &Document{
		Body:        body,
		ContentType: format.ContentType(),
		Filename:    format.Filename(),
	}, nil
}

func toCalculatorCart(cart *models.ShoppingCart) calculator.Cart {
	out := calculator.Cart{
		OwnerID: cart.OwnerID,
		Recipes: make([]calculator.CartRecipe, 0, len(cart.Recipes)),
	}
	for _, recipe := range cart.Recipes {
		cr := calculator.CartRecipe{
			ID:       recipe.ID,
			Portions: make([]calculator.Portion, 0, len(recipe.Ingredients)),
		}
		for _, ia := range recipe.Ingredients {
			cr.Portions = append(cr.Portions, calculator.Portion{
				Name:   ia.Name,
				Unit:   ia.MeasurementUnit,
				Amount: ia.Amount,
			})
		}
		out.Recipes = append(out.Recipes, cr)
	}
	return out
}

// DownloadHandler serves the caller's shopping list in format. It must sit
// behind middleware.RequireAuthHTTP.
func (s *ShoppingListService) DownloadHandler(format render.Format) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == "" {
			http.Error(w, auth.ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}

		// Blocked accounts are refused even while their token is valid.
		user, err := s.store.GetUserByID(r.Context(), userID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			http.Error(w, auth.ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		case err != nil:
			slog.Error("Failed to load user for download", "user_id", userID, "error", err)
			http.Error(w, "failed to load user", http.StatusInternalServerError)
			return
		case user.IsBlocked:
			http.Error(w, auth.ErrUserBlocked.Error(), http.StatusForbidden)
			return
		}

		doc, err := s.Download(r.Context(), userID, format)
		if err != nil {
			s.observe(format, err)
			switch {
			case errors.Is(err, calculator.ErrEmptyCart):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				slog.Error("Shopping list download failed", "user_id", userID, "format", format.String(), "error", err)
				http.Error(w, "failed to build shopping list", http.StatusInternalServerError)
			}
			return
		}
		s.observe(format, nil)

		w.Header().Set("Content-Type", doc.ContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(doc.Body)))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			w.Write(doc.Body)
		}
		slog.Info("Shopping list downloaded", "user_id", userID, "format", format.String(), "bytes", len(doc.Body))
	})
}

func (s *ShoppingListService) observe(format render.Format, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	switch {
	case errors.Is(err, calculator.ErrEmptyCart):
		outcome = "empty_cart"
	case err != nil:
		outcome = "error"
	}
	s.metrics.ObserveDownload(format.String(), outcome)
}

// RegisterDownloadRoutes mounts the authenticated download endpoints on mux.
func RegisterDownloadRoutes(mux *http.ServeMux, jwtManager *auth.JWTManager, svc *ShoppingListService) {
	mux.Handle("GET "+DownloadShoppingCartPath+"{$}",
		middleware.RequireAuthHTTP(jwtManager, svc.DownloadHandler(render.FormatPlainText)))
	mux.Handle("GET "+DownloadShoppingCartPDFPath+"{$}",
		middleware.RequireAuthHTTP(jwtManager, svc.DownloadHandler(render.FormatPagedDocument)))
}
