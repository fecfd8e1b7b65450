package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/foodgram/internal/auth"
	"github.com/mmynk/foodgram/internal/middleware"
	"github.com/mmynk/foodgram/internal/render"
	"github.com/mmynk/foodgram/internal/storage/sqlite"
	"github.com/mmynk/foodgram/pkg/api"
)

const (
	testPassword   = "s3cret-pass"
	testAdminEmail = "admin@example.com"
)

// testEnv is a full server over a temporary database.
type testEnv struct {
	t        *testing.T
	server   *httptest.Server
	jwt      *auth.JWTManager
	store    *sqlite.SQLiteStore
	metrics  *middleware.Metrics
	shopping *ShoppingListService

	tags int
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store, testAdminEmail)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := middleware.NewMetrics()
	opts := connect.WithInterceptors(middleware.OptionalAuth(jwtManager), metrics.Interceptor())

	mux := http.NewServeMux()
	mux.Handle(NewAuthServiceHandler(NewAuthService(authenticator, jwtManager, store, logger), opts))
	mux.Handle(NewUserServiceHandler(NewUserService(store), opts))
	mux.Handle(NewCatalogServiceHandler(NewCatalogService(store), opts))
	mux.Handle(NewRecipeServiceHandler(NewRecipeService(store), opts))

	font, err := render.DefaultFont()
	if err != nil {
		t.Fatalf("failed to load font: %v", err)
	}
	shopping := NewShoppingListService(store, render.New(font), metrics)
	RegisterDownloadRoutes(mux, jwtManager, shopping)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{t: t, server: server, jwt: jwtManager, store: store, metrics: metrics, shopping: shopping}
}

// call invokes one procedure, authenticating with token when it is not empty.
func call[Res, Req any](env *testEnv, procedure, token string, msg *Req) (*Res, error) {
	env.t.Helper()
	client := api.NewClient[Req, Res](http.DefaultClient, env.server.URL, procedure)
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	resp, err := client.CallUnary(context.Background(), req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// mustCall is call for requests expected to succeed.
func mustCall[Res, Req any](env *testEnv, procedure, token string, msg *Req) *Res {
	env.t.Helper()
	res, err := call[Res](env, procedure, token, msg)
	if err != nil {
		env.t.Fatalf("%s failed: %v", procedure, err)
	}
	return res
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got no error", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Fatalf("expected %v, got %v (%v)", want, got, err)
	}
}

// register signs up username@example.com and returns its token and user ID.
func (env *testEnv) register(username string) (string, string) {
	env.t.Helper()
	email := username + "@example.com"
	resp := mustCall[api.RegisterResponse](env, api.AuthServiceRegisterProcedure, "", &api.RegisterRequest{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  username,
		Password:  testPassword,
	})
	return resp.Token, resp.User.ID
}

func (env *testEnv) admin() string {
	env.t.Helper()
	token, _ := env.register("admin")
	return token
}

func (env *testEnv) ingredient(adminToken, name, unit string) string {
	env.t.Helper()
	resp := mustCall[api.CreateIngredientResponse](env, api.CatalogServiceCreateIngredientProcedure, adminToken,
		&api.CreateIngredientRequest{Name: name, MeasurementUnit: unit})
	return resp.Ingredient.ID
}

func (env *testEnv) tag(adminToken, name, slug string) string {
	env.t.Helper()
	env.tags++
	resp := mustCall[api.CreateTagResponse](env, api.CatalogServiceCreateTagProcedure, adminToken,
		&api.CreateTagRequest{Name: name, Color: fmt.Sprintf("#%06X", env.tags), Slug: slug})
	return resp.Tag.ID
}

func (env *testEnv) recipe(token, name, tagID string, ingredients ...api.IngredientAmount) api.Recipe {
	env.t.Helper()
	resp := mustCall[api.CreateRecipeResponse](env, api.RecipeServiceCreateRecipeProcedure, token, &api.CreateRecipeRequest{
		Ingredients: ingredients,
		Tags:        []string{tagID},
		Image:       "data:image/png;base64,iVBORw0KGgo=",
		Name:        name,
		Text:        "Mix and cook.",
		CookingTime: 30,
	})
	return resp.Recipe
}

func (env *testEnv) addToCart(token, recipeID string) {
	env.t.Helper()
	mustCall[api.RecipeActionResponse](env, api.RecipeServiceAddToShoppingCartProcedure, token,
		&api.RecipeActionRequest{RecipeID: recipeID})
}

// download fetches path with token and returns the response and its body.
func (env *testEnv) download(token, path string) (*http.Response, []byte) {
	env.t.Helper()
	req, err := http.NewRequest(http.MethodGet, env.server.URL+path, nil)
	if err != nil {
		env.t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		env.t.Fatalf("failed to read body: %v", err)
	}
	return resp, body
}
