package service

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/foodgram/internal/calculator"
	"github.com/mmynk/foodgram/internal/models"
	"github.com/mmynk/foodgram/internal/render"
	"github.com/mmynk/foodgram/pkg/api"
)

// shoppingFixture is a cook with three recipes:
//
//	Pancakes: flour 200 g, milk 300 ml, salt 5 g
//	Crepes:   flour 200 g (same row as Pancakes), milk 250 ml
//	Bread:    flour 500 g, Salt 5 g, salt 5 g
//
// Bread's two salts are separate ingredient rows from the one in Pancakes.
type shoppingFixture struct {
	token    string
	pancakes string
	crepes   string
	bread    string
}

func newShoppingFixture(env *testEnv) shoppingFixture {
	env.t.Helper()
	admin := env.admin()
	tagID := env.tag(admin, "Baking", "baking")
	flour := env.ingredient(admin, "flour", "g")
	milk := env.ingredient(admin, "milk", "ml")
	salt := env.ingredient(admin, "salt", "g")
	saltAgain := env.ingredient(admin, "salt", "g")
	capitalSalt := env.ingredient(admin, "Salt", "g")

	token, _ := env.register("cook")
	return shoppingFixture{
		token: token,
		pancakes: env.recipe(token, "Pancakes", tagID,
			api.IngredientAmount{ID: flour, Amount: 200},
			api.IngredientAmount{ID: milk, Amount: 300},
			api.IngredientAmount{ID: salt, Amount: 5},
		).ID,
		crepes: env.recipe(token, "Crepes", tagID,
			api.IngredientAmount{ID: flour, Amount: 200},
			api.IngredientAmount{ID: milk, Amount: 250},
		).ID,
		bread: env.recipe(token, "Bread", tagID,
			api.IngredientAmount{ID: flour, Amount: 500},
			api.IngredientAmount{ID: capitalSalt, Amount: 5},
			api.IngredientAmount{ID: saltAgain, Amount: 5},
		).ID,
	}
}

func TestDownloadShoppingList_Text(t *testing.T) {
	env := newTestEnv(t)
	fx := newShoppingFixture(env)
	for _, id := range []string{fx.bread, fx.crepes, fx.pancakes} {
		env.addToCart(fx.token, id)
	}

	resp, body := env.download(fx.token, DownloadShoppingCartPath)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}

	// The shared flour 200 g row counts once per recipe; both lowercase salt
	// rows merge; "Salt" stays separate and sorts first.
	want := "Salt (g) — 5\r\n" +
		"flour (g) — 900\r\n" +
		"milk (ml) — 550\r\n" +
		"salt (g) — 10\r\n"
	if string(body) != want {
		t.Errorf("unexpected shopping list:\nwant %q\ngot  %q", want, body)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="shopping_list.txt"` {
		t.Errorf("Content-Disposition: got %q", cd)
	}
}

func TestDownloadShoppingList_Deterministic(t *testing.T) {
	env := newTestEnv(t)
	fx := newShoppingFixture(env)
	env.addToCart(fx.token, fx.pancakes)
	env.addToCart(fx.token, fx.crepes)

	for _, path := range []string{DownloadShoppingCartPath, DownloadShoppingCartPDFPath} {
		_, first := env.download(fx.token, path)
		_, second := env.download(fx.token, path)
		if !bytes.Equal(first, second) {
			t.Errorf("%s: repeated downloads differ", path)
		}
	}
}

func TestDownloadShoppingList_PDF(t *testing.T) {
	env := newTestEnv(t)
	fx := newShoppingFixture(env)
	env.addToCart(fx.token, fx.pancakes)

	resp, body := env.download(fx.token, DownloadShoppingCartPDFPath)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if !bytes.HasPrefix(body, []byte("%PDF-")) {
		t.Errorf("expected a PDF document, got %q", body[:min(len(body), 16)])
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type: got %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != `attachment; filename="shopping_list.pdf"` {
		t.Errorf("Content-Disposition: got %q", cd)
	}
	if got := testutil.ToFloat64(env.metrics.DownloadCounter("pdf", "ok")); got != 1 {
		t.Errorf("pdf download counter: expected 1, got %v", got)
	}
}

func TestDownloadShoppingList_EmptyCart(t *testing.T) {
	env := newTestEnv(t)
	fx := newShoppingFixture(env)

	// No cart yet.
	resp, body := env.download(fx.token, DownloadShoppingCartPath)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("without a cart: expected 400, got %d", resp.StatusCode)
	}
	if !bytes.Contains(body, []byte(calculator.ErrEmptyCart.Error())) {
		t.Errorf("expected the empty cart message, got %q", body)
	}

	// A cart that was emptied again.
	env.addToCart(fx.token, fx.bread)
	mustCall[api.RecipeActionResponse](env, api.RecipeServiceRemoveFromShoppingCartProcedure, fx.token,
		&api.RecipeActionRequest{RecipeID: fx.bread})
	resp, _ = env.download(fx.token, DownloadShoppingCartPDFPath)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("emptied cart: expected 400, got %d", resp.StatusCode)
	}

	if got := testutil.ToFloat64(env.metrics.DownloadCounter("txt", "empty_cart")); got != 1 {
		t.Errorf("empty cart counter: expected 1, got %v", got)
	}
}

func TestDownloadShoppingList_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.download("", DownloadShoppingCartPath)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
	resp, _ = env.download("not-a-token", DownloadShoppingCartPDFPath)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestDownloadShoppingList_RefusesBlockedUser(t *testing.T) {
	env := newTestEnv(t)
	fx := newShoppingFixture(env)
	env.addToCart(fx.token, fx.pancakes)
	me := mustCall[api.GetCurrentUserResponse](env, api.AuthServiceGetCurrentUserProcedure, fx.token, &api.GetCurrentUserRequest{})

	admin := mustCall[api.LoginResponse](env, api.AuthServiceLoginProcedure, "", &api.LoginRequest{
		Email:    testAdminEmail,
		Password: testPassword,
	}).Token
	mustCall[api.BlockUserResponse](env, api.UserServiceBlockUserProcedure, admin, &api.BlockUserRequest{UserID: me.User.ID, Blocked: true})

	// The token was issued before the block and is still valid.
	for _, path := range []string{DownloadShoppingCartPath, DownloadShoppingCartPDFPath} {
		resp, _ := env.download(fx.token, path)
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: expected 403 for blocked user, got %d", path, resp.StatusCode)
		}
	}

	mustCall[api.BlockUserResponse](env, api.UserServiceBlockUserProcedure, admin, &api.BlockUserRequest{UserID: me.User.ID, Blocked: false})
	resp, _ := env.download(fx.token, DownloadShoppingCartPath)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after unblock, got %d", resp.StatusCode)
	}
}

func TestDownloadShoppingList_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	token, err := env.jwt.Generate(&models.User{ID: "deleted-user", Email: "gone@example.com"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	resp, _ := env.download(token, DownloadShoppingCartPath)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unknown user, got %d", resp.StatusCode)
	}
}

func TestDownloadShoppingList_OnlyOwnCart(t *testing.T) {
	env := newTestEnv(t)
	fx := newShoppingFixture(env)
	env.addToCart(fx.token, fx.pancakes)

	other, _ := env.register("other")
	env.addToCart(other, fx.bread)

	_, body := env.download(other, DownloadShoppingCartPath)
	want := "Salt (g) — 5\r\nflour (g) — 500\r\nsalt (g) — 5\r\n"
	if string(body) != want {
		t.Errorf("expected only the caller's cart, got %q", body)
	}
}

func TestShoppingListService_Download(t *testing.T) {
	env := newTestEnv(t)
	fx := newShoppingFixture(env)
	ctx := context.Background()

	me := mustCall[api.GetCurrentUserResponse](env, api.AuthServiceGetCurrentUserProcedure, fx.token, &api.GetCurrentUserRequest{})
	userID := me.User.ID

	_, err := env.shopping.Download(ctx, userID, render.FormatPlainText)
	if !errors.Is(err, calculator.ErrEmptyCart) {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}

	env.addToCart(fx.token, fx.crepes)
	doc, err := env.shopping.Download(ctx, userID, render.FormatPlainText)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	if doc.Filename != "shopping_list.txt" || string(doc.Body) != "flour (g) — 200\r\nmilk (ml) — 250\r\n" {
		t.Errorf("unexpected document: %s %q", doc.Filename, doc.Body)
	}

	// Without a font the paged document cannot be produced.
	noFont := NewShoppingListService(env.store, render.New(nil), nil)
	_, err = noFont.Download(ctx, userID, render.FormatPagedDocument)
	if !errors.Is(err, render.ErrResourceMissing) {
		t.Errorf("expected ErrResourceMissing, got %v", err)
	}
}
