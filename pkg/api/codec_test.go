package api

import (
	"strings"
	"testing"
)

func TestCodec_UsesSnakeCaseFields(t *testing.T) {
	data, err := Codec{}.Marshal(&Recipe{
		ID:               "r1",
		IsInShoppingCart: true,
		CookingTime:      15,
		Author:           User{ID: "u1", IsSubscribed: true},
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	for _, field := range []string{`"is_in_shopping_cart":true`, `"cooking_time":15`, `"is_subscribed":true`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("expected %s in %s", field, data)
		}
	}
}

func TestCodec_SubscriptionFlattensUser(t *testing.T) {
	data, err := Codec{}.Marshal(&Subscription{User: User{ID: "u1", Username: "chef"}, RecipesCount: 2})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"username":"chef"`) || strings.Contains(string(data), `"User"`) {
		t.Errorf("expected user fields at the top level, got %s", data)
	}
}

func TestCodec_EmptyBody(t *testing.T) {
	var req ListRecipesRequest
	if err := (Codec{}).Unmarshal(nil, &req); err != nil {
		t.Fatalf("Unmarshal of an empty body failed: %v", err)
	}
	if req.Limit != 0 || req.Page != 0 {
		t.Errorf("expected the zero request, got %+v", req)
	}

	if err := (Codec{}).Unmarshal([]byte(`{"tags":["breakfast"],"limit":3}`), &req); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if req.Limit != 3 || len(req.Tags) != 1 || req.Tags[0] != "breakfast" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestCodec_Name(t *testing.T) {
	if (Codec{}).Name() != "json" {
		t.Errorf("codec must replace the built-in json codec, got %q", Codec{}.Name())
	}
}
