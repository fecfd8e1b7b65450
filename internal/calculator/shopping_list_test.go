package calculator

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildShoppingList(t *testing.T) {
	tests := []struct {
		name    string
		cart    Cart
		want    []ShoppingItem
		wantErr error
	}{
		{
			name: "sums across recipes and sorts by name",
			cart: Cart{
				OwnerID: "alice",
				Recipes: []CartRecipe{
					{ID: "bread", Portions: []Portion{{Name: "Flour", Unit: "g", Amount: 200}}},
					{ID: "cake", Portions: []Portion{
						{Name: "Salt", Unit: "g", Amount: 5},
						{Name: "Flour", Unit: "g", Amount: 300},
					}},
				},
			},
			want: []ShoppingItem{
				{Name: "Flour", Unit: "g", Total: 500},
				{Name: "Salt", Unit: "g", Total: 5},
			},
		},
		{
			name: "empty cart yields empty list",
			cart: Cart{OwnerID: "alice"},
			want: []ShoppingItem{},
		},
		{
			name: "groups by name and unit, not by row",
			cart: Cart{
				OwnerID: "alice",
				Recipes: []CartRecipe{
					{ID: "r1", Portions: []Portion{{Name: "Sugar", Unit: "g", Amount: 10}}},
					{ID: "r2", Portions: []Portion{{Name: "Sugar", Unit: "g", Amount: 20}}},
				},
			},
			want: []ShoppingItem{{Name: "Sugar", Unit: "g", Total: 30}},
		},
		{
			name: "shared portion counts once per recipe",
			cart: Cart{
				OwnerID: "alice",
				Recipes: []CartRecipe{
					{ID: "r1", Portions: []Portion{{Name: "Egg", Unit: "pcs", Amount: 2}}},
					{ID: "r2", Portions: []Portion{{Name: "Egg", Unit: "pcs", Amount: 2}}},
				},
			},
			want: []ShoppingItem{{Name: "Egg", Unit: "pcs", Total: 4}},
		},
		{
			name: "different units stay separate, ordered by unit",
			cart: Cart{
				OwnerID: "alice",
				Recipes: []CartRecipe{
					{ID: "r1", Portions: []Portion{
						{Name: "Milk", Unit: "ml", Amount: 250},
						{Name: "Milk", Unit: "cup", Amount: 1},
					}},
				},
			},
			want: []ShoppingItem{
				{Name: "Milk", Unit: "cup", Total: 1},
				{Name: "Milk", Unit: "ml", Total: 250},
			},
		},
		{
			name: "grouping is case-sensitive",
			cart: Cart{
				OwnerID: "alice",
				Recipes: []CartRecipe{
					{ID: "r1", Portions: []Portion{
						{Name: "salt", Unit: "g", Amount: 1},
						{Name: "Salt", Unit: "g", Amount: 2},
					}},
				},
			},
			want: []ShoppingItem{
				{Name: "Salt", Unit: "g", Total: 2},
				{Name: "salt", Unit: "g", Total: 1},
			},
		},
		{
			name:    "cart of another user",
			cart:    Cart{OwnerID: "bob"},
			wantErr: ErrInvalidState,
		},
		{
			name: "negative amount",
			cart: Cart{
				OwnerID: "alice",
				Recipes: []CartRecipe{{ID: "r1", Portions: []Portion{{Name: "Salt", Unit: "g", Amount: -1}}}},
			},
			wantErr: ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildShoppingList("alice", tt.cart)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BuildShoppingList() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuildShoppingList() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("BuildShoppingList() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBuildShoppingList_OrderIndependent(t *testing.T) {
	a := CartRecipe{ID: "a", Portions: []Portion{{Name: "Flour", Unit: "g", Amount: 100}, {Name: "Egg", Unit: "pcs", Amount: 1}}}
	b := CartRecipe{ID: "b", Portions: []Portion{{Name: "Egg", Unit: "pcs", Amount: 3}, {Name: "Butter", Unit: "g", Amount: 50}}}

	first, err := BuildShoppingList("alice", Cart{OwnerID: "alice", Recipes: []CartRecipe{a, b}})
	if err != nil {
		t.Fatalf("BuildShoppingList failed: %v", err)
	}
	second, err := BuildShoppingList("alice", Cart{OwnerID: "alice", Recipes: []CartRecipe{b, a}})
	if err != nil {
		t.Fatalf("BuildShoppingList failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("result depends on recipe order: %+v vs %+v", first, second)
	}
	if first[0].Name != "Butter" || first[1].Name != "Egg" || first[1].Total != 4 {
		t.Errorf("unexpected list: %+v", first)
	}
}
