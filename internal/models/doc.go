// Package models defines the core domain models for Foodgram.
//
// # Models
//
//   - User: registered account; authors recipes and follows other users
//   - Ingredient: a named product with a measurement unit (e.g. "Flour", "g")
//   - IngredientAmount: a reusable (ingredient, amount) pair shared between recipes
//   - Tag: a recipe label with a color and slug
//   - Recipe: a dish with ingredient amounts and tags
//   - ShoppingCart: the per-user set of recipes slated for the shopping list
//   - Favorite, Follow: per-user bookmarks and subscriptions
//
// # Design Principles
//
// 1. **Plain structs**: models carry no persistence or transport behavior
// 2. **Avoid circular references**: relationships are ID strings, except where a
// read model embeds what callers always need (recipe ingredients and tags)
// 3. **Shared amounts**: an IngredientAmount row is unique per (ingredient, amount)
// and may be linked from many recipes
package models
