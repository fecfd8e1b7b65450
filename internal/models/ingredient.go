package models

// Ingredient is a product that recipes use, measured in a fixed unit.
// Name and unit together are not unique: two rows may both be ("Sugar", "g").
type Ingredient struct {
	ID              string
	Name            string
	MeasurementUnit string
}

// IngredientAmount is a quantity of one ingredient.
// Rows are unique per (IngredientID, Amount) and shared by every recipe
// that needs exactly that quantity.
type IngredientAmount struct {
	ID           string
	IngredientID string
	Amount       int

	// Name and MeasurementUnit are denormalized from the ingredient on read.
	Name            string
	MeasurementUnit string
}

// Tag labels recipes (e.g. "Breakfast").
type Tag struct {
	ID    string
	Name  string
	Color string // HEX code, e.g. "#E26C2D"
	Slug  string
}
