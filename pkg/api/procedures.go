package api

// Fully-qualified service names.
const (
	AuthServiceName    = "foodgram.v1.AuthService"
	UserServiceName    = "foodgram.v1.UserService"
	CatalogServiceName = "foodgram.v1.CatalogService"
	RecipeServiceName  = "foodgram.v1.RecipeService"
)

// Procedure paths, "/<service>/<method>".
const (
	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"

	UserServiceGetUserProcedure           = "/" + UserServiceName + "/GetUser"
	UserServiceSubscribeProcedure         = "/" + UserServiceName + "/Subscribe"
	UserServiceUnsubscribeProcedure       = "/" + UserServiceName + "/Unsubscribe"
	UserServiceListSubscriptionsProcedure = "/" + UserServiceName + "/ListSubscriptions"
	UserServiceBlockUserProcedure         = "/" + UserServiceName + "/BlockUser"

	CatalogServiceListTagsProcedure         = "/" + CatalogServiceName + "/ListTags"
	CatalogServiceCreateTagProcedure        = "/" + CatalogServiceName + "/CreateTag"
	CatalogServiceListIngredientsProcedure  = "/" + CatalogServiceName + "/ListIngredients"
	CatalogServiceCreateIngredientProcedure = "/" + CatalogServiceName + "/CreateIngredient"

	RecipeServiceCreateRecipeProcedure           = "/" + RecipeServiceName + "/CreateRecipe"
	RecipeServiceGetRecipeProcedure              = "/" + RecipeServiceName + "/GetRecipe"
	RecipeServiceListRecipesProcedure            = "/" + RecipeServiceName + "/ListRecipes"
	RecipeServiceUpdateRecipeProcedure           = "/" + RecipeServiceName + "/UpdateRecipe"
	RecipeServiceDeleteRecipeProcedure           = "/" + RecipeServiceName + "/DeleteRecipe"
	RecipeServiceAddFavoriteProcedure            = "/" + RecipeServiceName + "/AddFavorite"
	RecipeServiceRemoveFavoriteProcedure         = "/" + RecipeServiceName + "/RemoveFavorite"
	RecipeServiceAddToShoppingCartProcedure      = "/" + RecipeServiceName + "/AddToShoppingCart"
	RecipeServiceRemoveFromShoppingCartProcedure = "/" + RecipeServiceName + "/RemoveFromShoppingCart"
)
