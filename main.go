package main

import (
	"blokmap-server/routes"
	"blokmap-server/storage"
	"blokmap-server/utils"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/exp/slices"
)

func main() {
	// Only load .env in development
	if os.Getenv("RENDER") == "" {
		godotenv.Load()
	}

	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS restricted to the configured origin allow-list
	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	for i := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(allowedOrigins[i])
	}

	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		origin := ctx.GetHeader("Origin")
		if origin != "" && slices.Contains(allowedOrigins, origin) {
			ctx.Header("Access-Control-Allow-Origin", origin)
			ctx.Header("Vary", "Origin")
			ctx.Header("Access-Control-Allow-Credentials", "true")
			ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
			ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		}
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/google", routes.GoogleLoginOrSignUp)
		user.Get("/me", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetMe)
		user.Patch("/update/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUser)
		user.Delete("/delete/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteUser)
		user.Get("/{id:uint}/subjects/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.GetUserSavedSubjects)
		user.Patch("/{id:uint}/subjects/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterUserSavedSubjects)
	}

	restaurant := app.Party("/api/restaurant")
	{
		restaurant.Get("/", routes.ListRestaurants)
		restaurant.Get("/categories", routes.ListRestaurantCategories)
		restaurant.Get("/locations", routes.ListRestaurantLocations)
		restaurant.Get("/{id:uint}", routes.GetRestaurant)
		restaurant.Post("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateRestaurant)
		restaurant.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.UpdateRestaurant)
		restaurant.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteRestaurant)
	}

	spots := app.Party("/api/spots")
	{
		spots.Get("/", routes.ListSpots)
		spots.Get("/categories", routes.ListSpotCategories)
		spots.Get("/locations", routes.ListSpotLocations)
		spots.Get("/{id:uint}", routes.GetSpot)
		spots.Post("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateSpot)
		spots.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.UpdateSpot)
		spots.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteSpot)
	}

	catalogs := app.Party("/api/catalogs")
	{
		catalogs.Get("/", routes.ListCatalogItems)
		catalogs.Get("/{id:uint}", routes.GetCatalogItem)
		catalogs.Get("/restaurant/{id:uint}", routes.GetCatalogByRestaurant)
		catalogs.Post("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateCatalogItem)
		catalogs.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.UpdateCatalogItem)
		catalogs.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteCatalogItem)
	}

	reviews := app.Party("/api/reviews")
	{
		reviews.Get("/", routes.ListReviews)
		reviews.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateReview)
		reviews.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateReview)
		reviews.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteReview)
	}

	articles := app.Party("/api/articles")
	{
		articles.Get("/", routes.ListArticles)
		articles.Get("/{id:uint}", routes.GetArticle)
		articles.Get("/restaurant/{id:uint}", routes.ListRestaurantArticles)
		articles.Get("/spot/{id:uint}", routes.ListSpotArticles)
		articles.Post("/", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.CreateArticle)
		articles.Patch("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.UpdateArticle)
		articles.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware, routes.DeleteArticle)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Patch("/users/{id:uint}/role", routes.AdminChangeUserRole)
		admin.Get("/stats", routes.AdminStats)
		admin.Get("/activity", routes.AdminActivity)
	}

	app.Post("/api/upload", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UploadImage)
	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
