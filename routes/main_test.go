package routes

import (
	"blokmap-server/utils"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

// buildTestApp assembles a minimal app with the review, catalog, user and
// admin surfaces behind a real JWT verifier. Validation and authorization
// tests run it without a database; handler round-trips call setupTestDB
// first.
func buildTestApp() *iris.Application {
	os.Setenv("ACCESS_TOKEN_SECRET", "testsecret")
	os.Setenv("REFRESH_TOKEN_SECRET", "testrefreshsecret")
	app := iris.New()
	app.Validator = validator.New()

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	reviews := app.Party("/api/reviews")
	{
		reviews.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, CreateReview)
		reviews.Get("/", ListReviews)
	}

	articles := app.Party("/api/articles")
	{
		articles.Get("/", ListArticles)
	}

	user := app.Party("/api/user")
	{
		user.Post("/register", Register)
		user.Post("/login", Login)
		user.Patch("/update/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDMiddleware, UpdateUser)
	}

	catalogs := app.Party("/api/catalogs")
	{
		catalogs.Get("/restaurant/{id:uint}", GetCatalogByRestaurant)
	}

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/ping", func(ctx iris.Context) {
			ctx.JSON(iris.Map{"success": true, "message": "pong", "data": nil})
		})
	}

	if err := app.Build(); err != nil {
		panic(err)
	}
	return app
}

func signTestToken(id uint, role string) string {
	signer := jwt.NewSigner(jwt.HS256, os.Getenv("ACCESS_TOKEN_SECRET"), time.Hour)
	token, _ := signer.Sign(utils.AccessToken{ID: id, Role: role})
	return string(token)
}

func doJSON(t *testing.T, app *iris.Application, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)
	return resp
}
