package routes

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB swaps storage.DB for an in-memory sqlite database with the full
// schema, so handlers run end to end without postgres. Redis is initialized
// once; token persistence failures are ignored by the signer, so no live
// redis is needed either.
func setupTestDB(t *testing.T) {
	t.Helper()

	if storage.Redis == nil {
		storage.Redis = redis.NewClient(&redis.Options{
			Addr:        "localhost:6379",
			DialTimeout: 100 * time.Millisecond,
			MaxRetries:  -1,
		})
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("could not open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Subject{},
		&models.CatalogItem{},
		&models.Review{},
		&models.Article{},
		&models.Category{},
		&models.Location{},
		&models.AuditLog{},
	); err != nil {
		t.Fatalf("could not migrate test database: %v", err)
	}

	storage.DB = db
	t.Cleanup(func() { storage.DB = nil })
}

func TestRegisterConflictThenLogin(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp()

	first := `{"username":"rani","firstName":"Rani","lastName":"S","email":"rani@example.com","password":"password123"}`
	resp := doJSON(t, app, http.MethodPost, "/api/user/register", "", first)
	if resp.Code != http.StatusOK {
		t.Fatalf("first register: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, app, http.MethodPost, "/api/user/register", "", first)
	if resp.Code != http.StatusConflict {
		t.Fatalf("duplicate email: expected 409, got %d", resp.Code)
	}
	var conflict struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &conflict); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if conflict.Success || conflict.Message != "Email already registered." {
		t.Fatalf("unexpected conflict envelope %+v", conflict)
	}

	fresh := `{"username":"dimas","firstName":"Dimas","lastName":"P","email":"dimas@example.com","password":"password123"}`
	resp = doJSON(t, app, http.MethodPost, "/api/user/register", "", fresh)
	if resp.Code != http.StatusOK {
		t.Fatalf("fresh register: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	resp = doJSON(t, app, http.MethodPost, "/api/user/login", "", `{"email":"dimas@example.com","password":"password123"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var login struct {
		Success bool `json:"success"`
		Data    struct {
			Email       string `json:"email"`
			AccessToken string `json:"accessToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &login); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !login.Success || login.Data.Email != "dimas@example.com" || login.Data.AccessToken == "" {
		t.Fatalf("unexpected login envelope %+v", login)
	}
}

func TestCatalogEmptyForExistingRestaurant(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp()

	restaurant := models.Subject{Kind: models.KindRestaurant, Name: "Gyukatsu Melawai"}
	if err := storage.DB.Create(&restaurant).Error; err != nil {
		t.Fatal(err)
	}

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/catalogs/restaurant/%d", restaurant.ID), "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for restaurant without items, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !envelope.Success {
		t.Fatal("expected success=true")
	}
	if !bytes.HasPrefix(bytes.TrimSpace(envelope.Data), []byte("[")) {
		t.Fatalf("data must be an array, not %s", envelope.Data)
	}
	var items []models.CatalogItem
	if err := json.Unmarshal(envelope.Data, &items); err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty collection, got %d items", len(items))
	}

	resp = doJSON(t, app, http.MethodGet, "/api/catalogs/restaurant/999999", "", "")
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing restaurant, got %d", resp.Code)
	}
}

func TestCreateReviewListRoundTrip(t *testing.T) {
	setupTestDB(t)
	app := buildTestApp()

	user := models.User{Username: "rani", FirstName: "Rani", LastName: "S", Email: "rani@example.com"}
	if err := storage.DB.Create(&user).Error; err != nil {
		t.Fatal(err)
	}
	subject := models.Subject{Kind: models.KindSpot, Name: "M Bloc Space"}
	if err := storage.DB.Create(&subject).Error; err != nil {
		t.Fatal(err)
	}

	token := signTestToken(user.ID, "user")
	body := fmt.Sprintf(`{"kind":"spot","subjectID":%d,"content":"tempat nongkrong favorit","rating":4.5}`, subject.ID)

	resp := doJSON(t, app, http.MethodPost, "/api/reviews", token, body)
	if resp.Code != http.StatusOK {
		t.Fatalf("create review: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Second review of the same subject by the same user is rejected
	resp = doJSON(t, app, http.MethodPost, "/api/reviews", token, body)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("duplicate review: expected 400, got %d", resp.Code)
	}

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/reviews?kind=spot&subject_id=%d", subject.ID), "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("list reviews: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var listing struct {
		Success bool `json:"success"`
		Data    struct {
			Reviews       []ReviewResponse `json:"reviews"`
			AverageRating float64          `json:"averageRating"`
			ReviewCount   int64            `json:"reviewCount"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &listing); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if !listing.Success || len(listing.Data.Reviews) != 1 {
		t.Fatalf("expected one review, got %+v", listing.Data)
	}

	got := listing.Data.Reviews[0]
	if got.Content != "tempat nongkrong favorit" {
		t.Fatalf("unexpected content %q", got.Content)
	}
	if got.Rating != 4.5 {
		t.Fatalf("unexpected rating %v", got.Rating)
	}
	if got.Author.Username != "rani" {
		t.Fatalf("unexpected author %q", got.Author.Username)
	}
	if got.SubjectName != "M Bloc Space" {
		t.Fatalf("unexpected subject name %q", got.SubjectName)
	}
	if listing.Data.AverageRating != 4.5 || listing.Data.ReviewCount != 1 {
		t.Fatalf("unexpected aggregate %v / %d", listing.Data.AverageRating, listing.Data.ReviewCount)
	}
}
