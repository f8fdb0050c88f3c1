package routes

import (
	"blokmap-server/models"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
)

func TestMeanRating(t *testing.T) {
	cases := []struct {
		name    string
		ratings []float64
		want    float64
	}{
		{"three ratings", []float64{5, 4, 3}, 4.0},
		{"no reviews", nil, 0},
		{"single", []float64{3.5}, 3.5},
		{"rounds to one decimal", []float64{1, 1, 2}, 1.3},
		{"fractional inputs", []float64{4.5, 5}, 4.8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reviews := make([]models.Review, 0, len(tc.ratings))
			for _, r := range tc.ratings {
				reviews = append(reviews, models.Review{Rating: r})
			}
			if got := meanRating(reviews); got != tc.want {
				t.Fatalf("meanRating(%v) = %v, want %v", tc.ratings, got, tc.want)
			}
		})
	}
}

func TestCanModifyReview(t *testing.T) {
	review := &models.Review{UserID: 7}

	if !canModifyReview(review, 7, "user") {
		t.Fatal("author should be able to modify their review")
	}
	if canModifyReview(review, 8, "user") {
		t.Fatal("another user should not be able to modify the review")
	}
	if !canModifyReview(review, 8, "admin") {
		t.Fatal("admin should be able to modify any review")
	}
}

func TestCreateReviewRequiresAuth(t *testing.T) {
	app := buildTestApp()

	body := `{"kind":"restaurant","subjectID":1,"content":"enak banget","rating":5}`
	resp := doJSON(t, app, http.MethodPost, "/api/reviews", "", body)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestCreateReviewRatingBounds(t *testing.T) {
	app := buildTestApp()
	token := signTestToken(1, "user")

	for _, rating := range []float64{0, 5.1, -1} {
		body := fmt.Sprintf(`{"kind":"restaurant","subjectID":1,"content":"ok","rating":%v}`, rating)
		resp := doJSON(t, app, http.MethodPost, "/api/reviews", token, body)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("rating %v: expected 400, got %d", rating, resp.Code)
		}

		var envelope struct {
			Success bool `json:"success"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("rating %v: invalid JSON response: %v", rating, err)
		}
		if envelope.Success {
			t.Fatalf("rating %v: expected success=false", rating)
		}
	}

	// Fractional in-range ratings pass validation (and then fail later on
	// the subject lookup, which is not wired in this test app)
	resp := doJSON(t, app, http.MethodPost, "/api/reviews", token, `{"kind":"mall","subjectID":1,"content":"ok","rating":4.5}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("invalid kind: expected 400, got %d", resp.Code)
	}
}

func TestCreateReviewEmptyContent(t *testing.T) {
	app := buildTestApp()
	token := signTestToken(1, "user")

	resp := doJSON(t, app, http.MethodPost, "/api/reviews", token, `{"kind":"restaurant","subjectID":1,"content":"","rating":4}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", resp.Code)
	}
}

func TestCreateReviewInvalidKind(t *testing.T) {
	app := buildTestApp()
	token := signTestToken(1, "user")

	resp := doJSON(t, app, http.MethodPost, "/api/reviews", token, `{"kind":"mall","subjectID":1,"content":"ok","rating":3}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid kind, got %d", resp.Code)
	}
}

func TestListReviewsRejectsBrokenSubjectFilter(t *testing.T) {
	app := buildTestApp()

	// kind without subject_id
	resp := doJSON(t, app, http.MethodGet, "/api/reviews?kind=restaurant", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for kind without subject_id, got %d", resp.Code)
	}

	// subject_id with an invalid kind
	resp = doJSON(t, app, http.MethodGet, "/api/reviews?kind=mall&subject_id=1", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid kind, got %d", resp.Code)
	}

	// subject_id without kind
	resp = doJSON(t, app, http.MethodGet, "/api/reviews?subject_id=1", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for subject_id without kind, got %d", resp.Code)
	}
}

func TestListArticlesRejectsBrokenSubjectFilter(t *testing.T) {
	app := buildTestApp()

	resp := doJSON(t, app, http.MethodGet, "/api/articles?kind=mall&subject_id=1", "", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid kind, got %d", resp.Code)
	}
}
