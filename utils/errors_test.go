package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, handler iris.Handler, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	app := iris.New()
	app.Get("/t", handler)
	if err := app.Build(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, target, nil)
	resp := httptest.NewRecorder()
	app.ServeHTTP(resp, req)

	var env envelope
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v", err)
	}
	return resp, env
}

func TestCreateErrorEnvelope(t *testing.T) {
	resp, env := serve(t, func(ctx iris.Context) {
		CreateError(iris.StatusConflict, "Email already registered.", ctx)
	}, "/t")

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.Code)
	}
	if env.Success {
		t.Fatal("expected success=false")
	}
	if env.Message != "Email already registered." {
		t.Fatalf("unexpected message %q", env.Message)
	}
}

func TestJSONDataEnvelope(t *testing.T) {
	resp, env := serve(t, func(ctx iris.Context) {
		JSONData(ctx, "ok", iris.Map{"value": 1})
	}, "/t")

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !env.Success {
		t.Fatal("expected success=true")
	}
	if len(env.Data) == 0 {
		t.Fatal("expected data payload")
	}
}

func TestHandleValidationErrorsDetails(t *testing.T) {
	type input struct {
		Rating float64 `validate:"required,gte=1,lte=5"`
	}
	err := validator.New().Struct(input{Rating: 9})

	resp, env := serve(t, func(ctx iris.Context) {
		HandleValidationErrors(err, ctx)
	}, "/t")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if env.Success {
		t.Fatal("expected success=false")
	}

	var details []struct {
		Field string `json:"field"`
		Tag   string `json:"tag"`
	}
	if err := json.Unmarshal(env.Data, &details); err != nil {
		t.Fatalf("expected field details in data: %v", err)
	}
	if len(details) != 1 || details[0].Tag != "lte" {
		t.Fatalf("unexpected details %+v", details)
	}
}

func TestHandleValidationErrorsMalformedBody(t *testing.T) {
	resp, env := serve(t, func(ctx iris.Context) {
		HandleValidationErrors(json.Unmarshal([]byte("{"), &struct{}{}), ctx)
	}, "/t")

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if env.Success {
		t.Fatal("expected success=false")
	}
}
