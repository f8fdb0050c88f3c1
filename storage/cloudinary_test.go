package storage

import (
	"errors"
	"os"
	"testing"
)

func clearCloudinaryEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET", "CLOUDINARY_FOLDER"} {
		os.Unsetenv(key)
	}
}

func TestUploadRejectsEmptyPayload(t *testing.T) {
	clearCloudinaryEnv(t)

	if _, err := UploadBase64Image("", "x"); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestUploadFailsWithoutCredentials(t *testing.T) {
	clearCloudinaryEnv(t)

	_, err := UploadBase64Image("data:image/jpeg;base64,AAAA", "x")
	if !errors.Is(err, ErrUploadNotConfigured) {
		t.Fatalf("expected ErrUploadNotConfigured, got %v", err)
	}
}

func TestDeleteRejectsForeignURL(t *testing.T) {
	clearCloudinaryEnv(t)

	if err := DeleteImage("https://example.com/image.jpg"); err == nil {
		t.Fatal("expected error for non-cloudinary URL")
	}
}

func TestSignRequestIsDeterministic(t *testing.T) {
	a := signRequest("folder/pic", "1700000000", "secret")
	b := signRequest("folder/pic", "1700000000", "secret")
	if a != b {
		t.Fatal("same input should produce the same signature")
	}
	if c := signRequest("folder/pic", "1700000000", "other"); c == a {
		t.Fatal("different secrets should produce different signatures")
	}
}
