package storage

import (
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Cloudinary configuration via environment variables:
// CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY, CLOUDINARY_API_SECRET, CLOUDINARY_FOLDER (optional)

// The image host is the one slow external call in the system, so it gets a
// bounded timeout. Callers treat any error as an upstream failure and must
// not let it touch the owning record.
var cloudinaryClient = &http.Client{Timeout: 15 * time.Second}

var ErrUploadNotConfigured = errors.New("cloudinary credentials are not configured")

type cloudinaryConfig struct {
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
}

func loadCloudinaryConfig() (cloudinaryConfig, error) {
	cfg := cloudinaryConfig{
		cloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		apiKey:    os.Getenv("CLOUDINARY_API_KEY"),
		apiSecret: os.Getenv("CLOUDINARY_API_SECRET"),
		folder:    os.Getenv("CLOUDINARY_FOLDER"),
	}
	if cfg.cloudName == "" || cfg.apiKey == "" || cfg.apiSecret == "" {
		return cfg, ErrUploadNotConfigured
	}
	return cfg, nil
}

func signRequest(publicID, timestamp, apiSecret string) string {
	signatureString := fmt.Sprintf("public_id=%s&timestamp=%s%s", publicID, timestamp, apiSecret)
	return fmt.Sprintf("%x", sha1.Sum([]byte(signatureString)))
}

// UploadBase64Image performs a signed upload and returns the hosted URL.
func UploadBase64Image(base64ImageSrc string, publicID string) (string, error) {
	if base64ImageSrc == "" {
		return "", errors.New("empty image payload")
	}

	// Strip a data URL prefix if present
	payload := base64ImageSrc
	if i := strings.Index(base64ImageSrc, ","); i != -1 {
		payload = base64ImageSrc[i+1:]
	}

	cfg, err := loadCloudinaryConfig()
	if err != nil {
		return "", err
	}

	finalPublicID := publicID
	if cfg.folder != "" {
		finalPublicID = cfg.folder + "/" + publicID
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	form := url.Values{}
	form.Add("file", "data:image/jpeg;base64,"+payload)
	form.Add("api_key", cfg.apiKey)
	if finalPublicID != "" {
		form.Add("public_id", finalPublicID)
	}
	form.Add("timestamp", timestamp)
	form.Add("signature", signRequest(finalPublicID, timestamp, cfg.apiSecret))

	endpoint := "https://api.cloudinary.com/v1_1/" + cfg.cloudName + "/image/upload"
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := cloudinaryClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudinary upload failed with status %d: %s", res.StatusCode, string(body))
	}

	var cloudRes struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		Error     struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &cloudRes); err != nil {
		return "", err
	}
	if cloudRes.Error.Message != "" {
		return "", errors.New("cloudinary error: " + cloudRes.Error.Message)
	}

	hostedURL := cloudRes.SecureURL
	if hostedURL == "" {
		hostedURL = cloudRes.URL
	}
	if hostedURL == "" {
		return "", errors.New("cloudinary returned no URL")
	}

	return hostedURL, nil
}

// DeleteImage destroys a hosted image by its URL. Best effort: callers log
// failures but never fail the owning operation over them.
func DeleteImage(imageURL string) error {
	if !strings.Contains(imageURL, "res.cloudinary.com") {
		return errors.New("not a cloudinary URL: " + imageURL)
	}

	// URL format: https://res.cloudinary.com/{cloud}/image/upload/v{n}/{public_id}.{ext}
	parts := strings.Split(imageURL, "/")
	if len(parts) < 2 {
		return errors.New("invalid cloudinary URL: " + imageURL)
	}
	lastPart := parts[len(parts)-1]
	publicID := strings.Split(lastPart, ".")[0]

	cfg, err := loadCloudinaryConfig()
	if err != nil {
		return err
	}

	finalPublicID := publicID
	if cfg.folder != "" {
		finalPublicID = cfg.folder + "/" + publicID
	}

	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	form := url.Values{}
	form.Add("public_id", finalPublicID)
	form.Add("api_key", cfg.apiKey)
	form.Add("timestamp", timestamp)
	form.Add("signature", signRequest(finalPublicID, timestamp, cfg.apiSecret))

	endpoint := "https://api.cloudinary.com/v1_1/" + cfg.cloudName + "/image/destroy"
	req, err := http.NewRequest("POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := cloudinaryClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("cloudinary destroy failed with status %d: %s", res.StatusCode, string(body))
	}

	var deleteRes struct {
		Result string `json:"result"`
		Error  struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &deleteRes); err != nil {
		return err
	}
	if deleteRes.Error.Message != "" {
		return errors.New("cloudinary error: " + deleteRes.Error.Message)
	}
	if deleteRes.Result != "ok" {
		return errors.New("cloudinary destroy result: " + deleteRes.Result)
	}

	return nil
}
