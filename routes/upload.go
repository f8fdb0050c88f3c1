package routes

import (
	"blokmap-server/storage"
	"blokmap-server/utils"
	"errors"
	"fmt"
	"time"

	"github.com/kataras/iris/v12"
)

type uploadInput struct {
	Data     string `json:"data" validate:"required"` // base64 data URL or raw base64
	PublicID string `json:"public_id"`                // optional
}

// UploadImage is the first half of the two-step image contract: upload the
// payload, get back a hosted URL, then create the record with that URL.
// Record creation never talks to the image host.
func UploadImage(ctx iris.Context) {
	var in uploadInput
	if err := ctx.ReadJSON(&in); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	publicID := in.PublicID
	if publicID == "" {
		userID, _ := utils.ContextUserID(ctx)
		publicID = fmt.Sprintf("uploads/%d/%d", userID, time.Now().UnixNano()/int64(time.Millisecond))
	}

	url, err := storage.UploadBase64Image(in.Data, publicID)
	if err != nil {
		if errors.Is(err, storage.ErrUploadNotConfigured) {
			utils.CreateInternalServerError(ctx)
			return
		}
		utils.CreateError(iris.StatusBadGateway, "Image upload failed.", ctx)
		return
	}

	utils.JSONData(ctx, "Image uploaded.", iris.Map{"url": url})
}
