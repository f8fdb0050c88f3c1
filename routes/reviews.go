package routes

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"blokmap-server/utils"
	"errors"
	"math"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CreateReviewInput struct {
	Kind      models.SubjectKind `json:"kind" validate:"required"`
	SubjectID uint               `json:"subjectID" validate:"required"`
	Content   string             `json:"content" validate:"required,max=1000"`
	Rating    float64            `json:"rating" validate:"required,gte=1,lte=5"`
}

type UpdateReviewInput struct {
	Content string   `json:"content" validate:"omitempty,max=1000"`
	Rating  *float64 `json:"rating" validate:"omitempty,gte=1,lte=5"`
}

type ReviewResponse struct {
	ID          uint               `json:"id"`
	UserID      uint               `json:"userID"`
	SubjectKind models.SubjectKind `json:"subjectKind"`
	SubjectID   uint               `json:"subjectID"`
	SubjectName string             `json:"subjectName,omitempty"`
	Content     string             `json:"content"`
	Rating      float64            `json:"rating"`
	CreatedAt   string             `json:"createdAt"`
	Author      struct {
		Username  string `json:"username"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		AvatarURL string `json:"avatarURL"`
	} `json:"author"`
}

// meanRating is the aggregate every listing shows: the arithmetic mean of the
// current review set, rounded to one decimal. Zero reviews yield 0.
func meanRating(reviews []models.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	var total float64
	for _, review := range reviews {
		total += review.Rating
	}
	return math.Round(total/float64(len(reviews))*10) / 10
}

// subjectRatingSummary recomputes the aggregate from the row set on every
// call; nothing is cached or denormalized.
func subjectRatingSummary(kind models.SubjectKind, subjectID uint) (avg float64, count int64, err error) {
	var reviews []models.Review
	if err := storage.DB.
		Where("subject_kind = ? AND subject_id = ?", kind, subjectID).
		Find(&reviews).Error; err != nil {
		return 0, 0, err
	}
	return meanRating(reviews), int64(len(reviews)), nil
}

// canModifyReview holds the ownership rule: the author or an admin.
func canModifyReview(review *models.Review, userID uint, role string) bool {
	return review.UserID == userID || role == "admin"
}

func formatReview(review models.Review, subjectName string) ReviewResponse {
	resp := ReviewResponse{
		ID:          review.ID,
		UserID:      review.UserID,
		SubjectKind: review.SubjectKind,
		SubjectID:   review.SubjectID,
		SubjectName: subjectName,
		Content:     review.Content,
		Rating:      review.Rating,
		CreatedAt:   review.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	resp.Author.Username = review.User.Username
	resp.Author.FirstName = review.User.FirstName
	resp.Author.LastName = review.User.LastName
	resp.Author.AvatarURL = review.User.AvatarURL
	return resp
}

// CreateReview persists a rating for a single subject.
func CreateReview(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		utils.CreateError(iris.StatusUnauthorized, "User not authenticated.", ctx)
		return
	}

	var input CreateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !input.Kind.Valid() {
		utils.CreateError(iris.StatusBadRequest, "Kind must be restaurant or spot.", ctx)
		return
	}

	var subject models.Subject
	if err := storage.DB.
		Where("id = ? AND kind = ?", input.SubjectID, input.Kind).
		First(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Subject not found.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	// One review per user per subject
	var existing models.Review
	err := storage.DB.
		Where("subject_kind = ? AND subject_id = ? AND user_id = ?", input.Kind, input.SubjectID, userID).
		First(&existing).Error
	if err == nil {
		utils.CreateError(iris.StatusBadRequest, "You have already reviewed this subject.", ctx)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.CreateInternalServerError(ctx)
		return
	}

	review := models.Review{
		UserID:      userID,
		SubjectKind: input.Kind,
		SubjectID:   input.SubjectID,
		Content:     input.Content,
		Rating:      input.Rating,
	}

	if err := storage.DB.Create(&review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Preload("User").First(&review, review.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Review created.", formatReview(review, subject.Name))
}

// ListReviews returns reviews newest first, optionally scoped to one subject.
func ListReviews(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	kindParam := ctx.URLParam("kind")
	subjectID := uint(ctx.URLParamIntDefault("subject_id", 0))
	kind := models.SubjectKind(kindParam)

	scoped := kindParam != "" || subjectID != 0
	if scoped && (!kind.Valid() || subjectID == 0) {
		utils.CreateError(iris.StatusBadRequest, "Subject filter requires kind (restaurant or spot) and subject_id.", ctx)
		return
	}

	query := storage.DB.Model(&models.Review{})

	var subject models.Subject
	if scoped {
		if err := storage.DB.Where("id = ? AND kind = ?", subjectID, kind).First(&subject).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.CreateError(iris.StatusNotFound, "Subject not found.", ctx)
				return
			}
			utils.CreateInternalServerError(ctx)
			return
		}
		query = query.Where("subject_kind = ? AND subject_id = ?", kind, subjectID)
	}

	var total int64
	query.Count(&total)

	var reviews []models.Review
	if err := query.Preload("User").
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&reviews).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	subjectNames, err := subjectNamesFor(reviews, scoped, subject)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	responses := make([]ReviewResponse, 0, len(reviews))
	for _, review := range reviews {
		responses = append(responses, formatReview(review, subjectNames[review.SubjectID]))
	}

	data := iris.Map{"reviews": responses}
	if scoped {
		avg, count, sumErr := subjectRatingSummary(subject.Kind, subject.ID)
		if sumErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		data["averageRating"] = avg
		data["reviewCount"] = count
		data["subject"] = iris.Map{"id": subject.ID, "kind": subject.Kind, "name": subject.Name}
	}

	ctx.JSON(iris.Map{
		"success": true,
		"message": "Reviews fetched.",
		"data":    data,
		"meta":    utils.PageMeta{Page: page, PerPage: perPage, Total: total},
	})
}

// subjectNamesFor resolves display names for the subjects behind a page of
// reviews with a single query.
func subjectNamesFor(reviews []models.Review, scoped bool, scopedSubject models.Subject) (map[uint]string, error) {
	names := make(map[uint]string)
	if scoped {
		names[scopedSubject.ID] = scopedSubject.Name
		return names, nil
	}
	ids := make([]uint, 0, len(reviews))
	for _, review := range reviews {
		ids = append(ids, review.SubjectID)
	}
	if len(ids) == 0 {
		return names, nil
	}
	var subjects []models.Subject
	if err := storage.DB.Where("id IN ?", ids).Find(&subjects).Error; err != nil {
		return nil, err
	}
	for _, s := range subjects {
		names[s.ID] = s.Name
	}
	return names, nil
}

// UpdateReview mutates content and rating. Author or admin only.
func UpdateReview(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		utils.CreateError(iris.StatusUnauthorized, "User not authenticated.", ctx)
		return
	}

	reviewID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid review ID.", ctx)
		return
	}

	var review models.Review
	if err := storage.DB.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Review not found.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	if !canModifyReview(&review, userID, utils.ContextRole(ctx)) {
		utils.CreateError(iris.StatusForbidden, "Only the author or an admin can modify a review.", ctx)
		return
	}

	var input UpdateReviewInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Content != "" {
		review.Content = input.Content
	}
	if input.Rating != nil {
		review.Rating = *input.Rating
	}

	if err := storage.DB.Save(&review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if err := storage.DB.Preload("User").First(&review, review.ID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Review updated.", formatReview(review, ""))
}

// DeleteReview removes a review and returns the deleted record. Author or
// admin only.
func DeleteReview(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		utils.CreateError(iris.StatusUnauthorized, "User not authenticated.", ctx)
		return
	}

	reviewID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid review ID.", ctx)
		return
	}

	var review models.Review
	if err := storage.DB.Preload("User").First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Review not found.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	role := utils.ContextRole(ctx)
	if !canModifyReview(&review, userID, role) {
		utils.CreateError(iris.StatusForbidden, "Only the author or an admin can delete a review.", ctx)
		return
	}

	if err := storage.DB.Delete(&review).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if role == "admin" && review.UserID != userID {
		utils.Audit(ctx, "review.delete", "review", review.ID, review, nil)
	}

	utils.JSONData(ctx, "Review deleted.", formatReview(review, ""))
}
