package routes

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"blokmap-server/utils"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

// Restaurants and spots are the same table tagged by kind, so one set of
// handlers serves both route parties.

type SubjectInput struct {
	Name        string   `json:"name" validate:"required,max=256"`
	Category    string   `json:"category" validate:"max=100"`
	Location    string   `json:"location" validate:"max=100"`
	Description string   `json:"description" validate:"max=5000"`
	Price       float64  `json:"price" validate:"gte=0"`
	ImageURL    string   `json:"imageURL"`
	Gallery     []string `json:"gallery"`
}

type UpdateSubjectInput struct {
	Name        string   `json:"name" validate:"max=256"`
	Category    string   `json:"category" validate:"max=100"`
	Location    string   `json:"location" validate:"max=100"`
	Description string   `json:"description" validate:"max=5000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	ImageURL    string   `json:"imageURL"`
	Gallery     []string `json:"gallery"`
}

type SubjectResponse struct {
	models.Subject
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int64   `json:"reviewCount"`
}

func listSubjects(kind models.SubjectKind, ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Subject{}).Where("kind = ?", kind)

	// Conjunctive filters; search matches name and description
	if search := strings.TrimSpace(ctx.URLParam("search")); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(description) LIKE ?", like, like)
	}
	if category := strings.TrimSpace(ctx.URLParam("category")); category != "" {
		query = query.Where("category = ?", category)
	}
	if location := strings.TrimSpace(ctx.URLParam("location")); location != "" {
		query = query.Where("location = ?", location)
	}
	if minPriceStr := ctx.URLParam("min_price"); minPriceStr != "" {
		if minPrice, err := strconv.ParseFloat(minPriceStr, 64); err == nil {
			query = query.Where("price >= ?", minPrice)
		}
	}
	if maxPriceStr := ctx.URLParam("max_price"); maxPriceStr != "" {
		if maxPrice, err := strconv.ParseFloat(maxPriceStr, 64); err == nil {
			query = query.Where("price <= ?", maxPrice)
		}
	}

	var total int64
	query.Count(&total)

	var subjects []models.Subject
	if err := query.Order("name ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&subjects).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	responses, err := attachRatings(kind, subjects)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, "Subjects fetched.", responses, page, perPage, total)
}

// attachRatings computes the per-subject aggregate for one page of rows with
// a single review query.
func attachRatings(kind models.SubjectKind, subjects []models.Subject) ([]SubjectResponse, error) {
	ids := make([]uint, 0, len(subjects))
	for _, subject := range subjects {
		ids = append(ids, subject.ID)
	}

	grouped := make(map[uint][]models.Review)
	if len(ids) > 0 {
		var reviews []models.Review
		if err := storage.DB.
			Where("subject_kind = ? AND subject_id IN ?", kind, ids).
			Find(&reviews).Error; err != nil {
			return nil, err
		}
		for _, review := range reviews {
			grouped[review.SubjectID] = append(grouped[review.SubjectID], review)
		}
	}

	responses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, SubjectResponse{
			Subject:       subject,
			AverageRating: meanRating(grouped[subject.ID]),
			ReviewCount:   int64(len(grouped[subject.ID])),
		})
	}
	return responses, nil
}

func getSubject(kind models.SubjectKind, ctx iris.Context) {
	subject := getSubjectByID(kind, ctx)
	if subject == nil {
		return
	}

	avg, count, err := subjectRatingSummary(kind, subject.ID)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Subject fetched.", SubjectResponse{
		Subject:       *subject,
		AverageRating: avg,
		ReviewCount:   count,
	})
}

func createSubject(kind models.SubjectKind, ctx iris.Context) {
	var input SubjectInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	galleryJSON, err := json.Marshal(input.Gallery)
	if err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	subject := models.Subject{
		Kind:        kind,
		Name:        input.Name,
		Category:    input.Category,
		Location:    input.Location,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Gallery:     galleryJSON,
	}

	if err := storage.DB.Create(&subject).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, string(kind)+".create", string(kind), subject.ID, nil, subject)

	utils.JSONData(ctx, "Subject created.", subject)
}

func updateSubject(kind models.SubjectKind, ctx iris.Context) {
	subject := getSubjectByID(kind, ctx)
	if subject == nil {
		return
	}

	var input UpdateSubjectInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := *subject
	if input.Name != "" {
		subject.Name = input.Name
	}
	if input.Category != "" {
		subject.Category = input.Category
	}
	if input.Location != "" {
		subject.Location = input.Location
	}
	if input.Description != "" {
		subject.Description = input.Description
	}
	if input.Price != nil {
		subject.Price = *input.Price
	}
	if input.ImageURL != "" {
		subject.ImageURL = input.ImageURL
	}
	if input.Gallery != nil {
		galleryJSON, err := json.Marshal(input.Gallery)
		if err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		subject.Gallery = galleryJSON
	}

	if err := storage.DB.Save(subject).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, string(kind)+".update", string(kind), subject.ID, before, subject)

	utils.JSONData(ctx, "Subject updated.", subject)
}

// deleteSubject removes a subject and all its dependents in one transaction:
// reviews, articles, and (for restaurants) catalog items.
func deleteSubject(kind models.SubjectKind, ctx iris.Context) {
	subject := getSubjectByID(kind, ctx)
	if subject == nil {
		return
	}

	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("subject_kind = ? AND subject_id = ?", kind, subject.ID).
			Delete(&models.Review{}).Error; err != nil {
			return err
		}
		if err := tx.Where("subject_kind = ? AND subject_id = ?", kind, subject.ID).
			Delete(&models.Article{}).Error; err != nil {
			return err
		}
		if kind == models.KindRestaurant {
			if err := tx.Where("restaurant_id = ?", subject.ID).
				Delete(&models.CatalogItem{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(subject).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	// Hosted image cleanup stays outside the transaction; failure is logged
	// and never surfaces to the client
	if subject.ImageURL != "" {
		if err := storage.DeleteImage(subject.ImageURL); err != nil {
			log.Printf("could not delete hosted image for %s %d: %v", kind, subject.ID, err)
		}
	}

	utils.Audit(ctx, string(kind)+".delete", string(kind), subject.ID, subject, nil)

	utils.JSONData(ctx, "Subject deleted.", subject)
}

func listSubjectCategories(kind models.SubjectKind, ctx iris.Context) {
	var names []string
	if err := storage.DB.Model(&models.Category{}).
		Where("kind = ? AND is_active = ?", string(kind), true).
		Order("sort_order ASC").
		Pluck("name", &names).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Categories fetched.", names)
}

func listSubjectLocations(kind models.SubjectKind, ctx iris.Context) {
	var names []string
	if err := storage.DB.Model(&models.Location{}).
		Where("kind = ? AND is_active = ?", string(kind), true).
		Order("sort_order ASC").
		Pluck("name", &names).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Locations fetched.", names)
}

func getSubjectByID(kind models.SubjectKind, ctx iris.Context) *models.Subject {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid subject ID.", ctx)
		return nil
	}

	var subject models.Subject
	if err := storage.DB.Where("id = ? AND kind = ?", id, kind).First(&subject).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Subject not found.", ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}

	return &subject
}

// Restaurant party

func ListRestaurants(ctx iris.Context)          { listSubjects(models.KindRestaurant, ctx) }
func GetRestaurant(ctx iris.Context)            { getSubject(models.KindRestaurant, ctx) }
func CreateRestaurant(ctx iris.Context)         { createSubject(models.KindRestaurant, ctx) }
func UpdateRestaurant(ctx iris.Context)         { updateSubject(models.KindRestaurant, ctx) }
func DeleteRestaurant(ctx iris.Context)         { deleteSubject(models.KindRestaurant, ctx) }
func ListRestaurantCategories(ctx iris.Context) { listSubjectCategories(models.KindRestaurant, ctx) }
func ListRestaurantLocations(ctx iris.Context)  { listSubjectLocations(models.KindRestaurant, ctx) }

// Spot party

func ListSpots(ctx iris.Context)          { listSubjects(models.KindSpot, ctx) }
func GetSpot(ctx iris.Context)            { getSubject(models.KindSpot, ctx) }
func CreateSpot(ctx iris.Context)         { createSubject(models.KindSpot, ctx) }
func UpdateSpot(ctx iris.Context)         { updateSubject(models.KindSpot, ctx) }
func DeleteSpot(ctx iris.Context)         { deleteSubject(models.KindSpot, ctx) }
func ListSpotCategories(ctx iris.Context) { listSubjectCategories(models.KindSpot, ctx) }
func ListSpotLocations(ctx iris.Context)  { listSubjectLocations(models.KindSpot, ctx) }
