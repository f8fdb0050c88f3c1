package routes

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"blokmap-server/utils"
	"errors"
	"strconv"
	"strings"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type CatalogItemInput struct {
	RestaurantID uint    `json:"restaurantID" validate:"required"`
	Name         string  `json:"name" validate:"required,max=256"`
	Category     string  `json:"category" validate:"max=100"`
	Location     string  `json:"location" validate:"max=100"`
	Price        float64 `json:"price" validate:"gte=0"`
	Rating       float64 `json:"rating" validate:"gte=0,lte=5"`
	Description  string  `json:"description" validate:"max=5000"`
	ImageURL     string  `json:"imageURL"`
}

type UpdateCatalogItemInput struct {
	Name        string   `json:"name" validate:"max=256"`
	Category    string   `json:"category" validate:"max=100"`
	Location    string   `json:"location" validate:"max=100"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Rating      *float64 `json:"rating" validate:"omitempty,gte=0,lte=5"`
	Description string   `json:"description" validate:"max=5000"`
	ImageURL    string   `json:"imageURL"`
}

// ListCatalogItems returns the food and drink catalog, filterable by
// category and price range.
func ListCatalogItems(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.CatalogItem{})

	if category := strings.TrimSpace(ctx.URLParam("category")); category != "" {
		query = query.Where("category = ?", category)
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

	items := []models.CatalogItem{}
	if err := query.Order("name ASC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, "Catalog items fetched.", items, page, perPage, total)
}

func GetCatalogItem(ctx iris.Context) {
	item := getCatalogItemByID(ctx)
	if item == nil {
		return
	}

	utils.JSONData(ctx, "Catalog item fetched.", item)
}

// GetCatalogByRestaurant lists a restaurant's menu. Zero items is a success
// with an empty collection; 404 only when the restaurant itself is missing.
func GetCatalogByRestaurant(ctx iris.Context) {
	restaurantID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid restaurant ID.", ctx)
		return
	}

	var restaurant models.Subject
	if err := storage.DB.
		Where("id = ? AND kind = ?", restaurantID, models.KindRestaurant).
		First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Restaurant not found.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	items := []models.CatalogItem{}
	if err := storage.DB.
		Where("restaurant_id = ?", restaurantID).
		Order("name ASC").
		Find(&items).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Catalog items fetched.", items)
}

func CreateCatalogItem(ctx iris.Context) {
	var input CatalogItemInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	// The owning subject must exist and be a restaurant
	var restaurant models.Subject
	if err := storage.DB.
		Where("id = ? AND kind = ?", input.RestaurantID, models.KindRestaurant).
		First(&restaurant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusBadRequest, "restaurantID must reference an existing restaurant.", ctx)
			return
		}
		utils.CreateInternalServerError(ctx)
		return
	}

	item := models.CatalogItem{
		RestaurantID: input.RestaurantID,
		Name:         input.Name,
		Category:     input.Category,
		Location:     input.Location,
		Price:        input.Price,
		Rating:       input.Rating,
		Description:  input.Description,
		ImageURL:     input.ImageURL,
	}

	if err := storage.DB.Create(&item).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "catalog.create", "catalog_item", item.ID, nil, item)

	utils.JSONData(ctx, "Catalog item created.", item)
}

func UpdateCatalogItem(ctx iris.Context) {
	item := getCatalogItemByID(ctx)
	if item == nil {
		return
	}

	var input UpdateCatalogItemInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := *item
	if input.Name != "" {
		item.Name = input.Name
	}
	if input.Category != "" {
		item.Category = input.Category
	}
	if input.Location != "" {
		item.Location = input.Location
	}
	if input.Price != nil {
		item.Price = *input.Price
	}
	if input.Rating != nil {
		item.Rating = *input.Rating
	}
	if input.Description != "" {
		item.Description = input.Description
	}
	if input.ImageURL != "" {
		item.ImageURL = input.ImageURL
	}

	if err := storage.DB.Save(item).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "catalog.update", "catalog_item", item.ID, before, item)

	utils.JSONData(ctx, "Catalog item updated.", item)
}

func DeleteCatalogItem(ctx iris.Context) {
	item := getCatalogItemByID(ctx)
	if item == nil {
		return
	}

	if err := storage.DB.Delete(item).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "catalog.delete", "catalog_item", item.ID, item, nil)

	utils.JSONData(ctx, "Catalog item deleted.", item)
}

func getCatalogItemByID(ctx iris.Context) *models.CatalogItem {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid catalog item ID.", ctx)
		return nil
	}

	var item models.CatalogItem
	if err := storage.DB.First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Catalog item not found.", ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}

	return &item
}
