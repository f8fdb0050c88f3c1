package routes

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"blokmap-server/utils"
	"strings"

	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
)

var assignableRoles = []string{"user", "admin"}

// AdminListUsers - GET /api/admin/users?role=&q=&page=&per_page=
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	q := strings.TrimSpace(ctx.URLParamDefault("q", ""))
	role := strings.TrimSpace(ctx.URLParamDefault("role", ""))

	query := storage.DB.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(username) LIKE ? OR lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ?",
			like, like, like, like)
	}

	var total int64
	query.Count(&total)

	users := []models.User{}
	if err := query.Offset((page - 1) * perPage).Limit(perPage).Find(&users).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, "Users fetched.", users, page, perPage, total)
}

// AdminChangeUserRole - PATCH /api/admin/users/{id}/role
func AdminChangeUserRole(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid user ID.", ctx)
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := ctx.ReadJSON(&body); err != nil || !slices.Contains(assignableRoles, body.Role) {
		utils.CreateError(iris.StatusBadRequest, "Role must be one of: "+strings.Join(assignableRoles, ", ")+".", ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "User not found.", ctx)
		return
	}

	before := user
	user.Role = body.Role
	if err := storage.DB.Save(&user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user.role_update", "user", user.ID, before, user)

	utils.JSONData(ctx, "Role updated.", &user)
}

// AdminStats - GET /api/admin/stats: row counts per entity.
func AdminStats(ctx iris.Context) {
	var users, restaurants, spots, catalogItems, reviews, articles int64

	storage.DB.Model(&models.User{}).Count(&users)
	storage.DB.Model(&models.Subject{}).Where("kind = ?", models.KindRestaurant).Count(&restaurants)
	storage.DB.Model(&models.Subject{}).Where("kind = ?", models.KindSpot).Count(&spots)
	storage.DB.Model(&models.CatalogItem{}).Count(&catalogItems)
	storage.DB.Model(&models.Review{}).Count(&reviews)
	storage.DB.Model(&models.Article{}).Count(&articles)

	utils.JSONData(ctx, "Stats fetched.", iris.Map{
		"users":        users,
		"restaurants":  restaurants,
		"spots":        spots,
		"catalogItems": catalogItems,
		"reviews":      reviews,
		"articles":     articles,
	})
}

// AdminActivity - GET /api/admin/activity: the audit log feed.
func AdminActivity(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 50)
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	var total int64
	storage.DB.Model(&models.AuditLog{}).Count(&total)

	entries := []models.AuditLog{}
	if err := storage.DB.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&entries).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, "Activity fetched.", entries, page, perPage, total)
}
