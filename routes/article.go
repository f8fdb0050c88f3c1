package routes

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"blokmap-server/utils"
	"errors"
	"log"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"
)

type ArticleInput struct {
	Title     string             `json:"title" validate:"required,max=256"`
	Content   string             `json:"content" validate:"required"`
	ImageURL  string             `json:"imageURL"`
	Kind      models.SubjectKind `json:"kind" validate:"required"`
	SubjectID uint               `json:"subjectID" validate:"required"`
}

type UpdateArticleInput struct {
	Title    string `json:"title" validate:"max=256"`
	Content  string `json:"content"`
	ImageURL string `json:"imageURL"`
}

// ListArticles returns editorial write-ups, optionally scoped to one subject.
func ListArticles(ctx iris.Context) {
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

	query := storage.DB.Model(&models.Article{})
	if scoped {
		query = query.Where("subject_kind = ? AND subject_id = ?", kind, subjectID)
	}

	var total int64
	query.Count(&total)

	articles := []models.Article{}
	if err := query.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&articles).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, "Articles fetched.", articles, page, perPage, total)
}

func GetArticle(ctx iris.Context) {
	article := getArticleByID(ctx)
	if article == nil {
		return
	}

	utils.JSONData(ctx, "Article fetched.", article)
}

func listArticlesForSubject(kind models.SubjectKind, ctx iris.Context) {
	subject := getSubjectByID(kind, ctx)
	if subject == nil {
		return
	}

	articles := []models.Article{}
	if err := storage.DB.
		Where("subject_kind = ? AND subject_id = ?", kind, subject.ID).
		Order("created_at DESC").
		Find(&articles).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Articles fetched.", articles)
}

func ListRestaurantArticles(ctx iris.Context) { listArticlesForSubject(models.KindRestaurant, ctx) }
func ListSpotArticles(ctx iris.Context)       { listArticlesForSubject(models.KindSpot, ctx) }

func CreateArticle(ctx iris.Context) {
	var input ArticleInput
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

	article := models.Article{
		Title:       input.Title,
		Content:     input.Content,
		ImageURL:    input.ImageURL,
		SubjectKind: input.Kind,
		SubjectID:   input.SubjectID,
	}

	if err := storage.DB.Create(&article).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "article.create", "article", article.ID, nil, article)

	utils.JSONData(ctx, "Article created.", article)
}

func UpdateArticle(ctx iris.Context) {
	article := getArticleByID(ctx)
	if article == nil {
		return
	}

	var input UpdateArticleInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	before := *article
	if input.Title != "" {
		article.Title = input.Title
	}
	if input.Content != "" {
		article.Content = input.Content
	}
	if input.ImageURL != "" {
		article.ImageURL = input.ImageURL
	}

	if err := storage.DB.Save(article).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "article.update", "article", article.ID, before, article)

	utils.JSONData(ctx, "Article updated.", article)
}

func DeleteArticle(ctx iris.Context) {
	article := getArticleByID(ctx)
	if article == nil {
		return
	}

	if err := storage.DB.Delete(article).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if article.ImageURL != "" {
		if err := storage.DeleteImage(article.ImageURL); err != nil {
			log.Printf("could not delete hosted image for article %d: %v", article.ID, err)
		}
	}

	utils.Audit(ctx, "article.delete", "article", article.ID, article, nil)

	utils.JSONData(ctx, "Article deleted.", article)
}

func getArticleByID(ctx iris.Context) *models.Article {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Invalid article ID.", ctx)
		return nil
	}

	var article models.Article
	if err := storage.DB.First(&article, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.CreateError(iris.StatusNotFound, "Article not found.", ctx)
			return nil
		}
		utils.CreateInternalServerError(ctx)
		return nil
	}

	return &article
}
