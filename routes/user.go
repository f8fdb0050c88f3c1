package routes

import (
	"blokmap-server/models"
	"blokmap-server/storage"
	"blokmap-server/utils"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/golang-jwt/jwt/v4"
	"github.com/kataras/iris/v12"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// Identity-provider calls get the same bounded timeout as the image host.
var identityProviderClient = &http.Client{Timeout: 15 * time.Second}

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	newUser = models.User{
		Username:  userInput.Username,
		FirstName: userInput.FirstName,
		LastName:  userInput.LastName,
		Email:     strings.ToLower(userInput.Email),
		Password:  hashedPassword,
	}

	if err := storage.DB.Create(&newUser).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	returnUser(newUser, "Registered successfully.", ctx)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	// One generic message for unknown email and wrong password alike
	errorMsg := "Invalid email or password."

	var existingUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, errorMsg, ctx)
		return
	}

	if existingUser.SocialLogin {
		utils.CreateError(iris.StatusUnauthorized, "Social login account.", ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, errorMsg, ctx)
		return
	}

	returnUser(existingUser, "Logged in successfully.", ctx)
}

// GoogleLoginOrSignUp verifies a Google ID token against Google's published
// JWKS and creates or logs in the matching account.
func GoogleLoginOrSignUp(ctx iris.Context) {
	var userInput GoogleUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	res, httpErr := identityProviderClient.Get("https://www.googleapis.com/oauth2/v3/certs")
	if httpErr != nil {
		utils.CreateError(iris.StatusBadGateway, "Could not reach identity provider.", ctx)
		return
	}
	defer res.Body.Close()

	body, bodyErr := io.ReadAll(res.Body)
	if bodyErr != nil {
		utils.CreateError(iris.StatusBadGateway, "Could not reach identity provider.", ctx)
		return
	}

	jwks, jwksErr := keyfunc.NewJSON(body)
	if jwksErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	token, tokenErr := jwt.Parse(userInput.IdentityToken, jwks.Keyfunc)
	if tokenErr != nil || !token.Valid {
		utils.CreateError(iris.StatusUnauthorized, "Invalid identity token.", ctx)
		return
	}

	claims := token.Claims.(jwt.MapClaims)
	email := strings.ToLower(fmt.Sprint(claims["email"]))
	if email == "" || email == "<nil>" {
		utils.CreateError(iris.StatusUnauthorized, "Identity token carries no email.", ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		user = models.User{
			Username:       strings.SplitN(email, "@", 2)[0],
			FirstName:      fmt.Sprint(claims["given_name"]),
			LastName:       fmt.Sprint(claims["family_name"]),
			Email:          email,
			SocialLogin:    true,
			SocialProvider: "Google",
		}
		if err := storage.DB.Create(&user).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}

		returnUser(user, "Registered successfully.", ctx)
		return
	}

	if user.SocialLogin && user.SocialProvider == "Google" {
		returnUser(user, "Logged in successfully.", ctx)
		return
	}

	utils.CreateEmailAlreadyRegistered(ctx)
}

// GetMe returns the account behind the access token.
func GetMe(ctx iris.Context) {
	userID, ok := utils.ContextUserID(ctx)
	if !ok {
		utils.CreateError(iris.StatusUnauthorized, "User not authenticated.", ctx)
		return
	}

	var user models.User
	if err := storage.DB.First(&user, userID).Error; err != nil {
		utils.CreateNotFound(ctx)
		return
	}

	utils.JSONData(ctx, "Current user.", &user)
}

// UpdateUser mutates profile fields; self or admin (enforced by middleware).
func UpdateUser(ctx iris.Context) {
	id := ctx.Params().Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var input UpdateUserInput
	err := ctx.ReadJSON(&input)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if input.Username != "" {
		user.Username = input.Username
	}
	if input.FirstName != "" {
		user.FirstName = input.FirstName
	}
	if input.LastName != "" {
		user.LastName = input.LastName
	}
	if input.AvatarURL != "" {
		user.AvatarURL = input.AvatarURL
	}
	if input.Password != "" {
		hashedPassword, hashErr := hashAndSaltPassword(input.Password)
		if hashErr != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
		user.Password = hashedPassword
	}

	if err := storage.DB.Save(user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "User updated.", user)
}

// DeleteUser removes an account and its reviews. Admin only.
func DeleteUser(ctx iris.Context) {
	id := ctx.Params().Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	before := *user
	txErr := storage.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", user.ID).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if txErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.Audit(ctx, "user.delete", "user", before.ID, before, nil)

	utils.JSONData(ctx, "User deleted.", &before)
}

// GetUserSavedSubjects resolves the user's favorites to full subject rows.
func GetUserSavedSubjects(ctx iris.Context) {
	id := ctx.Params().Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	saved := []models.SubjectRef{}
	if user.SavedSubjects != nil {
		if err := json.Unmarshal(user.SavedSubjects, &saved); err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	ids := make([]uint, 0, len(saved))
	for _, ref := range saved {
		ids = append(ids, ref.SubjectID)
	}

	subjects := []models.Subject{}
	if len(ids) > 0 {
		if err := storage.DB.Where("id IN ?", ids).Find(&subjects).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	utils.JSONData(ctx, "Saved subjects.", subjects)
}

// AlterUserSavedSubjects adds or removes a favorite subject reference.
func AlterUserSavedSubjects(ctx iris.Context) {
	id := ctx.Params().Get("id")

	user := getUserByID(id, ctx)
	if user == nil {
		return
	}

	var req AlterSavedSubjectsInput
	err := ctx.ReadJSON(&req)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !req.Kind.Valid() {
		utils.CreateError(iris.StatusBadRequest, "Kind must be restaurant or spot.", ctx)
		return
	}
	if req.Op != "add" && req.Op != "remove" {
		utils.CreateError(iris.StatusBadRequest, "Op must be add or remove.", ctx)
		return
	}

	saved := []models.SubjectRef{}
	if user.SavedSubjects != nil {
		_ = json.Unmarshal(user.SavedSubjects, &saved)
	}

	ref := models.SubjectRef{Kind: req.Kind, SubjectID: req.SubjectID}
	idx := slices.Index(saved, ref)

	switch req.Op {
	case "add":
		if idx == -1 {
			saved = append(saved, ref)
		}
	case "remove":
		if idx != -1 {
			saved = append(saved[:idx], saved[idx+1:]...)
		}
	}

	savedJSON, marshalErr := json.Marshal(saved)
	if marshalErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	user.SavedSubjects = savedJSON

	if err := storage.DB.Save(user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, "Saved subjects updated.", saved)
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	return userExistsQuery.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func getUserByID(id string, ctx iris.Context) *models.User {
	var user models.User
	userExists := storage.DB.Where("id = ?", id).Find(&user)

	if userExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}

	if userExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "User not found.", ctx)
		return nil
	}

	return &user
}

func returnUser(user models.User, message string, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID, user.Role)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONData(ctx, message, iris.Map{
		"id":           user.ID,
		"username":     user.Username,
		"firstName":    user.FirstName,
		"lastName":     user.LastName,
		"email":        user.Email,
		"role":         user.Role,
		"avatarURL":    user.AvatarURL,
		"accessToken":  string(tokenPair.AccessToken),
		"refreshToken": string(tokenPair.RefreshToken),
	})
}

type RegisterUserInput struct {
	Username  string `json:"username" validate:"required,max=256"`
	FirstName string `json:"firstName" validate:"required,max=256"`
	LastName  string `json:"lastName" validate:"required,max=256"`
	Email     string `json:"email" validate:"required,max=256,email"`
	Password  string `json:"password" validate:"required,min=8,max=256"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type GoogleUserInput struct {
	IdentityToken string `json:"identityToken" validate:"required"`
}

type UpdateUserInput struct {
	Username  string `json:"username" validate:"max=256"`
	FirstName string `json:"firstName" validate:"max=256"`
	LastName  string `json:"lastName" validate:"max=256"`
	AvatarURL string `json:"avatarURL"`
	Password  string `json:"password" validate:"omitempty,min=8,max=256"`
}

type AlterSavedSubjectsInput struct {
	Kind      models.SubjectKind `json:"kind" validate:"required"`
	SubjectID uint               `json:"subjectID" validate:"required"`
	Op        string             `json:"op" validate:"required"`
}
