package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/digital-menu/middlewares"
	"github.com/yeremiapane/digital-menu/models"
	"github.com/yeremiapane/digital-menu/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("email = ?", strings.TrimSpace(input.Email)).First(&user).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			utils.ErrorLogger.WithError(err).Error("Error finding user")
		}
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.InfoLogger.WithField("email", user.Email).WithField("ip", c.ClientIP()).Warn("Failed login")
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to generate token"))
		return
	}

	utils.InfoLogger.WithField("user_id", user.ID).WithField("role", user.Role).Info("Login successful")

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_id":   user.ID,
		"user_role": strings.ToLower(user.Role),
	})
}

// GetProfile -> user dari JWT
func (uc *UserController) GetProfile(c *gin.Context) {
	userID := c.GetString(middlewares.CtxUserID)
	if userID == "" {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
			return
		}
		utils.ErrorLogger.WithError(err).Error("Error finding user")
		utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to load profile"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "User profile", user)
}
