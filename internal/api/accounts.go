package api

import (
	"errors"
	"net/http"

	"feastly/internal/auth"
	"feastly/internal/models"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phoneNumber"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Account handlers

func (a *API) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email := models.NormalizeEmail(req.Email)
	if err := models.ValidateRegistration(req.Name, email, req.Password); err != nil {
		respondError(c, err)
		return
	}
	if err := models.ValidatePhoneNumber(req.PhoneNumber); err != nil {
		respondError(c, err)
		return
	}

	hash, err := a.auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	user := &models.User{
		Name:         req.Name,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		PhoneNumber:  req.PhoneNumber,
	}
	if err := a.store.CreateUser(c.Request.Context(), user); err != nil {
		respondError(c, err)
		return
	}

	a.respondWithToken(c, http.StatusCreated, user)
}

func (a *API) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := a.store.GetUserByEmail(c.Request.Context(), models.NormalizeEmail(req.Email))
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if !a.auth.ComparePassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	a.respondWithToken(c, http.StatusOK, user)
}

func (a *API) Me(c *gin.Context) {
	id, _ := auth.UserID(c)
	user, err := a.store.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) respondWithToken(c *gin.Context, status int, user *models.User) {
	token, err := a.auth.IssueToken(user)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"token": token, "user": user})
}
