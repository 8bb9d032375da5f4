package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loginify/internal/app"
	"loginify/internal/transport/http/response"
)

type AuthHandler struct {
	userService *app.UserService
	tokens      *app.TokenIssuer
	logger      *zap.Logger
}

type SignupForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

type LoginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func NewAuthHandler(userService *app.UserService, tokens *app.TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		tokens:      tokens,
		logger:      logger,
	}
}

func (h *AuthHandler) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{"Error": "", "Username": "", "Email": ""})
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var form SignupForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", gin.H{"Error": "Could not read the submitted form.", "Username": "", "Email": ""})
		return
	}

	_, err := h.userService.Signup(c.Request.Context(), app.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
	})
	if err != nil {
		status, message := statusFor(err)
		switch {
		case errors.Is(err, app.ErrUsernameExists):
			message = "Username already exists."
		case errors.Is(err, app.ErrEmailExists):
			message = "Email already exists."
		}
		logIfInternal(h.logger, status, "signup", err)
		c.HTML(status, "signup.html", gin.H{
			"Error":    message,
			"Username": form.Username,
			"Email":    form.Email,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/login/")
}

func (h *AuthHandler) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{"Error": "", "Email": ""})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{"Error": "Could not read the submitted form.", "Email": ""})
		return
	}

	user, err := h.userService.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		status, message := statusFor(err)
		switch {
		case errors.Is(err, app.ErrNotFound):
			message = "No account found for this email."
		case errors.Is(err, app.ErrInvalidCredential):
			message = "Incorrect password."
		}
		logIfInternal(h.logger, status, "login", err)
		c.HTML(status, "login.html", gin.H{
			"Error": message,
			"Email": form.Email,
		})
		return
	}

	c.HTML(http.StatusOK, "user.html", gin.H{
		"Username": user.Username,
		"Email":    user.Email,
	})
}

// APILogin is the JSON counterpart of Login and also issues a bearer token
// for the protected /api/users routes.
func (h *AuthHandler) APILogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		status, message := statusFor(err)
		logIfInternal(h.logger, status, "api login", err)
		response.Error(c, status, message)
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("issue token failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, "internal server error")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"data": gin.H{
			"username": user.Username,
			"email":    user.Email,
		},
		"token": token,
	})
}
