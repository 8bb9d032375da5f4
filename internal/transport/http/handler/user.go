package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"loginify/internal/app"
	"loginify/internal/model"
	"loginify/internal/transport/http/middleware"
	"loginify/internal/transport/http/response"
)

type UserHandler struct {
	userService *app.UserService
	logger      *zap.Logger
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserView(u *model.User) userView {
	return userView{Username: u.Username, Email: u.Email}
}

func NewUserHandler(userService *app.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		h.fail(c, "list users", err)
		return
	}

	data := make([]userView, 0, len(users))
	for i := range users {
		data = append(data, toUserView(&users[i]))
	}
	response.Success(c, http.StatusOK, gin.H{
		"count": len(data),
		"data":  data,
	})
}

func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.GetUser(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, "get user", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"data": toUserView(user)})
}

func (h *UserHandler) Update(c *gin.Context) {
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), c.Param("email"), app.UpdateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, "update user", err)
		return
	}

	h.logger.Info("user updated", append(actorFields(c),
		zap.String("username", user.Username),
		zap.String("email", user.Email),
	)...)
	response.Success(c, http.StatusOK, gin.H{
		"message": "User updated successfully",
		"data":    toUserView(user),
	})
}

func (h *UserHandler) Delete(c *gin.Context) {
	username, err := h.userService.DeleteUser(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, "delete user", err)
		return
	}

	h.logger.Info("user deleted", append(actorFields(c), zap.String("username", username))...)
	response.Success(c, http.StatusOK, gin.H{
		"message": fmt.Sprintf("User '%s' deleted successfully", username),
	})
}

// Events returns the audit history of a user. ?limit caps the page size.
func (h *UserHandler) Events(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.Error(c, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	events, err := h.userService.UserEvents(c.Request.Context(), c.Param("email"), limit)
	if err != nil {
		h.fail(c, "list user events", err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"count": len(events),
		"data":  events,
	})
}

// actorFields names the token holder when the write routes are protected.
func actorFields(c *gin.Context) []zap.Field {
	actor := c.GetString(middleware.ContextUsernameKey)
	if actor == "" {
		return []zap.Field{zap.Bool("authenticated", false)}
	}
	return []zap.Field{
		zap.String("actor", actor),
		zap.String("actor_email", c.GetString(middleware.ContextEmailKey)),
	}
}

func (h *UserHandler) fail(c *gin.Context, op string, err error) {
	status, message := statusFor(err)
	logIfInternal(h.logger, status, op, err)
	response.Error(c, status, message)
}
