package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const MsgMethodNotAllowed = "Method not allowed. Use GET, PUT or DELETE."

// Success writes {"success": true, ...fields}.
func Success(c *gin.Context, httpStatus int, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(httpStatus, body)
}

func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, gin.H{
		"success": false,
		"error":   message,
	})
}

func MethodNotAllowed(c *gin.Context) {
	Error(c, http.StatusMethodNotAllowed, MsgMethodNotAllowed)
}
