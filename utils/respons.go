package utils

import (
	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Status bool   `json:"status"`
	Error  string `json:"error"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondError writes {"status": false, "error": msg}. msg is sent as is,
// so callers must not pass raw storage or gateway errors here.
func RespondError(c *gin.Context, code int, msg string) {
	c.JSON(code, ErrorResponse{
		Status: false,
		Error:  msg,
	})
}

// RespondAbort is RespondError for middlewares.
func RespondAbort(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, ErrorResponse{
		Status: false,
		Error:  msg,
	})
}
