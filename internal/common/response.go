package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// OK writes the success envelope.
func OK(c *gin.Context, data any) {
	Respond(c, http.StatusOK, data)
}

// Respond writes the success envelope with a custom status.
func Respond(c *gin.Context, httpStatus int, data any) {
	c.JSON(httpStatus, gin.H{
		"code":    0,
		"message": "ok",
		"data":    data,
	})
}

func Fail(c *gin.Context, httpStatus int, code int, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"code":    code,
		"message": msg,
		"data":    nil,
	})
}
