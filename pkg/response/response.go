// Package response renders the JSON envelope shared by every API route.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every JSON reply. Code is 0 on success and
// the HTTP status otherwise.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Page wraps one window of a listing
type Page struct {
	Items  any `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Message: "success", Data: data})
}

// Paged sends one window of a listing
func Paged(c *gin.Context, items any, limit, offset int) {
	Success(c, Page{Items: items, Limit: limit, Offset: offset})
}

// Error sends an error reply with the status as its code
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Code: status, Message: message})
}

// Abort sends an error reply from middleware and stops the chain
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Code: status, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
