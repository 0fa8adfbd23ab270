// internal/interfaces/http/handlers/response.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-client/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront-client/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-client/internal/pkg/apiclient"
)

// respond writes the {data, message} envelope
func respond(c *gin.Context, status int, message string, data any) {
	body := gin.H{"data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// respondList writes the {data, meta} envelope of a page
func respondList(c *gin.Context, data any, page postgres.Page, total int64) {
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"meta": apiclient.Meta{
			Total:      int(total),
			Page:       page.Number,
			Limit:      page.Limit,
			TotalPages: page.TotalPages(total),
		},
	})
}

// respondMessage writes an envelope without data
func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"message": message})
}

// respondBadRequest reports an undecodable request
func respondBadRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// respondError maps repository errors onto status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, postgres.ErrNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, postgres.ErrForbidden):
		status, message = http.StatusForbidden, err.Error()
	case errors.Is(err, postgres.ErrConflict):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, postgres.ErrInvalid):
		status, message = http.StatusUnprocessableEntity, err.Error()
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message})
}

// pageFromQuery reads page and limit query parameters
func pageFromQuery(c *gin.Context) postgres.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return postgres.NewPage(page, limit)
}

// scopeOf returns the repository scope of the authenticated caller
func scopeOf(c *gin.Context) (postgres.Scope, bool) {
	p, ok := middleware.PrincipalFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return postgres.Scope{}, false
	}
	return postgres.Scope{UserID: p.UserID, StoreID: p.StoreID, Role: p.Role}, true
}
