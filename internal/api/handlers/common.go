package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/voicedit/internal/utils"
)

type APIError struct {
	Error string `json:"error"`
}

// writeError responds with the outermost AppError's safe message; causes
// further down the chain stay in the logs.
func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)
	_ = c.Error(err)

	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		c.AbortWithStatusJSON(status, APIError{Error: ae.Message})
		return
	}

	c.AbortWithStatusJSON(status, APIError{Error: http.StatusText(status)})
}
