package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Helllokittti/tiktok-prototip/internal/observ"
	"github.com/Helllokittti/tiktok-prototip/internal/validate"
)

// Every error body is {"message": ..., "error"?: ...}. message is meant for
// people; error carries the detail behind it.

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"message": message}
	if err != nil {
		body["error"] = validate.Describe(err)
	}
	c.JSON(http.StatusBadRequest, body)
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, gin.H{"message": message})
}

func conflict(c *gin.Context, message string) {
	c.JSON(http.StatusConflict, gin.H{"message": message})
}

// serverError logs err with the request id and answers 500 with message.
// The error itself never reaches the client.
func serverError(c *gin.Context, logger *zap.Logger, message string, err error) {
	logger.Error(message,
		zap.String("request_id", observ.RequestID(c)),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"message": message})
}

// pathID reads a positive integer path parameter. On failure it has
// already answered 400.
func pathID(c *gin.Context, name, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid " + what + " id"})
		return 0, false
	}
	return id, true
}
