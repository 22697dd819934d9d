package handlers

import (
	"context"
	"net/http"
	"time"

	"merritt/database"
	"merritt/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler pings the stores and reports 503 when one is down.
func HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := utils.CheckHealth(ctx, utils.GetCacheClient(), database.MongoClient)
	code := http.StatusOK
	if !status.Mongo {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "message": "Merritt Workspace"})
}
