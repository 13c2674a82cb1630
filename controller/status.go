package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/shadower-ai/shadow-analytics/common"
	"github.com/shadower-ai/shadow-analytics/common/graceful"
)

// GetStatus reports process liveness and build information.
func GetStatus(c *gin.Context) {
	respondOK(c, gin.H{
		"version":    common.Version,
		"start_time": common.StartTime,
		"draining":   graceful.IsDraining(),
	})
}
