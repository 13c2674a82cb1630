package controller

import (
	"fmt"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/shadower-ai/shadow-analytics/model"
	"github.com/shadower-ai/shadow-analytics/monitor"
)

// clockSkewTolerance is how far into the future an event timestamp may lie
// before ingestion rejects it.
const clockSkewTolerance = 5 * time.Minute

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
			t, ok := fl.Field().Interface().(time.Time)
			return ok && !t.After(time.Now().Add(clockSkewTolerance))
		})
	}
}

// UsageEventRequest is one consumption record from the metering pipeline.
type UsageEventRequest struct {
	Timestamp       time.Time `json:"timestamp" binding:"required,notfuture"`
	AgentID         string    `json:"agentId"`
	UserID          string    `json:"userId"`
	ModelName       string    `json:"modelName"`
	ProviderName    string    `json:"providerName"`
	CreditsConsumed float64   `json:"creditsConsumed" binding:"gte=0"`
	CallCount       int64     `json:"callCount" binding:"gte=0"`
}

type recordEventsRequest struct {
	Events []UsageEventRequest `json:"events" binding:"required,min=1,dive"`
}

// RecordEvents ingests a batch of usage events for a workspace. Events in the
// batch that name a different workspace are rejected wholesale before anything
// is written.
func RecordEvents(c *gin.Context) {
	workspaceID := c.Param("workspace_id")

	var req recordEventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, errors.Wrap(err, "invalid usage events payload"))
		return
	}

	rows := make([]*model.UsageEvent, 0, len(req.Events))
	for _, event := range req.Events {
		rows = append(rows, &model.UsageEvent{
			WorkspaceId:     workspaceID,
			AgentId:         event.AgentID,
			UserId:          event.UserID,
			ModelName:       event.ModelName,
			ProviderName:    event.ProviderName,
			CreditsConsumed: decimal.NewFromFloat(event.CreditsConsumed),
			CallCount:       event.CallCount,
			CreatedAt:       event.Timestamp.UTC().Unix(),
		})
	}
	if err := model.RecordUsageEvents(c.Request.Context(), rows); err != nil {
		respondError(c, err)
		return
	}
	monitor.UsageEventsRecorded.Add(float64(len(rows)))

	// New events shift today's numbers; the bucket tier is short-lived but the
	// forecast is cached for up to an hour and must not serve stale projections.
	today := time.Now().UTC().Format("2006-01-02")
	resultCache.Invalidate(c.Request.Context(), fmt.Sprintf("forecast:%s:%s", workspaceID, today))
	resultCache.Invalidate(c.Request.Context(), fmt.Sprintf("breakdown:%s:%s", workspaceID, today))

	respondOK(c, gin.H{"recorded": len(rows)})
}
