package http

import "github.com/gin-gonic/gin"

// Register mounts the meal routes on rg (expected to be /api/v1 behind auth).
func (h *Handler) Register(rg *gin.RouterGroup) {
	meal := rg.Group("/meal")
	meal.POST("/analyze", h.Analyze)
	meal.GET("/quota", h.Quota)
	meal.GET("/monthly/:yearMonth", h.MonthlyStatistics)
	meal.GET("/:date", h.DailyMeals)
}
