package handlers

import (
	"log"
	"net/http"
	"time"

	"github.com/expenso-dev/expenso/db"
	"github.com/expenso-dev/expenso/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Count    int64           `json:"count"`
}

type CardStats struct {
	CurrentMonthTotal  decimal.Decimal `json:"currentMonthTotal"`
	PreviousMonthTotal decimal.Decimal `json:"previousMonthTotal"`
	PercentChange      decimal.Decimal `json:"percentChange"`
}

// cardStats computes this month's total against last month's for either
// ledger side. model selects the table.
func cardStats(ctx *gin.Context, model interface{}) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	previousStart := monthStart.AddDate(0, -1, 0)

	current, err := sumBetween(model, userID, monthStart, now)

	if err != nil {
		log.Printf("Failed to compute current month total: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	previous, err := sumBetween(model, userID, previousStart, monthStart)

	if err != nil {
		log.Printf("Failed to compute previous month total: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
		return
	}

	change := decimal.Zero

	if !previous.IsZero() {
		change = current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": CardStats{
			CurrentMonthTotal:  current,
			PreviousMonthTotal: previous,
			PercentChange:      change,
		},
	})
}

func sumBetween(model interface{}, userID uint, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal

	err := db.DB.Model(model).
		Select("SUM(amount)").
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Scan(&total).Error

	if err != nil {
		return decimal.Zero, err
	}

	if !total.Valid {
		return decimal.Zero, nil
	}

	return total.Decimal, nil
}

func categoryAnalytics(ctx *gin.Context, model interface{}) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var totals []CategoryTotal

	err = db.DB.Model(model).
		Select("category, SUM(amount) AS total, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Order("total DESC").
		Scan(&totals).Error

	if err != nil {
		log.Printf("Failed to compute category analytics: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    totals,
	})
}
