package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/expenso-dev/expenso/db"
	"github.com/expenso-dev/expenso/internal/models"
	"github.com/expenso-dev/expenso/internal/notify"
	"github.com/expenso-dev/expenso/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type IncomeRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"required"`
	Source      string          `json:"source"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
}

type IncomeResponse struct {
	ID          uint            `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Source      string          `json:"source"`
	Category    string          `json:"category"`
	Tags        []string        `json:"tags"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toIncomeResponse(income models.Income) IncomeResponse {
	var tags []string

	if len(income.Tags) > 0 {
		if err := json.Unmarshal(income.Tags, &tags); err != nil {
			log.Printf("Failed to decode tags for income %d: %v", income.ID, err)
		}
	}

	return IncomeResponse{
		ID:          income.ID,
		Amount:      income.Amount,
		Description: income.Description,
		Source:      income.Source,
		Category:    income.Category,
		Tags:        tags,
		CreatedAt:   income.CreatedAt,
	}
}

func AddIncome(emitter *notify.Emitter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var body IncomeRequest

		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		tags, err := encodeTags(body.Tags)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
			return
		}

		income := models.Income{
			UserID:      userID,
			Amount:      body.Amount,
			Description: body.Description,
			Source:      body.Source,
			Category:    body.Category,
			Tags:        tags,
		}

		if err := db.DB.Create(&income).Error; err != nil {
			log.Printf("Failed to create income: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create income"})
			return
		}

		if err := emitter.IncomeAdded(userID, income.Description, income.Amount); err != nil {
			log.Printf("Failed to emit income notification: %v", err)
		}

		ctx.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Income added successfully",
			"data":    toIncomeResponse(income),
		})
	}
}

func GetAllIncomes(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, page := paginationParams(ctx)

	var incomes []models.Income

	if err := db.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&incomes).Error; err != nil {
		log.Printf("Failed to list incomes: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list incomes"})
		return
	}

	var totalCount int64

	if err := db.DB.Model(&models.Income{}).Where("user_id = ?", userID).Count(&totalCount).Error; err != nil {
		log.Printf("Failed to count incomes: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list incomes"})
		return
	}

	responses := make([]IncomeResponse, 0, len(incomes))
	for _, income := range incomes {
		responses = append(responses, toIncomeResponse(income))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        responses,
		"totalCounts": totalCount,
		"totalPages":  int(math.Ceil(float64(totalCount) / float64(limit))),
		"currentPage": page,
	})
}

func UpdateIncome(emitter *notify.Emitter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		incomeID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid income ID"})
			return
		}

		var income models.Income

		if err := db.DB.First(&income, "id = ? AND user_id = ?", incomeID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Income not found"})
				return
			}
			log.Printf("Failed to fetch income: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		var body IncomeRequest

		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		tags, err := encodeTags(body.Tags)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
			return
		}

		previousAmount := income.Amount

		income.Amount = body.Amount
		income.Description = body.Description
		income.Source = body.Source
		income.Category = body.Category
		income.Tags = tags

		if err := db.DB.Save(&income).Error; err != nil {
			log.Printf("Failed to update income: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update income"})
			return
		}

		if err := emitter.IncomeUpdated(userID, income.Description, previousAmount, income.Amount); err != nil {
			log.Printf("Failed to emit income notification: %v", err)
		}

		ctx.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Income updated successfully",
			"data":    toIncomeResponse(income),
		})
	}
}

func DeleteIncome(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	incomeID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid income ID"})
		return
	}

	var income models.Income

	if err := db.DB.First(&income, "id = ? AND user_id = ?", incomeID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Income not found"})
			return
		}
		log.Printf("Failed to fetch income: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Delete(&income).Error; err != nil {
		log.Printf("Failed to delete income: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete income"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Income deleted successfully",
	})
}

func GetIncomeCardStats(ctx *gin.Context) {
	cardStats(ctx, &models.Income{})
}

func GetIncomeCategoryAnalytics(ctx *gin.Context) {
	categoryAnalytics(ctx, &models.Income{})
}
