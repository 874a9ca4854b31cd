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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ExpenseRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Description   string          `json:"description" binding:"required"`
	PaymentMethod string          `json:"paymentMethod"`
	Category      string          `json:"category"`
	Tags          []string        `json:"tags"`
}

type ExpenseResponse struct {
	ID            uint            `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	PaymentMethod string          `json:"paymentMethod"`
	Category      string          `json:"category"`
	Tags          []string        `json:"tags"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func toExpenseResponse(expense models.Expense) ExpenseResponse {
	var tags []string

	if len(expense.Tags) > 0 {
		if err := json.Unmarshal(expense.Tags, &tags); err != nil {
			log.Printf("Failed to decode tags for expense %d: %v", expense.ID, err)
		}
	}

	return ExpenseResponse{
		ID:            expense.ID,
		Amount:        expense.Amount,
		Description:   expense.Description,
		PaymentMethod: expense.PaymentMethod,
		Category:      expense.Category,
		Tags:          tags,
		CreatedAt:     expense.CreatedAt,
	}
}

func encodeTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		return nil, nil
	}

	raw, err := json.Marshal(tags)

	if err != nil {
		return nil, err
	}

	return datatypes.JSON(raw), nil
}

// AddExpense persists the expense, then emits a notification as a
// best-effort side effect. An emission failure is logged and never blocks
// the response.
func AddExpense(emitter *notify.Emitter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		var body ExpenseRequest

		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		tags, err := encodeTags(body.Tags)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
			return
		}

		expense := models.Expense{
			UserID:        userID,
			Amount:        body.Amount,
			Description:   body.Description,
			PaymentMethod: body.PaymentMethod,
			Category:      body.Category,
			Tags:          tags,
		}

		if err := db.DB.Create(&expense).Error; err != nil {
			log.Printf("Failed to create expense: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create expense"})
			return
		}

		if err := emitter.ExpenseAdded(userID, expense.Description, expense.Amount); err != nil {
			log.Printf("Failed to emit expense notification: %v", err)
		}

		ctx.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "Expense added successfully",
			"data":    toExpenseResponse(expense),
		})
	}
}

func GetAllExpenses(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	limit, page := paginationParams(ctx)

	var expenses []models.Expense

	if err := db.DB.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&expenses).Error; err != nil {
		log.Printf("Failed to list expenses: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list expenses"})
		return
	}

	var totalCount int64

	if err := db.DB.Model(&models.Expense{}).Where("user_id = ?", userID).Count(&totalCount).Error; err != nil {
		log.Printf("Failed to count expenses: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list expenses"})
		return
	}

	responses := make([]ExpenseResponse, 0, len(expenses))
	for _, expense := range expenses {
		responses = append(responses, toExpenseResponse(expense))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"data":        responses,
		"totalCounts": totalCount,
		"totalPages":  int(math.Ceil(float64(totalCount) / float64(limit))),
		"currentPage": page,
	})
}

// UpdateExpense replaces the mutable fields and, when the amount changed,
// emits exactly one notification.
func UpdateExpense(emitter *notify.Emitter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		expenseID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
			return
		}

		var expense models.Expense

		if err := db.DB.First(&expense, "id = ? AND user_id = ?", expenseID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
				return
			}
			log.Printf("Failed to fetch expense: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		var body ExpenseRequest

		if err := ctx.BindJSON(&body); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		tags, err := encodeTags(body.Tags)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tags"})
			return
		}

		previousAmount := expense.Amount

		expense.Amount = body.Amount
		expense.Description = body.Description
		expense.PaymentMethod = body.PaymentMethod
		expense.Category = body.Category
		expense.Tags = tags

		if err := db.DB.Save(&expense).Error; err != nil {
			log.Printf("Failed to update expense: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update expense"})
			return
		}

		if err := emitter.ExpenseUpdated(userID, expense.Description, previousAmount, expense.Amount); err != nil {
			log.Printf("Failed to emit expense notification: %v", err)
		}

		ctx.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Expense updated successfully",
			"data":    toExpenseResponse(expense),
		})
	}
}

func DeleteExpense(ctx *gin.Context) {
	userID, err := utils.GetCurrentUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	expenseID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid expense ID"})
		return
	}

	var expense models.Expense

	if err := db.DB.First(&expense, "id = ? AND user_id = ?", expenseID, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
			return
		}
		log.Printf("Failed to fetch expense: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := db.DB.Delete(&expense).Error; err != nil {
		log.Printf("Failed to delete expense: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete expense"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Expense deleted successfully",
	})
}

func GetExpenseCardStats(ctx *gin.Context) {
	cardStats(ctx, &models.Expense{})
}

func GetExpenseCategoryAnalytics(ctx *gin.Context) {
	categoryAnalytics(ctx, &models.Expense{})
}

func paginationParams(ctx *gin.Context) (limit, page int) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}

	page, err = strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	return limit, page
}
