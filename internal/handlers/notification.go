package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/expenso-dev/expenso/db"
	"github.com/expenso-dev/expenso/internal/models"
	"github.com/expenso-dev/expenso/internal/notify"
	"github.com/expenso-dev/expenso/internal/types"
	"github.com/expenso-dev/expenso/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotifications serves the historical list the client reconciles
// against, newest first, optionally filtered to one category.
func GetNotifications(store notify.Store) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		category := types.Category(ctx.Query("category"))

		if category != "" && !category.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
			return
		}

		notifications, err := store.ListByOwner(userID, category)

		if err != nil {
			log.Printf("Failed to list notifications for user %d: %v", userID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
			return
		}

		payloads := make([]types.NotificationPayload, 0, len(notifications))
		for i := range notifications {
			payloads = append(payloads, notifications[i].Payload())
		}

		ctx.JSON(http.StatusOK, gin.H{
			"success": true,
			"data":    payloads,
		})
	}
}

// MarkNotificationRead flips the read flag and pushes the updated record to
// the owner's open connections.
func MarkNotificationRead(publisher *notify.Publisher) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		userID, err := utils.GetCurrentUserID(ctx)

		if err != nil {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
			return
		}

		notificationID, err := strconv.ParseUint(ctx.Param("id"), 10, 64)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
			return
		}

		var notification models.Notification

		if err := db.DB.First(&notification, "id = ? AND user_id = ?", notificationID, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
				return
			}
			log.Printf("Failed to fetch notification: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if err := publisher.MarkRead(uint(notificationID)); err != nil {
			log.Printf("Failed to mark notification %d read: %v", notificationID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark notification read"})
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Notification marked as read",
		})
	}
}
