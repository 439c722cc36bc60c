package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

type NotificationController struct {
	DB *gorm.DB
}

func NewNotificationController(db *gorm.DB) *NotificationController {
	return &NotificationController{DB: db}
}

// GetMyNotifications -> notifikasi milik user yang login, terbaru dulu
func (nc *NotificationController) GetMyNotifications(c *gin.Context) {
	userID := c.GetUint("user_id")

	query := nc.DB.Where("user_id = ?", userID)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(100).Find(&notifications).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var unread int64
	nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).Count(&unread)

	utils.RespondJSON(c, http.StatusOK, "My notifications", gin.H{
		"notifications": notifications,
		"unread_count":  unread,
	})
}

// MarkAsRead menandai satu notifikasi sudah dibaca
func (nc *NotificationController) MarkAsRead(c *gin.Context) {
	res := nc.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", c.Param("id"), c.GetUint("user_id")).
		Update("is_read", true)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("notification not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification marked as read", nil)
}

// MarkAllAsRead menandai semua notifikasi user sudah dibaca
func (nc *NotificationController) MarkAllAsRead(c *gin.Context) {
	if err := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", c.GetUint("user_id"), false).
		Update("is_read", true).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All notifications marked as read", nil)
}

// DeleteNotification menghapus satu notifikasi milik user
func (nc *NotificationController) DeleteNotification(c *gin.Context) {
	res := nc.DB.Where("id = ? AND user_id = ?", c.Param("id"), c.GetUint("user_id")).
		Delete(&models.Notification{})
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("notification not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Notification deleted", nil)
}
