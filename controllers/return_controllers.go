package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

// Status retur
const (
	ReturnStatusRequested = "requested"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
)

type ReturnController struct {
	DB       *gorm.DB
	notifier *services.NotificationService
}

func NewReturnController(db *gorm.DB) *ReturnController {
	return &ReturnController{
		DB:       db,
		notifier: services.NewNotificationService(db),
	}
}

// RequestReturn mengajukan retur untuk order yang sudah sampai. Satu order
// hanya boleh punya satu pengajuan aktif.
func (rc *ReturnController) RequestReturn(c *gin.Context) {
	userID := c.GetUint("user_id")

	var input struct {
		OrderRef string `json:"order_id" binding:"required"`
		Reason   string `json:"reason" binding:"required"`
		PhotoURL string `json:"photo_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var order models.Order
	if err := rc.DB.Where("order_id = ? AND user_id = ?", input.OrderRef, userID).
		First(&order).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("order not found"))
		return
	}

	if order.OrderStatus != services.OrderStatusDelivered && order.OrderStatus != services.OrderStatusCompleted {
		utils.RespondError(c, http.StatusConflict, errors.New("only delivered orders can be returned"))
		return
	}

	var existing int64
	rc.DB.Model(&models.ProductReturn{}).
		Where("order_id = ? AND status = ?", order.ID, ReturnStatusRequested).
		Count(&existing)
	if existing > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("a return request for this order is already pending"))
		return
	}

	ret := models.ProductReturn{
		OrderID:  order.ID,
		UserID:   userID,
		Reason:   input.Reason,
		PhotoURL: input.PhotoURL,
		Status:   ReturnStatusRequested,
	}
	if err := rc.DB.Create(&ret).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Return requested for order %s by user %d", order.OrderID, userID)
	utils.RespondJSON(c, http.StatusCreated, "Return requested", ret)
}

// GetMyReturns -> daftar retur milik customer
func (rc *ReturnController) GetMyReturns(c *gin.Context) {
	var returns []models.ProductReturn
	if err := rc.DB.Preload("Order").Where("user_id = ?", c.GetUint("user_id")).
		Order("created_at DESC").Find(&returns).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "My returns", returns)
}

// GetAllReturns (staff/admin) dengan filter status
func (rc *ReturnController) GetAllReturns(c *gin.Context) {
	query := rc.DB.Preload("Order")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var returns []models.ProductReturn
	if err := query.Order("created_at DESC").Find(&returns).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of returns", returns)
}

// ReviewReturn (staff/admin) menyetujui/menolak pengajuan. Approve menandai
// order returned dan memberi tahu customer.
func (rc *ReturnController) ReviewReturn(c *gin.Context) {
	var input struct {
		Status string `json:"status" binding:"required,oneof=approved rejected"`
		Note   string `json:"note"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var ret models.ProductReturn
	if err := rc.DB.Preload("Order").First(&ret, c.Param("id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("return request not found"))
		return
	}
	if ret.Status != ReturnStatusRequested {
		utils.RespondError(c, http.StatusConflict, errors.New("return request already reviewed"))
		return
	}

	reviewerID := c.GetUint("user_id")
	now := time.Now()
	ret.Status = input.Status
	ret.ReviewedBy = &reviewerID
	ret.ReviewedAt = &now
	if err := rc.DB.Save(&ret).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	message := fmt.Sprintf("Pengajuan retur order %s ditolak.", ret.Order.OrderID)
	if input.Status == ReturnStatusApproved {
		if err := rc.DB.Model(&models.Order{}).Where("id = ?", ret.OrderID).
			Update("order_status", services.OrderStatusReturned).Error; err != nil {
			utils.ErrorLogger.Printf("Failed to mark order %s returned: %v", ret.Order.OrderID, err)
		}
		message = fmt.Sprintf("Pengajuan retur order %s disetujui. Tim kami akan menghubungi Anda untuk penjemputan barang.", ret.Order.OrderID)
	}
	if input.Note != "" {
		message += " Catatan: " + input.Note
	}

	rc.notifier.NotifyReturnUpdate(&ret, ret.Order.OrderID, message)
	utils.RespondJSON(c, http.StatusOK, "Return reviewed", ret)
}
