package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

type CategoryController struct {
	DB *gorm.DB
}

func NewCategoryController(db *gorm.DB) *CategoryController {
	return &CategoryController{DB: db}
}

// GetAllCategories
func (cc *CategoryController) GetAllCategories(c *gin.Context) {
	var categories []models.ProductCategory
	if err := cc.DB.Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

// GetCategoryUnits -> daftar satuan jual yang didukung untuk satu kategori.
// Kategori tanpa tabel konversi mengembalikan list kosong: storefront
// menyembunyikan pilihan satuan dan hanya menjual dalam satuan asli produk.
func (cc *CategoryController) GetCategoryUnits(c *gin.Context) {
	name := c.Param("name")

	units := services.SupportedUnits(name)
	if units == nil {
		utils.RespondJSON(c, http.StatusOK, "No unit conversion for this category", []services.UnitDefinition{})
		return
	}

	table, _ := services.LookupCategoryTable(name)
	utils.RespondJSON(c, http.StatusOK, "Supported units", gin.H{
		"base_unit": table.BaseUnit,
		"units":     units,
	})
}

// CreateCategory (admin)
func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var input struct {
		Name     string `json:"name" binding:"required"`
		BaseUnit string `json:"base_unit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	category := models.ProductCategory{
		Name:     input.Name,
		BaseUnit: input.BaseUnit,
	}
	if err := cc.DB.Create(&category).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Category created", category)
}

// UpdateCategory (admin)
func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("cat_id"))

	var category models.ProductCategory
	if err := cc.DB.First(&category, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("category not found"))
		return
	}

	var input struct {
		Name     string `json:"name"`
		BaseUnit string `json:"base_unit"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if input.Name != "" {
		category.Name = input.Name
	}
	if input.BaseUnit != "" {
		category.BaseUnit = input.BaseUnit
	}

	if err := cc.DB.Save(&category).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Category updated", category)
}

// DeleteCategory (admin)
func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("cat_id"))

	var count int64
	cc.DB.Model(&models.Product{}).Where("category_id = ?", id).Count(&count)
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("category still has products"))
		return
	}

	if err := cc.DB.Delete(&models.ProductCategory{}, id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Category deleted", gin.H{"cat_id": id})
}
