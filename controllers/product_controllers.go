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

type ProductController struct {
	DB *gorm.DB
}

func NewProductController(db *gorm.DB) *ProductController {
	return &ProductController{DB: db}
}

// GetAllProducts -> listing publik, hanya produk aktif
func (pc *ProductController) GetAllProducts(c *gin.Context) {
	query := pc.DB.Preload("Category").Where("is_active = ?", true)

	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.Query("q"); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

// GetProductByID -> detail produk
func (pc *ProductController) GetProductByID(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	var product models.Product
	if err := pc.DB.Preload("Category").First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Product detail", product)
}

// GetProductUnits -> harga dan stok produk dihitung per satuan jual yang
// didukung kategorinya. Kategori tanpa tabel konversi hanya mengembalikan
// satuan asli produk.
func (pc *ProductController) GetProductUnits(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	var product models.Product
	if err := pc.DB.Preload("Category").First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}

	type unitOption struct {
		Unit      string  `json:"unit"`
		Label     string  `json:"label"`
		UnitPrice float64 `json:"unit_price"`
		Stock     float64 `json:"stock"`
	}

	units := services.SupportedUnits(product.Category.Name)
	if units == nil {
		utils.RespondJSON(c, http.StatusOK, "Product units", []unitOption{{
			Unit:      product.Unit,
			Label:     product.Unit,
			UnitPrice: product.Price,
			Stock:     product.Stock,
		}})
		return
	}

	options := make([]unitOption, 0, len(units))
	for _, def := range units {
		price, err := services.PriceFor(product.Category.Name, 1, def.Unit, product.Unit, product.Price)
		if err != nil {
			continue
		}
		stock, err := services.StockAvailable(product.Category.Name, product.Stock, product.Unit, def.Unit)
		if err != nil {
			continue
		}
		options = append(options, unitOption{
			Unit:      def.Unit,
			Label:     def.Label,
			UnitPrice: price,
			Stock:     stock,
		})
	}

	utils.RespondJSON(c, http.StatusOK, "Product units", options)
}

// CreateProduct (admin)
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var input struct {
		CategoryID  uint     `json:"category_id" binding:"required"`
		Name        string   `json:"name" binding:"required"`
		Description string   `json:"description"`
		Unit        string   `json:"unit" binding:"required"`
		Price       float64  `json:"price" binding:"required,gt=0"`
		Stock       float64  `json:"stock" binding:"gte=0"`
		WeightKg    *float64 `json:"weight_kg"`
		ImageURL    string   `json:"image_url"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category models.ProductCategory
	if err := pc.DB.First(&category, input.CategoryID).Error; err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid category_id"))
		return
	}

	if input.WeightKg != nil && *input.WeightKg <= 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("weight_kg must be positive"))
		return
	}

	product := models.Product{
		CategoryID:  input.CategoryID,
		Name:        input.Name,
		Description: input.Description,
		Unit:        input.Unit,
		Price:       input.Price,
		Stock:       input.Stock,
		WeightKg:    input.WeightKg,
		ImageURL:    input.ImageURL,
		IsActive:    true,
	}
	if err := pc.DB.Create(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// UpdateProduct (admin)
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	var product models.Product
	if err := pc.DB.First(&product, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}

	var input struct {
		CategoryID  *uint    `json:"category_id"`
		Name        string   `json:"name"`
		Description *string  `json:"description"`
		Unit        string   `json:"unit"`
		Price       *float64 `json:"price"`
		Stock       *float64 `json:"stock"`
		WeightKg    *float64 `json:"weight_kg"`
		ImageURL    *string  `json:"image_url"`
		IsActive    *bool    `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if input.CategoryID != nil {
		product.CategoryID = *input.CategoryID
	}
	if input.Name != "" {
		product.Name = input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Unit != "" {
		product.Unit = input.Unit
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("price must be positive"))
			return
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("stock cannot be negative"))
			return
		}
		product.Stock = *input.Stock
	}
	if input.WeightKg != nil {
		product.WeightKg = input.WeightKg
	}
	if input.ImageURL != nil {
		product.ImageURL = *input.ImageURL
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

// DeleteProduct (admin) -> soft-disable, order lama tetap punya snapshot
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, _ := strconv.Atoi(c.Param("product_id"))

	res := pc.DB.Model(&models.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("product not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Product deactivated", gin.H{"product_id": id})
}
