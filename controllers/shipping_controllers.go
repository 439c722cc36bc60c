package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

type ShippingController struct {
	Shipping *services.RajaOngkirService
}

func NewShippingController(shipping *services.RajaOngkirService) *ShippingController {
	return &ShippingController{Shipping: shipping}
}

// GetProvinces -> daftar provinsi untuk dropdown alamat
func (sc *ShippingController) GetProvinces(c *gin.Context) {
	provinces, err := sc.Shipping.GetProvinces(c.Request.Context())
	if err != nil {
		utils.ErrorLogger.Printf("Failed to fetch provinces: %v", err)
		utils.RespondError(c, http.StatusBadGateway, errors.New("failed to fetch provinces"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of provinces", provinces)
}

// GetCities -> daftar kota, bisa difilter ?province_id=
func (sc *ShippingController) GetCities(c *gin.Context) {
	cities, err := sc.Shipping.GetCities(c.Request.Context(), c.Query("province_id"))
	if err != nil {
		utils.ErrorLogger.Printf("Failed to fetch cities: %v", err)
		utils.RespondError(c, http.StatusBadGateway, errors.New("failed to fetch cities"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of cities", cities)
}

// GetShippingCost menghitung tarif kurir untuk tujuan + berat tertentu.
// Berat diambil dari query (gram); frontend memakai weight_grams hasil
// endpoint cart supaya angka yang dilihat customer = angka yang ditagih.
func (sc *ShippingController) GetShippingCost(c *gin.Context) {
	destination := c.Query("destination")
	courier := c.DefaultQuery("courier", "jne")
	if destination == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("destination is required"))
		return
	}

	weight, err := strconv.Atoi(c.DefaultQuery("weight", "0"))
	if err != nil || weight < 0 {
		utils.RespondError(c, http.StatusBadRequest, errors.New("weight must be a non-negative integer (grams)"))
		return
	}

	rates, err := sc.Shipping.GetCost(c.Request.Context(), destination, weight, courier)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to fetch shipping cost to %s: %v", destination, err)
		utils.RespondError(c, http.StatusBadGateway, errors.New("failed to fetch shipping cost"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Shipping rates", gin.H{
		"courier":      courier,
		"destination":  destination,
		"weight_grams": weight,
		"rates":        rates,
	})
}
