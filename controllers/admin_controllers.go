package controllers

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-pdf/fpdf"
	"github.com/wcharczuk/go-chart/v2"
	"gorm.io/gorm"

	"github.com/egyw/proyek-fpw-sub002/models"
	"github.com/egyw/proyek-fpw-sub002/services"
	"github.com/egyw/proyek-fpw-sub002/utils"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// salesRow adalah satu baris agregasi penjualan harian (order yang dibayar).
type salesRow struct {
	Day     string  `json:"day"`
	Orders  int64   `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// GetDashboardStats -> angka ringkas untuk dashboard staff/admin
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	var (
		totalOrders     int64
		awaitingPayment int64
		processing      int64
		shipped         int64
		pendingReturns  int64
	)
	ac.DB.Model(&models.Order{}).Count(&totalOrders)
	ac.DB.Model(&models.Order{}).Where("order_status = ?", services.OrderStatusAwaitingPayment).Count(&awaitingPayment)
	ac.DB.Model(&models.Order{}).Where("order_status = ?", services.OrderStatusProcessing).Count(&processing)
	ac.DB.Model(&models.Order{}).Where("order_status = ?", services.OrderStatusShipped).Count(&shipped)
	ac.DB.Model(&models.ProductReturn{}).Where("status = ?", ReturnStatusRequested).Count(&pendingReturns)

	today := time.Now().Format("2006-01-02")
	var revenueToday float64
	ac.DB.Model(&models.Order{}).
		Where("payment_status = ? AND DATE(paid_at) = ?", services.PaymentStatusPaid, today).
		Select("COALESCE(SUM(total), 0)").Scan(&revenueToday)

	monthStart := time.Now().Format("2006-01") + "-01"
	var revenueMonth float64
	ac.DB.Model(&models.Order{}).
		Where("payment_status = ? AND DATE(paid_at) >= ?", services.PaymentStatusPaid, monthStart).
		Select("COALESCE(SUM(total), 0)").Scan(&revenueMonth)

	// produk aktif dengan stok di bawah 10 satuan jual
	var lowStock []models.Product
	ac.DB.Preload("Category").
		Where("is_active = ? AND stock < ?", true, 10.0).
		Order("stock ASC").Limit(10).Find(&lowStock)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"total_orders":     totalOrders,
		"awaiting_payment": awaitingPayment,
		"processing":       processing,
		"shipped":          shipped,
		"pending_returns":  pendingReturns,
		"revenue_today":    revenueToday,
		"revenue_month":    revenueMonth,
		"low_stock":        lowStock,
	})
}

// salesReportRange membaca rentang tanggal dari query, default 30 hari terakhir.
func salesReportRange(c *gin.Context) (time.Time, time.Time, error) {
	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid start date %q, expected YYYY-MM-DD", raw)
		}
		start = parsed
	}
	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return start, end, fmt.Errorf("invalid end date %q, expected YYYY-MM-DD", raw)
		}
		// inklusif sampai akhir hari
		end = parsed.Add(24*time.Hour - time.Second)
	}
	if end.Before(start) {
		return start, end, errors.New("end date is before start date")
	}
	return start, end, nil
}

// loadSalesRows mengagregasi order yang dibayar per hari di rentang tanggal.
func (ac *AdminController) loadSalesRows(start, end time.Time) ([]salesRow, error) {
	var rows []salesRow
	err := ac.DB.Model(&models.Order{}).
		Select("DATE(paid_at) AS day, COUNT(*) AS orders, COALESCE(SUM(total), 0) AS revenue").
		Where("payment_status = ? AND paid_at BETWEEN ? AND ?", services.PaymentStatusPaid, start, end).
		Group("DATE(paid_at)").
		Order("day ASC").
		Scan(&rows).Error
	return rows, err
}

// GetSalesReport -> rekap penjualan harian (JSON)
func (ac *AdminController) GetSalesReport(c *gin.Context) {
	start, end, err := salesReportRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	rows, err := ac.loadSalesRows(start, end)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var totalOrders int64
	var totalRevenue float64
	for _, row := range rows {
		totalOrders += row.Orders
		totalRevenue += row.Revenue
	}

	utils.RespondJSON(c, http.StatusOK, "Sales report", gin.H{
		"start":         start.Format("2006-01-02"),
		"end":           end.Format("2006-01-02"),
		"days":          rows,
		"total_orders":  totalOrders,
		"total_revenue": totalRevenue,
	})
}

// ExportSalesReportPDF merender rekap penjualan jadi PDF: grafik batang
// revenue harian + tabel rinciannya. Respons langsung attachment.
func (ac *AdminController) ExportSalesReportPDF(c *gin.Context) {
	start, end, err := salesReportRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	rows, err := ac.loadSalesRows(start, end)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if len(rows) == 0 {
		utils.RespondError(c, http.StatusNotFound, errors.New("no paid orders in the selected range"))
		return
	}

	chartPNG, err := renderRevenueChart(rows)
	if err != nil {
		// grafik opsional, laporan tetap jalan tanpa gambar
		utils.ErrorLogger.Printf("Failed to render revenue chart: %v", err)
		chartPNG = nil
	}

	pdfBytes, err := buildSalesReportPDF(start, end, rows, chartPNG)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to build sales report PDF: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to build report"))
		return
	}

	filename := fmt.Sprintf("laporan-penjualan-%s-%s.pdf", start.Format("20060102"), end.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// renderRevenueChart menggambar bar chart revenue per hari sebagai PNG.
func renderRevenueChart(rows []salesRow) ([]byte, error) {
	bars := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		label := row.Day
		if len(label) >= 10 {
			label = label[5:10] // MM-DD saja supaya muat
		}
		bars = append(bars, chart.Value{Label: label, Value: row.Revenue})
	}

	graph := chart.BarChart{
		Title:    "Revenue per hari",
		Height:   320,
		Width:    900,
		BarWidth: 40,
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// buildSalesReportPDF menyusun dokumen laporan: judul, periode, grafik, tabel.
func buildSalesReportPDF(start, end time.Time, rows []salesRow, chartPNG []byte) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Laporan Penjualan Toko Bangunan")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Periode: %s s/d %s", start.Format("02 Jan 2006"), end.Format("02 Jan 2006")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Dibuat: %s", time.Now().Format("02 Jan 2006 15:04")))
	pdf.Ln(10)

	if len(chartPNG) > 0 {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("revenue-chart", opts, bytes.NewReader(chartPNG))
		pdf.ImageOptions("revenue-chart", 10, pdf.GetY(), 190, 0, false, opts, 0, "")
		pdf.Ln(75)
	}

	// Header tabel
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(60, 8, "Tanggal", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Order Dibayar", "1", 0, "C", true, 0, "")
	pdf.CellFormat(90, 8, "Revenue", "1", 1, "R", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	var totalOrders int64
	var totalRevenue float64
	for _, row := range rows {
		pdf.CellFormat(60, 7, row.Day, "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", row.Orders), "1", 0, "C", false, 0, "")
		pdf.CellFormat(90, 7, utils.FormatCurrencyIDR(row.Revenue), "1", 1, "R", false, 0, "")
		totalOrders += row.Orders
		totalRevenue += row.Revenue
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 8, "Total", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", totalOrders), "1", 0, "C", true, 0, "")
	pdf.CellFormat(90, 8, utils.FormatCurrencyIDR(totalRevenue), "1", 1, "R", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
