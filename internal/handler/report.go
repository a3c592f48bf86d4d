package handler

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/feastline/backoffice/internal/domain/report"
)

const queryDateLayout = "2006-01-02"

// ReportHandler serves the aggregation and export endpoints.
type ReportHandler struct {
	reports  *report.Service
	exporter *report.Exporter
}

// NewReportHandler creates a ReportHandler over the report service and the
// spreadsheet exporter.
func NewReportHandler(svc *report.Service, exporter *report.Exporter) *ReportHandler {
	return &ReportHandler{reports: svc, exporter: exporter}
}

type turnoverResponse struct {
	Dates    []string          `json:"dateList"`
	Turnover []decimal.Decimal `json:"turnoverList"`
}

// Turnover handles GET /admin/report/turnoverStatistics.
func (h *ReportHandler) Turnover(c *gin.Context) {
	begin, end, err := dateRangeQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.reports.Turnover(c.Request.Context(), begin, end)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, turnoverResponse{
		Dates:    formatDates(r.Dates),
		Turnover: r.Turnover,
	})
}

type userGrowthResponse struct {
	Dates      []string `json:"dateList"`
	NewUsers   []int    `json:"newUserList"`
	TotalUsers []int    `json:"totalUserList"`
}

// UserGrowth handles GET /admin/report/userStatistics.
func (h *ReportHandler) UserGrowth(c *gin.Context) {
	begin, end, err := dateRangeQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.reports.UserGrowth(c.Request.Context(), begin, end)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, userGrowthResponse{
		Dates:      formatDates(r.Dates),
		NewUsers:   r.NewUsers,
		TotalUsers: r.TotalUsers,
	})
}

type orderStatsResponse struct {
	Dates            []string `json:"dateList"`
	OrderCounts      []int    `json:"orderCountList"`
	ValidOrderCounts []int    `json:"validOrderCountList"`
	TotalOrderCount  int      `json:"totalOrderCount"`
	ValidOrderCount  int      `json:"validOrderCount"`
	CompletionRate   float64  `json:"orderCompletionRate"`
}

// OrderStats handles GET /admin/report/ordersStatistics.
func (h *ReportHandler) OrderStats(c *gin.Context) {
	begin, end, err := dateRangeQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.reports.OrderStats(c.Request.Context(), begin, end)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderStatsResponse{
		Dates:            formatDates(r.Dates),
		OrderCounts:      r.OrderCounts,
		ValidOrderCounts: r.ValidOrderCounts,
		TotalOrderCount:  r.TotalOrderCount,
		ValidOrderCount:  r.ValidOrderCount,
		CompletionRate:   r.CompletionRate,
	})
}

type salesTopResponse struct {
	Names   []string `json:"nameList"`
	Numbers []int    `json:"numberList"`
}

// TopSales handles GET /admin/report/top10.
func (h *ReportHandler) TopSales(c *gin.Context) {
	begin, end, err := dateRangeQuery(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	r, err := h.reports.TopSales(c.Request.Context(), begin, end)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, salesTopResponse{Names: r.Names, Numbers: r.Numbers})
}

// Export handles GET /admin/report/export. The workbook is built in memory
// first so a failed export still produces a clean error response.
func (h *ReportHandler) Export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exporter.ExportLast30Days(c.Request.Context(), &buf); err != nil {
		internalError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="business-report.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func dateRangeQuery(c *gin.Context) (time.Time, time.Time, error) {
	begin, err := time.ParseInLocation(queryDateLayout, c.Query("begin"), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "parse begin")
	}
	end, err := time.ParseInLocation(queryDateLayout, c.Query("end"), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, errors.Wrap(err, "parse end")
	}
	return begin, end, nil
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(queryDateLayout)
	}
	return out
}
