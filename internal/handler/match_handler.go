package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/service"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/sheet"
)

// MatchHandler serves price reconciliation as JSON and as Excel workbooks.
type MatchHandler struct {
	match MatchService
}

func NewMatchHandler(match MatchService) *MatchHandler {
	return &MatchHandler{match: match}
}

// Compare handles GET /v1/match/compare.
func (h *MatchHandler) Compare(c *gin.Context) {
	rows, err := h.match.Compare(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Prices compared", gin.H{"count": len(rows), "results": rows})
}

// Export handles GET /v1/match/export.
func (h *MatchHandler) Export(c *gin.Context) {
	rows, err := h.match.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Catalog prices exported", gin.H{"count": len(rows), "results": rows})
}

// CompareXLSX handles GET /v1/match/compare.xlsx.
func (h *MatchHandler) CompareXLSX(c *gin.Context) {
	rows, err := h.match.Compare(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := service.WriteCompareXLSX(&buf, rows); err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, "fiyat-karsilastirma", buf.Bytes())
}

// ExportXLSX handles GET /v1/match/export.xlsx.
func (h *MatchHandler) ExportXLSX(c *gin.Context) {
	rows, err := h.match.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := service.WriteExportXLSX(&buf, rows); err != nil {
		respondError(c, err)
		return
	}
	sendWorkbook(c, "ikas-fiyatlari", buf.Bytes())
}

func sendWorkbook(c *gin.Context, name string, data []byte) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().In(utils.Istanbul).Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, sheet.ContentType, data)
}
