package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/pazar_api/internal/middleware"
	"github.com/GTDGit/pazar_api/internal/service"
	"github.com/GTDGit/pazar_api/internal/utils"
	"github.com/GTDGit/pazar_api/pkg/ikas"
)

// ProductHandler serves the three cached product tables: marketplace
// listings, storefront products and catalog variants.
type ProductHandler struct {
	products ProductService
	ikas     IkasService
}

func NewProductHandler(products ProductService, ikas IkasService) *ProductHandler {
	return &ProductHandler{products: products, ikas: ikas}
}

// ListTrendyol handles GET /v1/products/trendyol.
func (h *ProductHandler) ListTrendyol(c *gin.Context) {
	rows, err := h.products.ListTrendyol(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Trendyol products retrieved", gin.H{"count": len(rows), "products": rows})
}

// ScrapeTrendyol handles POST /v1/products/trendyol/scrape.
func (h *ProductHandler) ScrapeTrendyol(c *gin.Context) {
	rows, err := h.products.ScrapeTrendyol(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Trendyol products scraped", gin.H{"count": len(rows), "products": rows})
}

// UpdateTrendyolLinks handles POST /v1/products/trendyol/update-links.
func (h *ProductHandler) UpdateTrendyolLinks(c *gin.Context) {
	res, err := h.products.UpdateTrendyolLinks(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Trendyol links updated", res)
}

// ListSite handles GET /v1/products/site.
func (h *ProductHandler) ListSite(c *gin.Context) {
	rows, err := h.products.ListSite(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Site products retrieved", gin.H{"count": len(rows), "products": rows})
}

// RefreshSite handles POST /v1/products/site/refresh.
func (h *ProductHandler) RefreshSite(c *gin.Context) {
	rows, err := h.products.RefreshSite(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Site products refreshed", gin.H{"count": len(rows), "products": rows})
}

// UpdateSitePrice handles POST /v1/products/site/price.
func (h *ProductHandler) UpdateSitePrice(c *gin.Context) {
	var req service.PriceUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	msg, err := h.products.UpdateSitePrice(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, msg, gin.H{"trendyolKey": req.TrendyolKey, "newSitePrice": req.NewSitePrice})
}

type bulkPriceRequest struct {
	Updates []service.PriceUpdate `json:"updates" binding:"required,min=1,dive"`
}

// UpdateSitePrices handles POST /v1/products/site/prices.
func (h *ProductHandler) UpdateSitePrices(c *gin.Context) {
	var req bulkPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	res, err := h.products.UpdateSitePrices(c.Request.Context(), middleware.UserID(c), req.Updates)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "Site prices pushed", res)
}

// ListIkas handles GET /v1/products/ikas.
func (h *ProductHandler) ListIkas(c *gin.Context) {
	rows, err := h.ikas.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "İKAS products retrieved", gin.H{"count": len(rows), "products": rows})
}

// SyncIkas handles POST /v1/products/ikas/sync.
func (h *ProductHandler) SyncIkas(c *gin.Context) {
	rows, err := h.ikas.Sync(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "İKAS products synced", gin.H{"count": len(rows), "products": rows})
}

type ikasPushRequest struct {
	Prices []ikas.PriceInput `json:"prices" binding:"required,min=1"`
}

// PushIkas handles POST /v1/products/ikas/push.
func (h *ProductHandler) PushIkas(c *gin.Context) {
	var req ikasPushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, err)
		return
	}
	res, err := h.ikas.Push(c.Request.Context(), middleware.UserID(c), req.Prices)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, http.StatusOK, "İKAS prices pushed", res)
}
