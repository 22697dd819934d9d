package handlers

import (
	"net/http"
	"strconv"

	"merritt/models"
	"merritt/services/snackshop"
	"merritt/utils"

	"github.com/gin-gonic/gin"
)

type SnackshopHandler struct {
	Service snackshop.SnackshopService
}

func NewSnackshopHandler(svc snackshop.SnackshopService) *SnackshopHandler {
	return &SnackshopHandler{Service: svc}
}

// ListProductsHandler handles GET /api/snackshop?category=&in_stock=
func (h *SnackshopHandler) ListProductsHandler(c *gin.Context) {
	filter := models.ProductFilter{Category: c.Query("category")}
	if raw := c.Query("in_stock"); raw != "" {
		inStock, err := strconv.ParseBool(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid value for field: in_stock", err.Error())
			return
		}
		filter.InStock = &inStock
	}
	products, err := h.Service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "products": products})
}

// PlaceOrderHandler handles POST /api/snackshop
func (h *SnackshopHandler) PlaceOrderHandler(c *gin.Context) {
	var req models.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}
	res, err := h.Service.PlaceOrder(c.Request.Context(), req)
	if err != nil {
		getLogger(c).Debug("Order rejected")
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"order":        res.Order,
		"checkout_url": res.CheckoutURL,
		"session_id":   res.SessionID,
	})
}

// GetOrderHandler handles GET /api/snackshop/orders/:id
func (h *SnackshopHandler) GetOrderHandler(c *gin.Context) {
	order, err := h.Service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}
