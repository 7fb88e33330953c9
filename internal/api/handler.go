package api

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"techstore/internal/models"
	"techstore/internal/service"
	"techstore/internal/store"
	"techstore/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handler contains HTTP handlers
type Handler struct {
	bookings  *service.BookingService
	products  *service.ProductService
	jwtSecret string
}

// NewHandler creates a new HTTP handler
func NewHandler(bookings *service.BookingService, products *service.ProductService, jwtSecret string) *Handler {
	return &Handler{
		bookings:  bookings,
		products:  products,
		jwtSecret: jwtSecret,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.POST("/products/:id/like", h.likeProduct)
	}

	authed := v1.Group("")
	authed.Use(AuthMiddleware(h.jwtSecret))
	{
		authed.POST("/bookings", h.createBooking)
		authed.GET("/bookings", h.listBookings)
		authed.GET("/bookings/:id", h.getBooking)
		authed.GET("/bookings/coupon/:code", h.getBookingByCoupon)
		authed.PATCH("/bookings/:id/cancel", h.cancelBooking)
		authed.PATCH("/bookings/:id/complete", h.completeBooking)

		authed.POST("/products", h.createProduct)
		authed.PATCH("/products/:id/availability", h.updateAvailability)
		authed.DELETE("/products/:id", h.deleteProduct)
	}
}

// writeError maps domain errors onto fixed response categories. Unexpected
// errors are reported generically so internals never leak.
func writeError(c *gin.Context, err error) {
	switch {
	case models.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case models.IsAuthorization(err):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case models.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case models.IsTransientStore(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service temporarily unavailable"})
	default:
		util.GetLogger().Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func mustIdentity(c *gin.Context) (models.Identity, bool) {
	ident, ok := identityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return models.Identity{}, false
	}
	return ident, true
}

// createBooking handles booking creation
func (h *Handler) createBooking(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}

	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	booking, err := h.bookings.CreateBooking(c.Request.Context(), ident, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// listBookings handles booking listings (all for admin, own otherwise)
func (h *Handler) listBookings(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	bookings, err := h.bookings.ListBookings(c.Request.Context(), ident, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// getBooking handles single-booking fetch
func (h *Handler) getBooking(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.GetBooking(c.Request.Context(), ident, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// getBookingByCoupon handles coupon code lookup
func (h *Handler) getBookingByCoupon(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}

	booking, err := h.bookings.GetBookingByCoupon(c.Request.Context(), ident, c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// cancelBooking handles the confirmed -> cancelled transition
func (h *Handler) cancelBooking(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	booking, err := h.bookings.CancelBooking(c.Request.Context(), ident, id, req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// completeBooking handles the confirmed -> completed transition (admin only)
func (h *Handler) completeBooking(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	booking, err := h.bookings.CompleteBooking(c.Request.Context(), ident, id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// getProduct handles public single-product fetch
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// listProducts handles the public catalog listing
func (h *Handler) listProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	products, err := h.products.ListProducts(c.Request.Context(), store.ProductFilter{
		Category:     c.Query("category"),
		Availability: c.Query("availability"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

// likeProduct handles the public like counter
func (h *Handler) likeProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.products.LikeProduct(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "liked"})
}

// createProduct handles admin product creation with multipart image upload
func (h *Handler) createProduct(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form", "details": err.Error()})
		return
	}

	req := service.CreateProductRequest{
		Name:         c.PostForm("name"),
		Description:  c.PostForm("description"),
		Category:     c.PostForm("category"),
		Brand:        c.PostForm("brand"),
		Availability: c.PostForm("availability"),
	}
	req.ActualPrice, _ = strconv.ParseFloat(c.PostForm("actual_price"), 64)
	req.StrikePrice, _ = strconv.ParseFloat(c.PostForm("strike_price"), 64)
	req.SellingPrice, _ = strconv.ParseFloat(c.PostForm("selling_price"), 64)
	req.DiscountPercentage, _ = strconv.ParseFloat(c.PostForm("discount_percentage"), 64)

	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image file"})
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable image file"})
			return
		}
		req.Images = append(req.Images, service.ImageUpload{Filename: fh.Filename, Data: data})
	}

	product, err := h.products.CreateProduct(c.Request.Context(), ident, &req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, product)
}

// updateAvailability handles the admin availability update
func (h *Handler) updateAvailability(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Availability string `json:"availability" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if err := h.products.UpdateAvailability(c.Request.Context(), ident, id, req.Availability); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// deleteProduct handles admin soft delete
func (h *Handler) deleteProduct(c *gin.Context) {
	ident, ok := mustIdentity(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.products.DeleteProduct(c.Request.Context(), ident, id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
