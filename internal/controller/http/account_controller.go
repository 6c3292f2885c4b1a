package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jrjohn/arcana-commerce-go/internal/crud"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/response"
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
)

// AccountController handles the wishlist and address book of the signed in user
type AccountController struct {
	accountService  service.AccountService
	securityService *security.SecurityService
	guard           *middleware.AuthMiddleware
}

// NewAccountController creates a new AccountController instance
func NewAccountController(accountService service.AccountService, securityService *security.SecurityService, guard *middleware.AuthMiddleware) *AccountController {
	return &AccountController{
		accountService:  accountService,
		securityService: securityService,
		guard:           guard,
	}
}

// RegisterRoutes registers the wishlist and address routes
func (c *AccountController) RegisterRoutes(router *gin.RouterGroup) {
	wishlist := router.Group("/wishlist", c.guard.Authenticate(entity.RoleUser))
	{
		wishlist.GET("", c.GetWishlist)
		wishlist.POST("", c.AddToWishlist)
		wishlist.DELETE("/:id", c.RemoveFromWishlist)
	}

	addresses := router.Group("/addresses", c.guard.Authenticate(entity.RoleUser))
	{
		addresses.GET("", c.ListAddresses)
		addresses.POST("", c.AddAddress)
		addresses.GET("/:id", c.GetAddress)
		addresses.DELETE("/:id", c.RemoveAddress)
	}
}

// GetWishlist lists the wishlisted products
// @Summary Get the wishlist
// @Tags Wishlist
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/wishlist [get]
func (c *AccountController) GetWishlist(ctx *gin.Context) {
	products, err := c.accountService.Wishlist(ctx.Request.Context(), c.securityService.GetCurrentUserID(ctx))
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(gin.H{"wishlist": products}))
}

// AddToWishlist adds a product to the wishlist
// @Summary Add a product to the wishlist
// @Tags Wishlist
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.WishlistRequest true "Product"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/v1/wishlist [post]
func (c *AccountController) AddToWishlist(ctx *gin.Context) {
	var req request.WishlistRequest
	if !crud.Bind(ctx, &req) {
		return
	}

	wishlist, err := c.accountService.AddToWishlist(ctx.Request.Context(), c.securityService.GetCurrentUserID(ctx), req.ProductID)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(gin.H{
		"wishlist": wishlist,
		"message":  "Product added to wishlist successfully",
	}))
}

// RemoveFromWishlist removes a product from the wishlist
// @Summary Remove a product from the wishlist
// @Tags Wishlist
// @Security BearerAuth
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/wishlist/{id} [delete]
func (c *AccountController) RemoveFromWishlist(ctx *gin.Context) {
	id, ok := crud.ParseID(ctx, "id")
	if !ok {
		return
	}

	wishlist, err := c.accountService.RemoveFromWishlist(ctx.Request.Context(), c.securityService.GetCurrentUserID(ctx), id.Hex())
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(gin.H{
		"wishlist": wishlist,
		"message":  "Product removed from wishlist successfully",
	}))
}

// ListAddresses lists the address book
// @Summary List addresses
// @Tags Addresses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/v1/addresses [get]
func (c *AccountController) ListAddresses(ctx *gin.Context) {
	addresses := c.securityService.GetCurrentUser(ctx).Addresses
	if addresses == nil {
		addresses = []entity.Address{}
	}
	response.Write(ctx, http.StatusOK, response.Success(gin.H{"addresses": addresses}))
}

// AddAddress appends an address
// @Summary Add an address
// @Tags Addresses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.AddressRequest true "Address"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /api/v1/addresses [post]
func (c *AccountController) AddAddress(ctx *gin.Context) {
	var req request.AddressRequest
	if !crud.Bind(ctx, &req) {
		return
	}

	addresses, err := c.accountService.AddAddress(ctx.Request.Context(), c.securityService.GetCurrentUserID(ctx), &req)
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(gin.H{
		"addresses": addresses,
		"message":   "New address added successfully",
	}))
}

// GetAddress returns one address
// @Summary Get an address
// @Tags Addresses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Address ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/v1/addresses/{id} [get]
func (c *AccountController) GetAddress(ctx *gin.Context) {
	address, err := c.accountService.Address(c.securityService.GetCurrentUser(ctx), ctx.Param("id"))
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(address))
}

// RemoveAddress removes an address
// @Summary Remove an address
// @Tags Addresses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Address ID"
// @Success 200 {object} response.Envelope
// @Router /api/v1/addresses/{id} [delete]
func (c *AccountController) RemoveAddress(ctx *gin.Context) {
	id, ok := crud.ParseID(ctx, "id")
	if !ok {
		return
	}

	addresses, err := c.accountService.RemoveAddress(ctx.Request.Context(), c.securityService.GetCurrentUserID(ctx), id.Hex())
	if err != nil {
		_ = ctx.Error(err)
		return
	}

	response.Write(ctx, http.StatusOK, response.Success(gin.H{
		"addresses": addresses,
		"message":   "address removed successfully",
	}))
}
