package http

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/crud"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/middleware"
	"github.com/jrjohn/arcana-commerce-go/internal/query"
	"github.com/jrjohn/arcana-commerce-go/internal/security"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
	"github.com/jrjohn/arcana-commerce-go/pkg/logger"
)

const subcategoryIDParam = "subcategoryId"

// CatalogController serves the catalog collections and the user console
// through the generic CRUD handlers.
type CatalogController struct {
	collections     dao.Collections
	catalog         service.CatalogService
	hasher          *security.PasswordHasher
	securityService *security.SecurityService
	guard           *middleware.AuthMiddleware
	uploads         *middleware.UploadMiddleware
	assets          crud.AssetReleaser
	logger          *zap.Logger
}

// NewCatalogController creates a new CatalogController instance. uploads and
// assets may be nil, which disables multipart images.
func NewCatalogController(
	collections dao.Collections,
	catalog service.CatalogService,
	hasher *security.PasswordHasher,
	securityService *security.SecurityService,
	guard *middleware.AuthMiddleware,
	uploads *middleware.UploadMiddleware,
	assets crud.AssetReleaser,
	logger *zap.Logger,
) *CatalogController {
	return &CatalogController{
		collections:     collections,
		catalog:         catalog,
		hasher:          hasher,
		securityService: securityService,
		guard:           guard,
		uploads:         uploads,
		assets:          assets,
		logger:          logger,
	}
}

// RegisterRoutes registers the catalog and user routes
func (c *CatalogController) RegisterRoutes(router *gin.RouterGroup) {
	c.categories().Register(router.Group("/categories"),
		c.staffWrites(c.upload("categories", middleware.UploadField{Name: "image", MaxCount: 1})...))
	c.categorySubcategories().Register(router.Group("/categories/:id/subcategories"), c.staffWrites())
	c.subcategories().Register(router.Group("/subcategories"), c.staffWrites())
	c.brands().Register(router.Group("/brands"),
		c.staffWrites(c.upload("brands", middleware.UploadField{Name: "image", MaxCount: 1})...))
	c.products().Register(router.Group("/products"),
		c.staffWrites(c.upload("products",
			middleware.UploadField{Name: "imageCover", MaxCount: 1},
			middleware.UploadField{Name: "images", MaxCount: 5},
		)...))
	c.reviews().Register(router.Group("/reviews"), crud.Routes{
		Create: []gin.HandlerFunc{c.guard.Authenticate(entity.RoleUser)},
		Update: []gin.HandlerFunc{c.guard.Authenticate(entity.RoleUser)},
		Delete: []gin.HandlerFunc{c.guard.Authenticate(entity.RoleUser, entity.RoleAdmin, entity.RoleManager)},
	})

	staff := c.guard.Staff()
	c.coupons().Register(router.Group("/coupons", staff), crud.Routes{})
	c.users().Register(router.Group("/users", staff), crud.Routes{
		Create: c.upload("users", middleware.UploadField{Name: "avatar", MaxCount: 1}),
		Update: c.upload("users", middleware.UploadField{Name: "avatar", MaxCount: 1}),
	})
}

// staffWrites guards the write operations for admins and managers. upload
// runs after the guard on create and update.
func (c *CatalogController) staffWrites(upload ...gin.HandlerFunc) crud.Routes {
	staff := c.guard.Staff()
	writes := append([]gin.HandlerFunc{staff}, upload...)
	return crud.Routes{
		Create: writes,
		Update: writes,
		Delete: []gin.HandlerFunc{staff},
	}
}

func (c *CatalogController) upload(prefix string, fields ...middleware.UploadField) []gin.HandlerFunc {
	if c.uploads == nil {
		return nil
	}
	return []gin.HandlerFunc{c.uploads.Images(prefix, fields...)}
}

func searchBy(fields ...string) query.Config {
	return query.Config{Search: query.SearchConfig{Fields: fields}}
}

// withRelations searches fields and lets a malformed populate selection
// disable population instead of expanding whole documents.
func withRelations(fields ...string) query.Config {
	cfg := searchBy(fields...)
	cfg.Populate.IgnoreInvalid = true
	return cfg
}

func (c *CatalogController) categories() *crud.Handler[request.CategoryRequest, request.UpdateCategoryRequest] {
	return crud.New(c.collections.Categories, crud.Options[request.CategoryRequest, request.UpdateCategoryRequest]{
		Resource: "category",
		Features: searchBy("name"),
		Hooks: crud.Hooks[request.CategoryRequest, request.UpdateCategoryRequest]{
			PrepareCreate: func(_ *gin.Context, body *request.CategoryRequest) error {
				body.Slug = c.catalog.Slug(body.Name)
				return nil
			},
			PrepareUpdate: func(_ *gin.Context, _ primitive.ObjectID, body *request.UpdateCategoryRequest) error {
				if body.Name != "" {
					body.Slug = c.catalog.Slug(body.Name)
				}
				return nil
			},
		},
		AssetFields: []string{"image"},
		Assets:      c.assets,
	}, c.logger)
}

// categorySubcategories serves the subcategories of the category in the route.
func (c *CatalogController) categorySubcategories() *crud.Handler[request.CategorySubcategoryRequest, request.UpdateSubcategoryRequest] {
	return crud.New(c.collections.Subcategories, crud.Options[request.CategorySubcategoryRequest, request.UpdateSubcategoryRequest]{
		Resource: "subcategory",
		Features: withRelations("name"),
		IDParam:  subcategoryIDParam,
		Hooks: crud.Hooks[request.CategorySubcategoryRequest, request.UpdateSubcategoryRequest]{
			BaseFilter: func(ctx *gin.Context) (bson.M, error) {
				id, err := primitive.ObjectIDFromHex(ctx.Param("id"))
				if err != nil {
					return nil, apperrors.Validation(map[string]string{"categoryId": "invalid id format"})
				}
				return bson.M{"category": id}, nil
			},
			PrepareCreate: func(ctx *gin.Context, body *request.CategorySubcategoryRequest) error {
				body.Category = ctx.Param("id")
				body.Slug = c.catalog.Slug(body.Name)
				return c.catalog.CheckCategory(ctx.Request.Context(), "categoryId", body.Category)
			},
			PrepareUpdate: c.prepareSubcategoryUpdate,
		},
	}, c.logger)
}

func (c *CatalogController) subcategories() *crud.Handler[request.SubcategoryRequest, request.UpdateSubcategoryRequest] {
	return crud.New(c.collections.Subcategories, crud.Options[request.SubcategoryRequest, request.UpdateSubcategoryRequest]{
		Resource: "subcategory",
		Features: withRelations("name"),
		Hooks: crud.Hooks[request.SubcategoryRequest, request.UpdateSubcategoryRequest]{
			PrepareCreate: func(ctx *gin.Context, body *request.SubcategoryRequest) error {
				body.Slug = c.catalog.Slug(body.Name)
				return c.catalog.CheckCategory(ctx.Request.Context(), "category", body.Category)
			},
			PrepareUpdate: c.prepareSubcategoryUpdate,
		},
	}, c.logger)
}

func (c *CatalogController) prepareSubcategoryUpdate(ctx *gin.Context, _ primitive.ObjectID, body *request.UpdateSubcategoryRequest) error {
	if body.Name != "" {
		body.Slug = c.catalog.Slug(body.Name)
	}
	if body.Category != "" {
		return c.catalog.CheckCategory(ctx.Request.Context(), "category", body.Category)
	}
	return nil
}

func (c *CatalogController) brands() *crud.Handler[request.BrandRequest, request.UpdateBrandRequest] {
	return crud.New(c.collections.Brands, crud.Options[request.BrandRequest, request.UpdateBrandRequest]{
		Resource: "brand",
		Features: searchBy("name"),
		Hooks: crud.Hooks[request.BrandRequest, request.UpdateBrandRequest]{
			PrepareCreate: func(_ *gin.Context, body *request.BrandRequest) error {
				body.Slug = c.catalog.Slug(body.Name)
				return nil
			},
			PrepareUpdate: func(_ *gin.Context, _ primitive.ObjectID, body *request.UpdateBrandRequest) error {
				if body.Name != "" {
					body.Slug = c.catalog.Slug(body.Name)
				}
				return nil
			},
		},
		AssetFields: []string{"image"},
		Assets:      c.assets,
	}, c.logger)
}

func (c *CatalogController) products() *crud.Handler[request.ProductRequest, request.UpdateProductRequest] {
	return crud.New(c.collections.Products, crud.Options[request.ProductRequest, request.UpdateProductRequest]{
		Resource: "product",
		Features: withRelations("title", "description"),
		Hooks: crud.Hooks[request.ProductRequest, request.UpdateProductRequest]{
			PrepareCreate: func(ctx *gin.Context, body *request.ProductRequest) error {
				body.Slug = c.catalog.Slug(body.Title)
				return c.catalog.CheckProductRefs(ctx.Request.Context(), body.Category, body.Subcategories, body.Brand)
			},
			PrepareUpdate: c.prepareProductUpdate,
		},
		AssetFields: []string{"imageCover", "images"},
		Assets:      c.assets,
	}, c.logger)
}

func (c *CatalogController) prepareProductUpdate(ctx *gin.Context, id primitive.ObjectID, body *request.UpdateProductRequest) error {
	if body.Title != "" {
		body.Slug = c.catalog.Slug(body.Title)
	}
	if body.Category == "" && len(body.Subcategories) == 0 && body.Brand == "" {
		return nil
	}

	category := body.Category
	if category == "" && len(body.Subcategories) > 0 {
		current, err := c.collections.Products.FindOne(ctx.Request.Context(), bson.M{"_id": id}, dao.FindOptions{
			Projection: map[string]bool{"category": true},
		})
		if err != nil {
			return err
		}
		if current != nil {
			category = refHex(current["category"])
		}
	}
	return c.catalog.CheckProductRefs(ctx.Request.Context(), category, body.Subcategories, body.Brand)
}

func (c *CatalogController) reviews() *crud.Handler[request.ReviewRequest, request.UpdateReviewRequest] {
	return crud.New(c.collections.Reviews, crud.Options[request.ReviewRequest, request.UpdateReviewRequest]{
		Resource: "review",
		Features: searchBy("description"),
		Populate: []query.Population{{Path: "user", Select: []string{"name", "avatar", "email"}}},
		Hooks: crud.Hooks[request.ReviewRequest, request.UpdateReviewRequest]{
			BaseFilter: c.ownReviews,
			PrepareCreate: func(ctx *gin.Context, body *request.ReviewRequest) error {
				body.User = c.securityService.GetCurrentUserID(ctx)
				return c.catalog.CheckProduct(ctx.Request.Context(), body.Product)
			},
			AfterChange: c.refreshRatings,
		},
	}, c.logger)
}

// ownReviews scopes writes of plain users to the reviews they wrote. Staff
// and anonymous readers see every review.
func (c *CatalogController) ownReviews(ctx *gin.Context) (bson.M, error) {
	if !c.securityService.IsAuthenticated(ctx) || c.securityService.IsStaff(ctx) {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(c.securityService.GetCurrentUser(ctx).ID)
	if err != nil {
		return nil, apperrors.Unauthorized(middleware.MsgInvalidToken)
	}
	return bson.M{"user": id}, nil
}

func (c *CatalogController) refreshRatings(ctx context.Context, review bson.M) {
	productID := refHex(review["product"])
	if productID == "" {
		return
	}
	if err := c.catalog.RecalculateRatings(ctx, productID); err != nil {
		logger.FromContext(ctx, c.logger).Error("Failed to recalculate product ratings",
			zap.String("product_id", productID),
			zap.Error(err),
		)
	}
}

func (c *CatalogController) coupons() *crud.Handler[request.CouponRequest, request.UpdateCouponRequest] {
	return crud.New(c.collections.Coupons, crud.Options[request.CouponRequest, request.UpdateCouponRequest]{
		Resource: "coupon",
		Features: searchBy("name"),
		Hooks: crud.Hooks[request.CouponRequest, request.UpdateCouponRequest]{
			PrepareCreate: func(_ *gin.Context, body *request.CouponRequest) error {
				body.Name = c.catalog.NormalizeCoupon(body.Name)
				return nil
			},
			PrepareUpdate: func(_ *gin.Context, _ primitive.ObjectID, body *request.UpdateCouponRequest) error {
				if body.Name != "" {
					body.Name = c.catalog.NormalizeCoupon(body.Name)
				}
				return nil
			},
		},
	}, c.logger)
}

func (c *CatalogController) users() *crud.Handler[request.UserRequest, request.UpdateUserRequest] {
	return crud.New(c.collections.Users, crud.Options[request.UserRequest, request.UpdateUserRequest]{
		Resource: "user",
		Features: query.Config{
			Search:     query.SearchConfig{Fields: []string{"name", "email", "phone"}},
			Projection: query.ProjectionConfig{Exclude: []string{"password", "passwordChangedAt"}},
		},
		Hooks: crud.Hooks[request.UserRequest, request.UpdateUserRequest]{
			PrepareCreate: func(_ *gin.Context, body *request.UserRequest) error {
				hash, err := c.hasher.Hash(body.Password)
				if err != nil {
					return err
				}
				body.Password = hash
				body.Email = strings.ToLower(strings.TrimSpace(body.Email))
				if body.Role == "" {
					body.Role = string(entity.RoleUser)
				}
				return nil
			},
			PrepareUpdate: func(_ *gin.Context, _ primitive.ObjectID, body *request.UpdateUserRequest) error {
				body.Email = strings.ToLower(strings.TrimSpace(body.Email))
				return nil
			},
		},
		AssetFields: []string{"avatar"},
		Assets:      c.assets,
	}, c.logger)
}

// refHex reads a reference that is an ObjectID once stored and a hex string
// before.
func refHex(v any) string {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	}
	return ""
}
