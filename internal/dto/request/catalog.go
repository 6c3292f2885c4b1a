package request

import "time"

// Catalog bodies are bound from JSON or multipart forms and stored as they
// are, so every field carries json, form and bson names. Update bodies omit
// absent fields from the $set.

// CategoryRequest creates a category.
type CategoryRequest struct {
	Name  string `json:"name" form:"name" bson:"name" binding:"required,min=3,max=32"`
	Slug  string `json:"-" form:"-" bson:"slug"`
	Image string `json:"image,omitempty" form:"image" bson:"image,omitempty"`
}

// UpdateCategoryRequest patches a category.
type UpdateCategoryRequest struct {
	Name  string `json:"name,omitempty" form:"name" bson:"name,omitempty" binding:"omitempty,min=3,max=32"`
	Slug  string `json:"-" form:"-" bson:"slug,omitempty"`
	Image string `json:"image,omitempty" form:"image" bson:"image,omitempty"`
}

// SubcategoryRequest creates a subcategory.
type SubcategoryRequest struct {
	Name     string `json:"name" form:"name" bson:"name" binding:"required,min=2,max=32"`
	Slug     string `json:"-" form:"-" bson:"slug"`
	Category string `json:"category" form:"category" bson:"category" binding:"required,objectid"`
}

// UpdateSubcategoryRequest patches a subcategory.
type UpdateSubcategoryRequest struct {
	Name     string `json:"name,omitempty" form:"name" bson:"name,omitempty" binding:"omitempty,min=2,max=32"`
	Slug     string `json:"-" form:"-" bson:"slug,omitempty"`
	Category string `json:"category,omitempty" form:"category" bson:"category,omitempty" binding:"omitempty,objectid"`
}

// BrandRequest creates a brand.
type BrandRequest struct {
	Name  string `json:"name" form:"name" bson:"name" binding:"required,min=2,max=32"`
	Slug  string `json:"-" form:"-" bson:"slug"`
	Image string `json:"image,omitempty" form:"image" bson:"image,omitempty"`
}

// UpdateBrandRequest patches a brand.
type UpdateBrandRequest struct {
	Name  string `json:"name,omitempty" form:"name" bson:"name,omitempty" binding:"omitempty,min=2,max=32"`
	Slug  string `json:"-" form:"-" bson:"slug,omitempty"`
	Image string `json:"image,omitempty" form:"image" bson:"image,omitempty"`
}

// ProductRequest creates a product.
type ProductRequest struct {
	Title              string   `json:"title" form:"title" bson:"title" binding:"required,min=3,max=128"`
	Slug               string   `json:"-" form:"-" bson:"slug"`
	Description        string   `json:"description" form:"description" bson:"description" binding:"required,min=20,max=612"`
	Quantity           int      `json:"quantity" form:"quantity" bson:"quantity" binding:"gte=0"`
	Sold               int      `json:"sold" form:"sold" bson:"sold" binding:"gte=0"`
	Price              float64  `json:"price" form:"price" bson:"price" binding:"required,gte=0"`
	PriceAfterDiscount *float64 `json:"priceAfterDiscount,omitempty" form:"priceAfterDiscount" bson:"priceAfterDiscount,omitempty" binding:"omitempty,gte=0,ltefield=Price"`
	Colors             []string `json:"colors,omitempty" form:"colors" bson:"colors" binding:"omitempty,dive,color"`
	Images             []string `json:"images,omitempty" form:"images" bson:"images" binding:"omitempty,max=5"`
	ImageCover         string   `json:"imageCover" form:"imageCover" bson:"imageCover" binding:"required"`
	Category           string   `json:"category" form:"category" bson:"category" binding:"required,objectid"`
	Subcategories      []string `json:"subcategories,omitempty" form:"subcategories" bson:"subcategories" binding:"omitempty,dive,objectid"`
	Brand              string   `json:"brand,omitempty" form:"brand" bson:"brand,omitempty" binding:"omitempty,objectid"`
	RatingsAverage     float64  `json:"ratingsAverage,omitempty" form:"ratingsAverage" bson:"ratingsAverage" binding:"omitempty,min=1,max=5"`
	RatingsQuantity    int      `json:"ratingsQuantity,omitempty" form:"ratingsQuantity" bson:"ratingsQuantity" binding:"gte=0"`
}

// UpdateProductRequest patches a product.
type UpdateProductRequest struct {
	Title              string   `json:"title,omitempty" form:"title" bson:"title,omitempty" binding:"omitempty,min=3,max=128"`
	Slug               string   `json:"-" form:"-" bson:"slug,omitempty"`
	Description        string   `json:"description,omitempty" form:"description" bson:"description,omitempty" binding:"omitempty,min=20,max=612"`
	Quantity           *int     `json:"quantity,omitempty" form:"quantity" bson:"quantity,omitempty" binding:"omitempty,gte=0"`
	Sold               *int     `json:"sold,omitempty" form:"sold" bson:"sold,omitempty" binding:"omitempty,gte=0"`
	Price              *float64 `json:"price,omitempty" form:"price" bson:"price,omitempty" binding:"omitempty,gte=0"`
	PriceAfterDiscount *float64 `json:"priceAfterDiscount,omitempty" form:"priceAfterDiscount" bson:"priceAfterDiscount,omitempty" binding:"omitempty,gte=0"`
	Colors             []string `json:"colors,omitempty" form:"colors" bson:"colors,omitempty" binding:"omitempty,dive,color"`
	Images             []string `json:"images,omitempty" form:"images" bson:"images,omitempty" binding:"omitempty,max=5"`
	ImageCover         string   `json:"imageCover,omitempty" form:"imageCover" bson:"imageCover,omitempty"`
	Category           string   `json:"category,omitempty" form:"category" bson:"category,omitempty" binding:"omitempty,objectid"`
	Subcategories      []string `json:"subcategories,omitempty" form:"subcategories" bson:"subcategories,omitempty" binding:"omitempty,dive,objectid"`
	Brand              string   `json:"brand,omitempty" form:"brand" bson:"brand,omitempty" binding:"omitempty,objectid"`
}

// ReviewRequest creates a review. User is always the caller.
type ReviewRequest struct {
	Description string  `json:"description,omitempty" bson:"description,omitempty" binding:"omitempty,min=2,max=256"`
	Ratings     float64 `json:"ratings" bson:"ratings" binding:"required,min=1,max=5"`
	Product     string  `json:"product" bson:"product" binding:"required,objectid"`
	User        string  `json:"-" bson:"user"`
}

// UpdateReviewRequest patches a review.
type UpdateReviewRequest struct {
	Description string   `json:"description,omitempty" bson:"description,omitempty" binding:"omitempty,min=2,max=256"`
	Ratings     *float64 `json:"ratings,omitempty" bson:"ratings,omitempty" binding:"omitempty,min=1,max=5"`
}

// CouponRequest creates a coupon.
type CouponRequest struct {
	Name      string    `json:"name" bson:"name" binding:"required,min=2,max=75"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt" binding:"required"`
	Discount  float64   `json:"discount" bson:"discount" binding:"required,gt=0,max=100"`
}

// UpdateCouponRequest patches a coupon.
type UpdateCouponRequest struct {
	Name      string     `json:"name,omitempty" bson:"name,omitempty" binding:"omitempty,min=2,max=75"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	Discount  *float64   `json:"discount,omitempty" bson:"discount,omitempty" binding:"omitempty,gt=0,max=100"`
}

// UserRequest creates a user from the admin console.
type UserRequest struct {
	Name            string `json:"name" form:"name" bson:"name" binding:"required,min=2,max=128"`
	Email           string `json:"email" form:"email" bson:"email" binding:"required,email,max=254"`
	Password        string `json:"password" form:"password" bson:"password" binding:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword" bson:"-" binding:"required,eqfield=Password"`
	Phone           string `json:"phone,omitempty" form:"phone" bson:"phone,omitempty" binding:"omitempty,phone"`
	Avatar          string `json:"avatar,omitempty" form:"avatar" bson:"avatar,omitempty"`
	Role            string `json:"role,omitempty" form:"role" bson:"role" binding:"omitempty,oneof=user admin manager"`
}

// UpdateUserRequest patches a user. Passwords change through the auth routes.
type UpdateUserRequest struct {
	Name   string `json:"name,omitempty" form:"name" bson:"name,omitempty" binding:"omitempty,min=2,max=128"`
	Email  string `json:"email,omitempty" form:"email" bson:"email,omitempty" binding:"omitempty,email,max=254"`
	Phone  string `json:"phone,omitempty" form:"phone" bson:"phone,omitempty" binding:"omitempty,phone"`
	Avatar string `json:"avatar,omitempty" form:"avatar" bson:"avatar,omitempty"`
	Role   string `json:"role,omitempty" form:"role" bson:"role,omitempty" binding:"omitempty,oneof=user admin manager"`
}

// CategorySubcategoryRequest creates a subcategory under the category named
// by the route.
type CategorySubcategoryRequest struct {
	Name     string `json:"name" form:"name" bson:"name" binding:"required,min=2,max=32"`
	Slug     string `json:"-" form:"-" bson:"slug"`
	Category string `json:"-" form:"-" bson:"category"`
}
