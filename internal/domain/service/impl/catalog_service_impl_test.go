package impl

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/testutil/mocks"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

type catalogFixture struct {
	svc           *catalogService
	categories    *mocks.MockDocumentDAO
	subcategories *mocks.MockDocumentDAO
	brands        *mocks.MockDocumentDAO
	products      *mocks.MockDocumentDAO
	reviews       *mocks.MockReviewDAO

	phones, laptops primitive.ObjectID
	android, gaming primitive.ObjectID
	brand, product  primitive.ObjectID
}

func setupCatalogService(t *testing.T) *catalogFixture {
	t.Helper()
	f := &catalogFixture{
		phones:  primitive.NewObjectID(),
		laptops: primitive.NewObjectID(),
		android: primitive.NewObjectID(),
		gaming:  primitive.NewObjectID(),
		brand:   primitive.NewObjectID(),
		product: primitive.NewObjectID(),
	}
	f.categories = mocks.NewMockDocumentDAO(dao.CategoriesCollection,
		bson.M{"_id": f.phones, "name": "Phones"},
		bson.M{"_id": f.laptops, "name": "Laptops"},
	)
	f.subcategories = mocks.NewMockDocumentDAO(dao.SubcategoriesCollection,
		bson.M{"_id": f.android, "name": "Android", "category": f.phones},
		bson.M{"_id": f.gaming, "name": "Gaming", "category": f.laptops},
	)
	f.brands = mocks.NewMockDocumentDAO(dao.BrandsCollection, bson.M{"_id": f.brand, "name": "Acme"})
	f.products = mocks.NewMockDocumentDAO(dao.ProductsCollection,
		bson.M{"_id": f.product, "title": "Phone X", "ratingsAverage": 3.0, "ratingsQuantity": int64(2)},
	)
	f.reviews = mocks.NewMockReviewDAO()

	f.svc = NewCatalogService(dao.Collections{
		Categories:    f.categories,
		Subcategories: f.subcategories,
		Brands:        f.brands,
		Products:      f.products,
	}, f.reviews, zap.NewNop()).(*catalogService)
	return f
}

func validationDetails(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	return details
}

func TestCatalogService_Slug(t *testing.T) {
	f := setupCatalogService(t)
	assert.Equal(t, "mens-running-shoes", f.svc.Slug("  Mens Running Shoes "))
	assert.Equal(t, "cafe-creme", f.svc.Slug("Café Crème"))
}

func TestCatalogService_NormalizeCoupon(t *testing.T) {
	f := setupCatalogService(t)
	assert.Equal(t, "SUMMER25", f.svc.NormalizeCoupon("  summer25 "))
}

func TestCatalogService_CheckCategory(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.CheckCategory(ctx, "category", f.phones.Hex()))

	missing := primitive.NewObjectID().Hex()
	details := validationDetails(t, f.svc.CheckCategory(ctx, "categoryId", missing))
	assert.Equal(t, "no category exists with this id "+missing, details["categoryId"])

	details = validationDetails(t, f.svc.CheckCategory(ctx, "category", "nope"))
	assert.Equal(t, "invalid id format", details["category"])
}

func TestCatalogService_CheckCategory_StoreError(t *testing.T) {
	f := setupCatalogService(t)
	f.categories.FindErr = errors.New("timeout")

	err := f.svc.CheckCategory(context.Background(), "category", f.phones.Hex())
	require.Error(t, err)
	_, isApp := apperrors.As(err)
	assert.False(t, isApp)
}

func TestCatalogService_CheckProductRefs(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	t.Run("valid references", func(t *testing.T) {
		err := f.svc.CheckProductRefs(ctx, f.phones.Hex(), []string{f.android.Hex()}, f.brand.Hex())
		assert.NoError(t, err)
	})

	t.Run("subcategory of another category", func(t *testing.T) {
		details := validationDetails(t, f.svc.CheckProductRefs(ctx, f.phones.Hex(), []string{f.android.Hex(), f.gaming.Hex()}, ""))
		assert.Equal(t,
			"no subcategory exists with this id ["+f.gaming.Hex()+"], or not belong to category "+f.phones.Hex(),
			details["subcategories"])
	})

	t.Run("malformed subcategory id", func(t *testing.T) {
		details := validationDetails(t, f.svc.CheckProductRefs(ctx, f.phones.Hex(), []string{"bad"}, ""))
		assert.Equal(t, "invalid subcategories id format", details["subcategories"])
	})

	t.Run("unknown category and brand", func(t *testing.T) {
		category := primitive.NewObjectID().Hex()
		brand := primitive.NewObjectID().Hex()
		details := validationDetails(t, f.svc.CheckProductRefs(ctx, category, []string{f.android.Hex()}, brand))
		assert.Equal(t, "no category exists with this id "+category, details["category"])
		assert.Equal(t, "no brand exists with this id "+brand, details["brand"])
		_, checked := details["subcategories"]
		assert.False(t, checked, "subcategories are not checked against a missing category")
	})

	t.Run("no category skips membership", func(t *testing.T) {
		assert.NoError(t, f.svc.CheckProductRefs(ctx, "", []string{f.gaming.Hex()}, ""))
	})
}

func TestCatalogService_CheckProduct(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	assert.NoError(t, f.svc.CheckProduct(ctx, f.product.Hex()))

	missing := primitive.NewObjectID().Hex()
	details := validationDetails(t, f.svc.CheckProduct(ctx, missing))
	assert.True(t, strings.HasSuffix(details["product"], missing))
}

func TestCatalogService_RecalculateRatings(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	f.reviews.Stats[f.product.Hex()] = dao.RatingStats{Average: 4.25, Quantity: 4}
	require.NoError(t, f.svc.RecalculateRatings(ctx, f.product.Hex()))

	doc := f.products.Docs()[0]
	assert.Equal(t, 4.25, doc["ratingsAverage"])
	assert.Equal(t, int64(4), doc["ratingsQuantity"])

	delete(f.reviews.Stats, f.product.Hex())
	require.NoError(t, f.svc.RecalculateRatings(ctx, f.product.Hex()))

	doc = f.products.Docs()[0]
	assert.Equal(t, 4.5, doc["ratingsAverage"])
	assert.Equal(t, int64(0), doc["ratingsQuantity"])
}

func TestCatalogService_RecalculateRatings_Errors(t *testing.T) {
	f := setupCatalogService(t)
	ctx := context.Background()

	assert.Error(t, f.svc.RecalculateRatings(ctx, "bad"))

	f.reviews.Err = errors.New("aggregate failed")
	assert.Error(t, f.svc.RecalculateRatings(ctx, f.product.Hex()))
}
