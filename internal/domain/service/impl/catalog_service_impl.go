package impl

import (
	"context"
	"fmt"
	"strings"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/service"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

const (
	defaultRatingsAverage = 4.5
	msgInvalidID          = "invalid id format"
)

// catalogService implements service.CatalogService
type catalogService struct {
	collections dao.Collections
	reviews     dao.ReviewDAO
	logger      *zap.Logger
}

// NewCatalogService creates a new CatalogService instance
func NewCatalogService(collections dao.Collections, reviews dao.ReviewDAO, logger *zap.Logger) service.CatalogService {
	return &catalogService{collections: collections, reviews: reviews, logger: logger}
}

func (s *catalogService) Slug(name string) string {
	return slug.Make(name)
}

func (s *catalogService) NormalizeCoupon(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func (s *catalogService) CheckCategory(ctx context.Context, field, categoryID string) error {
	msg, err := s.checkExists(ctx, s.collections.Categories, "category", categoryID)
	if err != nil {
		return err
	}
	if msg != "" {
		return apperrors.Validation(map[string]string{field: msg})
	}
	return nil
}

func (s *catalogService) CheckProduct(ctx context.Context, productID string) error {
	msg, err := s.checkExists(ctx, s.collections.Products, "product", productID)
	if err != nil {
		return err
	}
	if msg != "" {
		return apperrors.Validation(map[string]string{"product": msg})
	}
	return nil
}

func (s *catalogService) CheckProductRefs(ctx context.Context, categoryID string, subcategoryIDs []string, brandID string) error {
	fields := map[string]string{}

	if categoryID != "" {
		msg, err := s.checkExists(ctx, s.collections.Categories, "category", categoryID)
		if err != nil {
			return err
		}
		if msg != "" {
			fields["category"] = msg
		}
	}

	if brandID != "" {
		msg, err := s.checkExists(ctx, s.collections.Brands, "brand", brandID)
		if err != nil {
			return err
		}
		if msg != "" {
			fields["brand"] = msg
		}
	}

	if len(subcategoryIDs) > 0 && fields["category"] == "" {
		msg, err := s.checkSubcategories(ctx, categoryID, subcategoryIDs)
		if err != nil {
			return err
		}
		if msg != "" {
			fields["subcategories"] = msg
		}
	}

	if len(fields) > 0 {
		return apperrors.Validation(fields)
	}
	return nil
}

// checkSubcategories returns a message naming the subcategories that do not
// exist or, when categoryID is set, do not belong to it.
func (s *catalogService) checkSubcategories(ctx context.Context, categoryID string, ids []string) (string, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return "invalid subcategories id format", nil
		}
		oids = append(oids, oid)
	}

	filter := bson.M{"_id": bson.M{"$in": oids}}
	if categoryID != "" {
		cid, err := primitive.ObjectIDFromHex(categoryID)
		if err != nil {
			return "", nil
		}
		filter["category"] = cid
	}

	docs, err := s.collections.Subcategories.Find(ctx, filter, dao.FindOptions{
		Projection: map[string]bool{"_id": true},
	})
	if err != nil {
		return "", err
	}

	found := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if oid, ok := d["_id"].(primitive.ObjectID); ok {
			found[oid.Hex()] = struct{}{}
		}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[strings.ToLower(id)]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return "", nil
	}

	msg := fmt.Sprintf("no subcategory exists with this id [%s]", strings.Join(missing, ", "))
	if categoryID != "" {
		msg += ", or not belong to category " + categoryID
	}
	return msg, nil
}

// checkExists returns a failure message when id is malformed or names no
// document of d.
func (s *catalogService) checkExists(ctx context.Context, d dao.DocumentDAO, resource, id string) (string, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return msgInvalidID, nil
	}
	doc, err := d.FindOne(ctx, bson.M{"_id": oid}, dao.FindOptions{Projection: map[string]bool{"_id": true}})
	if err != nil {
		return "", err
	}
	if doc == nil {
		return fmt.Sprintf("no %s exists with this id %s", resource, id), nil
	}
	return "", nil
}

func (s *catalogService) RecalculateRatings(ctx context.Context, productID string) error {
	oid, err := primitive.ObjectIDFromHex(productID)
	if err != nil {
		return fmt.Errorf("recalculate ratings: %w", err)
	}

	stats, found, err := s.reviews.RatingStats(ctx, productID)
	if err != nil {
		return fmt.Errorf("aggregate ratings of %s: %w", productID, err)
	}
	if !found {
		stats = dao.RatingStats{Average: defaultRatingsAverage}
	}

	_, err = s.collections.Products.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"ratingsAverage":  stats.Average,
		"ratingsQuantity": stats.Quantity,
	}})
	if err != nil {
		return fmt.Errorf("update ratings of %s: %w", productID, err)
	}

	s.logger.Debug("Product ratings recalculated",
		zap.String("product_id", productID),
		zap.Float64("average", stats.Average),
		zap.Int64("quantity", stats.Quantity),
	)
	return nil
}
