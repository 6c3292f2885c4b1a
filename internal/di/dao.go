package di

import (
	"go.uber.org/fx"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	mongodao "github.com/jrjohn/arcana-commerce-go/internal/domain/dao/mongo"
)

// DAOModule provides the MongoDB data access objects
var DAOModule = fx.Module("dao",
	fx.Provide(
		provideCollections,
		provideUserDAO,
		provideResetTokenDAO,
		provideReviewDAO,
	),
)

// provideCollections creates the generic DAOs of the CRUD resources.
func provideCollections(mongoDB *MongoDatabase, cfg *config.DatabaseConfig) dao.Collections {
	collection := func(schema dao.Schema) dao.DocumentDAO {
		return mongodao.NewDocumentDAO(mongoDB.DB, schema, cfg.Timeout)
	}
	return dao.Collections{
		Categories:    collection(dao.Categories),
		Subcategories: collection(dao.Subcategories),
		Brands:        collection(dao.Brands),
		Products:      collection(dao.Products),
		Reviews:       collection(dao.Reviews),
		Coupons:       collection(dao.Coupons),
		Users:         collection(dao.Users),
	}
}

func provideUserDAO(mongoDB *MongoDatabase, cfg *config.DatabaseConfig) dao.UserDAO {
	return mongodao.NewUserDAO(mongoDB.DB, cfg.Timeout)
}

func provideResetTokenDAO(mongoDB *MongoDatabase, cfg *config.DatabaseConfig) dao.ResetTokenDAO {
	return mongodao.NewResetTokenDAO(mongoDB.DB, cfg.Timeout)
}

func provideReviewDAO(mongoDB *MongoDatabase, cfg *config.DatabaseConfig) dao.ReviewDAO {
	return mongodao.NewReviewDAO(mongoDB.DB, cfg.Timeout)
}
