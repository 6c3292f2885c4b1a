// Package crud serves the list, create, read, update and delete endpoints of
// a document collection on top of dao.DocumentDAO.
package crud

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/dao"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/request"
	"github.com/jrjohn/arcana-commerce-go/internal/dto/response"
	"github.com/jrjohn/arcana-commerce-go/internal/query"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
	"github.com/jrjohn/arcana-commerce-go/pkg/logger"
)

// IDParam is the default route parameter holding the document id.
const IDParam = "id"

// AssetReleaser deletes stored files that are no longer referenced.
type AssetReleaser interface {
	Release(ctx context.Context, urls ...string)
}

// Hooks customize a Handler per resource. Every hook is optional.
type Hooks[C, U any] struct {
	// BaseFilter scopes every query, e.g. to a parent route or to the caller.
	// Its keys win over the parsed query filter.
	BaseFilter func(c *gin.Context) (bson.M, error)
	// PrepareCreate runs after binding and before the insert.
	PrepareCreate func(c *gin.Context, body *C) error
	// PrepareUpdate runs after binding and before the update.
	PrepareUpdate func(c *gin.Context, id primitive.ObjectID, body *U) error
	// AfterChange runs after a document was created, updated or deleted.
	AfterChange func(ctx context.Context, doc bson.M)
}

// Options configure a Handler.
type Options[C, U any] struct {
	// Resource names the document in messages, e.g. "category".
	Resource string
	Features query.Config
	Hooks    Hooks[C, U]
	// AssetFields hold stored file URLs that are released when replaced or deleted.
	AssetFields []string
	Assets      AssetReleaser
	// Populate applies when the request selects no population itself.
	Populate []query.Population
	// IDParam overrides the route parameter holding the id.
	IDParam string
}

// Handler serves one collection. C and U are the create and update bodies.
type Handler[C, U any] struct {
	dao    dao.DocumentDAO
	opts   Options[C, U]
	logger *zap.Logger
}

// New creates a Handler for the collection behind d.
func New[C, U any](d dao.DocumentDAO, opts Options[C, U], base *zap.Logger) *Handler[C, U] {
	if opts.Resource == "" {
		opts.Resource = d.Collection()
	}
	if opts.IDParam == "" {
		opts.IDParam = IDParam
	}
	if base == nil {
		base = zap.NewNop()
	}
	return &Handler[C, U]{dao: d, opts: opts, logger: base}
}

// List handles GET / with search, sort, projection, population and pagination.
func (h *Handler[C, U]) List(c *gin.Context) {
	base, ok := h.baseFilter(c)
	if !ok {
		return
	}

	q := query.Parse(c.Request.URL.RawQuery)
	parsed := h.opts.Features.Parse(q)

	filter := bson.M{}
	for k, v := range parsed.Filter {
		filter[k] = v
	}
	for k, v := range base {
		filter[k] = v
	}

	ctx := c.Request.Context()
	count, err := h.dao.Count(ctx, filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	limit, page := query.PageRequest(q)
	p := query.Paginate(count, limit, page)

	docs, err := h.dao.Find(ctx, filter, dao.FindOptions{
		Projection: parsed.Projection,
		Sort:       parsed.Sort,
		Skip:       p.Skip,
		Limit:      p.Limit,
		Populate:   h.populate(parsed.Populate),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	response.Write(c, http.StatusOK, response.Success(response.NewList(docs, p)))
}

// Create handles POST / and responds 201 with the stored document.
func (h *Handler[C, U]) Create(c *gin.Context) {
	var body C
	if !Bind(c, &body) {
		return
	}
	if hook := h.opts.Hooks.PrepareCreate; hook != nil {
		if err := hook(c, &body); err != nil {
			_ = c.Error(err)
			return
		}
	}

	doc, err := h.dao.Insert(c.Request.Context(), &body)
	if err != nil {
		_ = c.Error(h.storeError(err))
		return
	}
	h.afterChange(c.Request.Context(), doc)

	response.Write(c, http.StatusCreated, response.Success(doc))
}

// ReadOne handles GET /:id. Projection and population query keys apply.
func (h *Handler[C, U]) ReadOne(c *gin.Context) {
	filter, id, ok := h.documentFilter(c)
	if !ok {
		return
	}

	parsed := h.opts.Features.Parse(query.Parse(c.Request.URL.RawQuery))
	doc, err := h.dao.FindOne(c.Request.Context(), filter, dao.FindOptions{
		Projection: parsed.Projection,
		Populate:   h.populate(parsed.Populate),
	})
	if err != nil {
		_ = c.Error(err)
		return
	}
	if doc == nil {
		_ = c.Error(h.notFound(id.Hex()))
		return
	}

	response.Write(c, http.StatusOK, response.Success(doc))
}

// UpdateOne handles PUT /:id with an atomic $set and responds with the
// document after the update.
func (h *Handler[C, U]) UpdateOne(c *gin.Context) {
	filter, id, ok := h.documentFilter(c)
	if !ok {
		return
	}

	var body U
	if !Bind(c, &body) {
		return
	}
	if hook := h.opts.Hooks.PrepareUpdate; hook != nil {
		if err := hook(c, id, &body); err != nil {
			_ = c.Error(err)
			return
		}
	}

	ctx := c.Request.Context()
	before := h.currentAssets(ctx, filter)

	doc, err := h.dao.FindOneAndUpdate(ctx, filter, bson.M{"$set": &body})
	if err != nil {
		_ = c.Error(h.storeError(err))
		return
	}
	if doc == nil {
		_ = c.Error(h.notFound(id.Hex()))
		return
	}

	h.releaseReplaced(ctx, before, doc)
	h.afterChange(ctx, doc)

	response.Write(c, http.StatusOK, response.Success(doc))
}

// DeleteOne handles DELETE /:id. It responds 204 whether or not a document
// was removed.
func (h *Handler[C, U]) DeleteOne(c *gin.Context) {
	filter, _, ok := h.documentFilter(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	doc, err := h.dao.FindOneAndDelete(ctx, filter)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if doc != nil {
		h.release(ctx, assetURLs(doc, h.opts.AssetFields)...)
		h.afterChange(ctx, doc)
	}

	response.Write(c, http.StatusNoContent, response.Success(nil))
}

// Routes holds the middleware placed in front of each operation.
type Routes struct {
	Read   []gin.HandlerFunc
	Create []gin.HandlerFunc
	Update []gin.HandlerFunc
	Delete []gin.HandlerFunc
}

// Register mounts the five handlers on g.
func (h *Handler[C, U]) Register(g gin.IRoutes, r Routes) {
	path := "/:" + h.opts.IDParam
	g.GET("", chain(r.Read, h.List)...)
	g.POST("", chain(r.Create, h.Create)...)
	g.GET(path, chain(r.Read, h.ReadOne)...)
	g.PUT(path, chain(r.Update, h.UpdateOne)...)
	g.DELETE(path, chain(r.Delete, h.DeleteOne)...)
}

func chain(middleware []gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(middleware)+1)
	out = append(out, middleware...)
	return append(out, handler)
}

func (h *Handler[C, U]) baseFilter(c *gin.Context) (bson.M, bool) {
	hook := h.opts.Hooks.BaseFilter
	if hook == nil {
		return bson.M{}, true
	}
	base, err := hook(c)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	if base == nil {
		base = bson.M{}
	}
	return base, true
}

// documentFilter builds {_id: id} merged with the base filter.
func (h *Handler[C, U]) documentFilter(c *gin.Context) (bson.M, primitive.ObjectID, bool) {
	id, ok := ParseID(c, h.opts.IDParam)
	if !ok {
		return nil, primitive.NilObjectID, false
	}
	base, ok := h.baseFilter(c)
	if !ok {
		return nil, primitive.NilObjectID, false
	}

	filter := bson.M{}
	for k, v := range base {
		filter[k] = v
	}
	filter["_id"] = id
	return filter, id, true
}

func (h *Handler[C, U]) populate(requested []query.Population) []query.Population {
	if len(requested) > 0 {
		return requested
	}
	return h.opts.Populate
}

func (h *Handler[C, U]) notFound(id string) error {
	return apperrors.NotFound(fmt.Sprintf("no %s found with id %s", h.opts.Resource, id))
}

func (h *Handler[C, U]) storeError(err error) error {
	if errors.Is(err, dao.ErrDuplicateKey) {
		return apperrors.Conflict(fmt.Sprintf("%s already exists", h.opts.Resource)).WithError(err)
	}
	return err
}

func (h *Handler[C, U]) afterChange(ctx context.Context, doc bson.M) {
	if hook := h.opts.Hooks.AfterChange; hook != nil && doc != nil {
		hook(ctx, doc)
	}
}

// currentAssets reads the asset fields before an update replaces them.
func (h *Handler[C, U]) currentAssets(ctx context.Context, filter bson.M) []string {
	if len(h.opts.AssetFields) == 0 || h.opts.Assets == nil {
		return nil
	}
	projection := make(map[string]bool, len(h.opts.AssetFields))
	for _, f := range h.opts.AssetFields {
		projection[f] = true
	}
	doc, err := h.dao.FindOne(ctx, filter, dao.FindOptions{Projection: projection})
	if err != nil {
		logger.FromContext(ctx, h.logger).Warn("Failed to read assets before update",
			zap.String("collection", h.dao.Collection()),
			zap.Error(err),
		)
		return nil
	}
	return assetURLs(doc, h.opts.AssetFields)
}

func (h *Handler[C, U]) releaseReplaced(ctx context.Context, before []string, after bson.M) {
	if len(before) == 0 {
		return
	}
	kept := make(map[string]struct{})
	for _, u := range assetURLs(after, h.opts.AssetFields) {
		kept[u] = struct{}{}
	}
	var stale []string
	for _, u := range before {
		if _, ok := kept[u]; !ok {
			stale = append(stale, u)
		}
	}
	h.release(ctx, stale...)
}

func (h *Handler[C, U]) release(ctx context.Context, urls ...string) {
	if h.opts.Assets == nil || len(urls) == 0 {
		return
	}
	h.opts.Assets.Release(ctx, urls...)
}

// assetURLs collects the string values held by fields of doc.
func assetURLs(doc bson.M, fields []string) []string {
	var urls []string
	for _, f := range fields {
		switch v := doc[f].(type) {
		case string:
			if v != "" {
				urls = append(urls, v)
			}
		case primitive.A:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					urls = append(urls, s)
				}
			}
		case []string:
			for _, s := range v {
				if s != "" {
					urls = append(urls, s)
				}
			}
		}
	}
	return urls
}

// ParseID reads an ObjectID route parameter. A malformed id is recorded as a
// validation failure on c.
func ParseID(c *gin.Context, param string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(param))
	if err != nil {
		_ = c.Error(apperrors.Validation(map[string]string{param: "invalid id format"}))
		return primitive.NilObjectID, false
	}
	return id, true
}

// Bind decodes the request body into obj. A failure is recorded on c as a
// validation error keyed by field.
func Bind(c *gin.Context, obj any) bool {
	if err := c.ShouldBind(obj); err != nil {
		if fields := request.FieldErrors(err); len(fields) > 0 {
			_ = c.Error(apperrors.Validation(fields).WithError(err))
		} else {
			_ = c.Error(apperrors.BadRequest("invalid request body").WithError(err))
		}
		return false
	}
	return true
}
