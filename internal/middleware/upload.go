package middleware

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jrjohn/arcana-commerce-go/internal/config"
	"github.com/jrjohn/arcana-commerce-go/internal/media"
	"github.com/jrjohn/arcana-commerce-go/internal/storage"
	apperrors "github.com/jrjohn/arcana-commerce-go/pkg/errors"
)

// UploadField declares a multipart file field and how many files it takes.
type UploadField struct {
	Name     string
	MaxCount int
}

// UploadMiddleware optimizes and stores uploaded images, then replaces the
// file parts with the stored URLs so body binding sees plain values.
type UploadMiddleware struct {
	cfg       config.UploadConfig
	optimizer *media.Optimizer
	storage   storage.Storage
	releaser  *storage.Releaser
	logger    *zap.Logger
}

// NewUploadMiddleware creates a new UploadMiddleware instance
func NewUploadMiddleware(cfg config.UploadConfig, optimizer *media.Optimizer, store storage.Storage, releaser *storage.Releaser, logger *zap.Logger) *UploadMiddleware {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 2 << 20
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 10
	}
	return &UploadMiddleware{
		cfg:       cfg,
		optimizer: optimizer,
		storage:   store,
		releaser:  releaser,
		logger:    logger,
	}
}

// Images handles the declared fields of a multipart request. Stored files
// are released again when the rest of the chain fails. Requests that are not
// multipart pass through untouched.
func (m *UploadMiddleware) Images(prefix string, fields ...UploadField) gin.HandlerFunc {
	declared := make(map[string]int, len(fields))
	for _, f := range fields {
		declared[f.Name] = f.MaxCount
	}

	return func(c *gin.Context) {
		if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			c.Next()
			return
		}

		limit := int64(m.cfg.MaxFiles)*m.cfg.MaxFileSize + 1<<20
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

		form, err := c.MultipartForm()
		if err != nil {
			m.reject(c, apperrors.BadRequest("invalid multipart form").WithError(err))
			return
		}

		if problems := m.check(form, declared); len(problems) > 0 {
			m.reject(c, apperrors.Validation(problems))
			return
		}

		var stored []string
		for name := range declared {
			files := form.File[name]
			if len(files) == 0 {
				continue
			}
			urls := make([]string, 0, len(files))
			for _, fh := range files {
				url, err := m.store(c, prefix, name, fh)
				if err != nil {
					m.releaser.Release(c.Request.Context(), stored...)
					m.reject(c, err)
					return
				}
				urls = append(urls, url)
				stored = append(stored, url)
			}
			form.Value[name] = urls
			delete(form.File, name)
		}

		c.Next()

		if len(stored) > 0 && (c.Writer.Status() >= http.StatusBadRequest || len(c.Errors) > 0) {
			m.logger.Debug("Releasing uploads of failed request", zap.Strings("urls", stored))
			m.releaser.Release(c.Request.Context(), stored...)
		}
	}
}

// check validates field names, counts and sizes before anything is stored.
func (m *UploadMiddleware) check(form *multipart.Form, declared map[string]int) map[string]string {
	problems := map[string]string{}
	total := 0
	for name, files := range form.File {
		maxCount, ok := declared[name]
		if !ok {
			problems[name] = "unexpected file field"
			continue
		}
		if len(files) > maxCount {
			problems[name] = fmt.Sprintf("at most %d file(s) allowed", maxCount)
			continue
		}
		total += len(files)
		for _, fh := range files {
			if fh.Size > m.cfg.MaxFileSize {
				problems[name] = fmt.Sprintf("file exceeds the %d bytes limit", m.cfg.MaxFileSize)
				break
			}
		}
	}
	if total > m.cfg.MaxFiles {
		problems["files"] = fmt.Sprintf("at most %d files per request", m.cfg.MaxFiles)
	}
	return problems
}

func (m *UploadMiddleware) store(c *gin.Context, prefix, field string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, m.cfg.MaxFileSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > m.cfg.MaxFileSize {
		return "", apperrors.Validation(map[string]string{
			field: fmt.Sprintf("file exceeds the %d bytes limit", m.cfg.MaxFileSize),
		})
	}

	if ct, ok := m.optimizer.Sniff(data); !ok {
		return "", apperrors.Validation(map[string]string{
			field: fmt.Sprintf("unsupported file type %s, allowed: %s", ct, strings.Join(m.cfg.MimeTypes, ", ")),
		})
	}

	optimized, err := m.optimizer.Optimize(data)
	if err != nil {
		return "", apperrors.BadRequest("invalid image").WithError(err)
	}

	key := strings.Trim(prefix, "/") + "/" + strings.ReplaceAll(uuid.NewString(), "-", "") + media.Extension
	return m.storage.Put(c.Request.Context(), key, optimized, media.ContentType)
}

func (m *UploadMiddleware) reject(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
