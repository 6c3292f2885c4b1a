package response

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jrjohn/arcana-commerce-go/internal/query"
)

// Status tags the envelope variant.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFail    Status = "fail"
	StatusError   Status = "error"
)

// Envelope is the body of every API response. Success and fail carry data,
// error carries a message.
type Envelope struct {
	Status  Status
	Data    any
	Message string
}

// Success wraps a successful result.
func Success(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// Fail wraps a client side failure such as invalid input or a missing document.
func Fail(data any) Envelope {
	return Envelope{Status: StatusFail, Data: data}
}

// Error wraps a server side failure.
func Error(message string) Envelope {
	return Envelope{Status: StatusError, Message: message}
}

// MarshalJSON writes {status, data} or {status, message} depending on the variant.
func (e Envelope) MarshalJSON() ([]byte, error) {
	if e.Status == StatusError {
		return json.Marshal(struct {
			Status  Status `json:"status"`
			Message string `json:"message"`
		}{e.Status, e.Message})
	}
	return json.Marshal(struct {
		Status Status `json:"status"`
		Data   any    `json:"data"`
	}{e.Status, e.Data})
}

// Write serializes env with the given status code. 204 responses carry no body.
func Write(c *gin.Context, code int, env Envelope) {
	if code == http.StatusNoContent {
		c.Status(code)
		return
	}
	c.JSON(code, env)
}

// Abort writes env and stops the handler chain.
func Abort(c *gin.Context, code int, env Envelope) {
	Write(c, code, env)
	c.Abort()
}

// Message is the common fail payload shape.
type Message struct {
	Message string `json:"message"`
}

// List is the payload of a paginated collection read.
type List[T any] struct {
	Data []T `json:"data"`
	query.Pagination
}

// NewList builds a list payload. A nil slice is serialized as [].
func NewList[T any](data []T, p query.Pagination) List[T] {
	if data == nil {
		data = []T{}
	}
	return List[T]{Data: data, Pagination: p}
}
