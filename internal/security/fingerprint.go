package security

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mssola/useragent"

	"github.com/jrjohn/arcana-commerce-go/internal/domain/entity"
)

// DescribeAgent renders a user agent header as "<browser> <version> / <os>".
// Headers naming no browser are returned unchanged.
func DescribeAgent(header string) string {
	ua := useragent.New(header)
	name, version := ua.Browser()
	if name == "" {
		return header
	}

	desc := strings.TrimSpace(name + " " + version)
	if os := ua.OS(); os != "" {
		desc += " / " + os
	}
	return desc
}

// Fingerprint identifies the client of the current request.
func Fingerprint(c *gin.Context) entity.ClientFingerprint {
	return entity.ClientFingerprint{
		IP:    c.ClientIP(),
		Agent: DescribeAgent(c.GetHeader("User-Agent")),
	}
}
