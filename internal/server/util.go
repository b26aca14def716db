package server

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
)

// cleanBase normalizes a mount prefix to "" or "/a/b".
func cleanBase(prefix string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return ""
	}
	return path.Clean("/" + prefix)
}

func writeJSON(c *gin.Context, code int, v any) {
	c.Header("Content-Type", "application/json")
	c.Status(code)
	_ = json.NewEncoder(c.Writer).Encode(v)
}
