// 文件路径: internal/api/handler/etag.go
// 模块说明: 这是 internal 模块里的 etag 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

func formatETag(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return "\"" + trimmed + "\""
}

// contentETag 用文档内容的摘要生成强校验 ETag。
func contentETag(content string) string {
	sum := sha256.Sum256([]byte(content))
	return formatETag(hex.EncodeToString(sum[:16]))
}

// notModified reports whether the request's If-None-Match already names etag.
func notModified(r *http.Request, etag string) bool {
	if etag == "" {
		return false
	}
	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
