package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// respondReport writes a caller's report with a validator derived from the caller id and
// the encoded body, so two users never share a tag even when their totals match.
func respondReport(ctx *gin.Context, callerID int64, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		ctx.JSON(http.StatusOK, payload)
		return
	}

	tag := reportETag(callerID, body)

	ctx.Header("ETag", tag)
	ctx.Header("Cache-Control", "private, no-cache")
	ctx.Header("Vary", "Authorization")

	if etagMatches(ctx.GetHeader("If-None-Match"), tag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func reportETag(callerID int64, body []byte) string {
	h := sha256.New()
	h.Write([]byte(strconv.FormatInt(callerID, 10)))
	h.Write([]byte{0})
	h.Write(body)

	return `"r-` + hex.EncodeToString(h.Sum(nil)[:16]) + `"`
}

// etagMatches does the weak comparison If-None-Match calls for.
func etagMatches(header, tag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if header == "*" {
		return true
	}

	want := strings.TrimPrefix(tag, "W/")

	for _, candidate := range strings.Split(header, ",") {
		if strings.TrimPrefix(strings.TrimSpace(candidate), "W/") == want {
			return true
		}
	}

	return false
}
