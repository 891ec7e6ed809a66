package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MaxBodyBytes caps request bodies. A declared length over the cap is refused up front;
// chunked bodies are cut by http.MaxBytesReader and surface as a bind error.
func MaxBodyBytes(max int64) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.Request.ContentLength > max {
			reqID, _ := ctx.Get(CtxRequestID)

			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":      "invalid_request",
					"message":   "Request body too large",
					"requestId": reqID,
					"details":   gin.H{"maxBytes": max},
				},
			})
			return
		}

		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, max)

		ctx.Next()
	}
}
