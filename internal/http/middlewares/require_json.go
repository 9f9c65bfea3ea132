package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects body-carrying requests whose declared media type is not
// application/json. Parameters such as "; charset=utf-8" are fine.
func RequireJSON() gin.HandlerFunc {
	mutating := map[string]struct{}{
		http.MethodPost:  {},
		http.MethodPut:   {},
		http.MethodPatch: {},
	}

	return func(ctx *gin.Context) {
		_, hasBody := mutating[ctx.Request.Method]

		if hasBody && !isJSONMediaType(ctx.GetHeader("Content-Type")) {
			ctx.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
				"error": gin.H{
					"code":    "unsupported_media_type",
					"message": "Content-Type must be application/json",
				},
			})
			return
		}

		ctx.Next()
	}
}

func isJSONMediaType(ct string) bool {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}

	return mt == "application/json"
}
