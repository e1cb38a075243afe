// Package jsend shapes API responses following the JSend convention:
// "success" for 2xx, "fail" for client-caused 4xx, "error" for 5xx.
package jsend

import "github.com/gin-gonic/gin"

func Success(data gin.H) gin.H {
	return gin.H{"status": "success", "data": data}
}

func Fail(message string) gin.H {
	return gin.H{"status": "fail", "data": gin.H{"message": message}}
}

// FailData wraps an arbitrary payload, used when a failure carries more
// than a single message (e.g. a list of filter validation errors).
func FailData(data gin.H) gin.H {
	return gin.H{"status": "fail", "data": data}
}

func Error(message string) gin.H {
	return gin.H{"status": "error", "message": message}
}
