package core

import "github.com/gin-gonic/gin"

// respondError sends the unified error payload {"error": {"code", "message"}}.
// Only transport-level problems use it; expected auth outcomes are
// plain 200 responses with false/null bodies.
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}
