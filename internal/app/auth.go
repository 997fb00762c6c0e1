package app

import (
	"github.com/gin-gonic/gin"
)

const metricsRealm = "campus metrics"

// metricsAuth guards /metrics with Basic Auth. An empty password leaves the
// endpoint open; config validation guarantees a username otherwise.
func metricsAuth(username, password string) gin.HandlerFunc {
	if password == "" {
		return func(c *gin.Context) { c.Next() }
	}
	return gin.BasicAuthForRealm(gin.Accounts{username: password}, metricsRealm)
}
