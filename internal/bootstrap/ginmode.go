package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode maps APP_ENV onto gin's run mode. Anything unknown stays in debug.
func SetGinMode(env string) {
	switch env {
	case "production", "staging":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}
