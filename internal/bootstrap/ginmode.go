package bootstrap

import "github.com/gin-gonic/gin"

// SetGinMode maps the APP_ENV value onto gin's mode. Anything other than
// production or test keeps gin's default debug output.
func SetGinMode(env string) {
	switch env {
	case "production", "staging":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}
