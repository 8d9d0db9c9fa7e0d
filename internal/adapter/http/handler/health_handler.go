package handler

import (
	"net/http"

	"wallet-ledger/internal/adapter/http/dto"
	"wallet-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// Version is reported by GET /. Overridden at build time with -ldflags.
var Version = "1.0.0"

// HealthCheck reports store and cache liveness: 200 when both are up, 503 otherwise.
func HealthCheck(healthSvc ports.HealthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := healthSvc.Check(c.Request.Context())

		httpCode := http.StatusOK
		if !report.Healthy() {
			httpCode = http.StatusServiceUnavailable
		}
		c.JSON(httpCode, report)
	}
}

// Root handles GET /.
func Root(c *gin.Context) {
	c.JSON(http.StatusOK, dto.RootResponse{
		Message: "Wallet Ledger API",
		Version: Version,
	})
}
