package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"driverhire/internal/gateway"
	"driverhire/internal/utils"
	"driverhire/pkg/logger"
)

// ProxyHandler relays any verb under /api/booking/* to the legacy API.
type ProxyHandler struct {
	forwarder *gateway.Forwarder
	logger    *logger.Logger
}

func NewProxyHandler(forwarder *gateway.Forwarder, log *logger.Logger) *ProxyHandler {
	return &ProxyHandler{
		forwarder: forwarder,
		logger:    log,
	}
}

// Forward relays status, headers and body verbatim. Hop-by-hop headers
// are dropped. An unreachable remote becomes a 502 with an error code.
func (h *ProxyHandler) Forward(c *gin.Context) {
	resp, err := h.forwarder.Forward(c.Request.Context(), &gateway.Request{
		Method:   c.Request.Method,
		Path:     c.Param("path"),
		RawQuery: c.Request.URL.RawQuery,
		Header:   c.Request.Header,
		Body:     c.Request.Body,
	})
	if err != nil {
		if gateway.IsCanceled(err) {
			c.Abort()
			return
		}
		utils.BadGatewayResponse(c, utils.ErrUpstreamFailed)
		return
	}
	defer resp.Body.Close()

	for name, values := range resp.Header {
		if gateway.IsHopHeader(name) {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}
	c.Status(resp.StatusCode)
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.logger.WithError(err).Warn("Failed to relay booking API response")
	}
}
