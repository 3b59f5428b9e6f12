package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"

	"github.com/nshein/duet/internal/config"
)

// RTCConfigHandler hands clients the ICE servers they should use for the
// sessions negotiated over the relay. The media path itself never touches
// this server.
func RTCConfigHandler(cfg *config.Config) gin.HandlerFunc {
	servers := make([]webrtc.ICEServer, 0, len(cfg.ICEServers))
	for _, s := range cfg.ICEServers {
		urls := make([]string, len(s.URLs))
		copy(urls, s.URLs)
		servers = append(servers, webrtc.ICEServer{
			URLs:       urls,
			Username:   s.Username,
			Credential: s.Credential,
		})
	}
	rtcConfig := webrtc.Configuration{ICEServers: servers}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, rtcConfig)
	}
}
