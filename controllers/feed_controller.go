package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tipflow/tip-backend/livefeed"
	"github.com/tipflow/tip-backend/middlewares"
	"github.com/tipflow/tip-backend/utils"
)

type FeedController struct {
	hub      *livefeed.Hub
	upgrader websocket.Upgrader
}

// NewFeedController accepts any origin when origins is empty.
func NewFeedController(hub *livefeed.Hub, origins []string) *FeedController {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return &FeedController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return len(allowed) == 0 || allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Stream handles GET /ws/tips for an authenticated provider.
func (fc *FeedController) Stream(c *gin.Context) {
	providerID := c.GetString(middlewares.CtxSubjectID)
	conn, err := fc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Warnf("live feed upgrade: %v", err)
		return
	}
	utils.InfoLogger.WithField("provider_id", providerID).Info("live feed connected")
	fc.hub.Serve(conn, providerID)
}
