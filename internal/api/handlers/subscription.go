package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Subscription is one entry of the programmatic subscription list returned to
// the Dapr sidecar on GET /dapr/subscribe
type Subscription struct {
	PubsubName string `json:"pubsubname"`
	Topic      string `json:"topic"`
	Route      string `json:"route"`
}

// SubscribeHandler answers the sidecar's subscription discovery call
func SubscribeHandler(subscriptions []Subscription) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, subscriptions)
	}
}
