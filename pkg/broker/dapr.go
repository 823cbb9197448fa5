package broker

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/mashdotdev/taskflow/pkg/logger"
	"go.uber.org/zap"
)

// publishTimeout bounds a single publish attempt so a stalled sidecar cannot
// hang the caller.
const publishTimeout = 5 * time.Second

// Client publishes messages to a pub/sub broker. The partition key routes all
// messages sharing the key to the same ordered partition.
type Client interface {
	Publish(ctx context.Context, topic, partitionKey string, payload []byte) error
}

// DaprClient publishes through the Dapr sidecar HTTP API. The Kafka binding
// reads the partition key from both the partitionKey header and the
// metadata.partitionKey query parameter, so the key is sent twice.
type DaprClient struct {
	baseURL string
	pubsub  string
	client  *http.Client
	logger  *logger.Logger
}

// NewDaprClient creates a client against the local Dapr sidecar
func NewDaprClient(httpPort int, pubsubName string, log *logger.Logger) *DaprClient {
	return &DaprClient{
		baseURL: fmt.Sprintf("http://localhost:%d/v1.0", httpPort),
		pubsub:  pubsubName,
		client:  &http.Client{Timeout: publishTimeout},
		logger:  log,
	}
}

// Publish posts the payload to the sidecar. Any status outside 200/204 is a
// delivery failure.
func (c *DaprClient) Publish(ctx context.Context, topic, partitionKey string, payload []byte) error {
	publishURL := fmt.Sprintf("%s/publish/%s/%s?metadata.partitionKey=%s",
		c.baseURL, c.pubsub, topic, url.QueryEscape(partitionKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, publishURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("partitionKey", partitionKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("publish to topic %s failed: %w", topic, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("publish to topic %s rejected with status %d", topic, resp.StatusCode)
	}

	c.logger.Info("Published message to broker",
		zap.String("topic", topic),
		zap.String("partition_key", partitionKey))

	return nil
}
