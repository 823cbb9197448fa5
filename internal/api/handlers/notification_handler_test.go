package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mashdotdev/taskflow/internal/domain/notification"
	"github.com/mashdotdev/taskflow/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

type stubLedger struct {
	processed map[string]bool
}

func (l *stubLedger) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	return l.processed[eventID], nil
}

func (l *stubLedger) MarkProcessed(ctx context.Context, eventID, eventType string) error {
	l.processed[eventID] = true
	return nil
}

type stubNotificationRepo struct {
	ledger    *stubLedger
	created   []*notification.Notification
	createErr error
}

func (r *stubNotificationRepo) CreateFromEvent(ctx context.Context, n *notification.Notification, eventID, eventType string) error {
	if r.createErr != nil {
		return r.createErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	n.SentAt = time.Now().UTC()
	r.created = append(r.created, n)
	r.ledger.processed[eventID] = true
	return nil
}

func (r *stubNotificationRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]notification.Notification, int64, error) {
	var out []notification.Notification
	for _, n := range r.created {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	return int64(len(r.created)), nil
}

func (r *stubNotificationRepo) MarkRead(ctx context.Context, id uuid.UUID) (*notification.Notification, error) {
	for _, n := range r.created {
		if n.ID == id {
			n.DeliveryStatus = notification.StatusRead
			return n, nil
		}
	}
	return nil, notification.ErrNotificationNotFound
}

func newNotificationTestRouter() (*gin.Engine, *stubNotificationRepo) {
	gin.SetMode(gin.TestMode)

	ledger := &stubLedger{processed: make(map[string]bool)}
	repo := &stubNotificationRepo{ledger: ledger}
	consumer := notification.NewConsumer(ledger, repo, nil, testLogger())
	service := notification.NewService(repo, nil, testLogger())
	handler := NewNotificationHandler(consumer, service, testLogger())

	router := gin.New()
	router.POST("/events/task", handler.HandleTaskEvent)
	router.GET("/api/notifications", handler.ListNotifications)
	router.POST("/api/notifications/:id/read", handler.MarkRead)
	return router, repo
}

func postEvent(router *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/events/task", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleTaskEventCreatesNotification(t *testing.T) {
	router, repo := newNotificationTestRouter()

	body := `{"event_id":"e1","event_type":"task-completed","task_id":"t1","user_id":"u1","payload":{"title":"Buy milk"}}`
	w := postEvent(router, body)

	assert.Equal(t, http.StatusOK, w.Code)

	var result notification.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "Task completed: Buy milk", result.Message)
	assert.Len(t, repo.created, 1)
}

func TestHandleTaskEventRedeliveryReturnsOK(t *testing.T) {
	router, repo := newNotificationTestRouter()

	body := `{"event_id":"e1","event_type":"task-completed","task_id":"t1","user_id":"u1","payload":{"title":"Buy milk"}}`
	require.Equal(t, http.StatusOK, postEvent(router, body).Code)

	w := postEvent(router, body)
	assert.Equal(t, http.StatusOK, w.Code, "a skip must still acknowledge the delivery")

	var result notification.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Skipped)
	assert.Len(t, repo.created, 1)
}

func TestHandleTaskEventRejectsMalformedBody(t *testing.T) {
	router, repo := newNotificationTestRouter()

	for _, body := range []string{`not json`, `{"event_type":"task-created"}`, `{"event_id":"e1"}`} {
		w := postEvent(router, body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}
	assert.Empty(t, repo.created)
}

func TestHandleTaskEventFailureTriggersRedelivery(t *testing.T) {
	router, repo := newNotificationTestRouter()
	repo.createErr = errors.New("db down")

	body := `{"event_id":"e1","event_type":"task-created","task_id":"t1","user_id":"u1","payload":{"title":"Buy milk"}}`
	w := postEvent(router, body)
	assert.Equal(t, http.StatusInternalServerError, w.Code,
		"a 5xx tells the broker to redeliver")

	repo.createErr = nil
	assert.Equal(t, http.StatusOK, postEvent(router, body).Code)
	assert.Len(t, repo.created, 1)
}

func TestListNotificationsRequiresUserID(t *testing.T) {
	router, _ := newNotificationTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkReadInvalidID(t *testing.T) {
	router, _ := newNotificationTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/notifications/not-a-uuid/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/dapr/subscribe", SubscribeHandler([]Subscription{
		{PubsubName: "pubsub", Topic: "task-events", Route: "/events/task"},
	}))

	req := httptest.NewRequest(http.MethodGet, "/dapr/subscribe", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var subs []Subscription
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &subs))
	require.Len(t, subs, 1)
	assert.Equal(t, "pubsub", subs[0].PubsubName)
	assert.Equal(t, "task-events", subs[0].Topic)
	assert.Equal(t, "/events/task", subs[0].Route)
}
