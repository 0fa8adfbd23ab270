package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IdempotencyHeader names the key clients send with mutations
const IdempotencyHeader = "Idempotency-Key"

// KeyValue stores replayable responses. Get returns an error for missing keys.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a mutation whose
// Idempotency-Key was already seen for the same caller. Server errors are
// not stored, so they can be retried.
func Idempotency(kv KeyValue, ttl time.Duration, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if kv == nil || key == "" || c.Request.Method == http.MethodGet || len(key) > 128 {
			c.Next()
			return
		}

		caller := c.GetString(userIDKey)
		if caller == "" {
			caller = c.ClientIP()
		}
		cacheKey := "idempotency:" + caller + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key

		if raw, err := kv.Get(c.Request.Context(), cacheKey); err == nil {
			var stored storedResponse
			if err := json.Unmarshal([]byte(raw), &stored); err == nil {
				c.Header("Idempotent-Replayed", "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= 500 {
			return
		}
		encoded, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := kv.Set(c.Request.Context(), cacheKey, encoded, ttl); err != nil {
			logger.WithError(err).Warn("failed to store idempotent response")
		}
	}
}
