package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	replayedHeader    = "Idempotent-Replayed"
	idempotencyTTL    = 24 * time.Hour
	// A claimed key that never completes frees itself after this long.
	idempotencyClaimTTL = 30 * time.Second
)

// savedWrite is what redis holds under an idempotency key. Status is zero
// while the first request is still running.
type savedWrite struct {
	Fingerprint string `json:"fingerprint"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// capturingWriter keeps a copy of the response body.
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

// IdempotencyMiddleware makes load writes safe to retry. A POST, PUT or PATCH
// carrying an Idempotency-Key runs once per caller, route and key; a retry
// with the same body gets the stored response back, a retry with a different
// body is rejected with 422, and a retry that races the first request gets
// 409. Server errors release the key so the write can be tried again. When
// redis is unreachable requests pass through unprotected.
func IdempotencyMiddleware(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isWriteMethod(c.Request.Method) {
			c.Next()
			return
		}
		header := c.GetHeader(idempotencyHeader)
		if header == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Unable to read request body"})
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		key := idempotencyKey(c, header)
		fingerprint := requestFingerprint(body)

		saved, err := loadSavedWrite(ctx, rdb, key)
		if err != nil {
			c.Next()
			return
		}
		if saved == nil {
			claim, _ := json.Marshal(savedWrite{Fingerprint: fingerprint})
			claimed, err := rdb.SetNX(ctx, key, claim, idempotencyClaimTTL).Result()
			if err != nil {
				c.Next()
				return
			}
			if !claimed {
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is still being processed"})
				return
			}
			runAndSave(c, rdb, key, fingerprint)
			return
		}

		switch {
		case saved.Fingerprint != fingerprint:
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "Idempotency-Key was already used with a different request"})
		case saved.Status == 0:
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is still being processed"})
		default:
			c.Header(replayedHeader, "true")
			c.Data(saved.Status, saved.ContentType, saved.Body)
			c.Abort()
		}
	}
}

func runAndSave(c *gin.Context, rdb *redis.Client, key, fingerprint string) {
	w := &capturingWriter{ResponseWriter: c.Writer}
	c.Writer = w

	c.Next()

	ctx := c.Request.Context()
	status := w.Status()
	if status >= http.StatusInternalServerError {
		_ = rdb.Del(ctx, key).Err()
		return
	}
	data, err := json.Marshal(savedWrite{
		Fingerprint: fingerprint,
		Status:      status,
		ContentType: w.Header().Get("Content-Type"),
		Body:        w.body.Bytes(),
	})
	if err != nil {
		_ = rdb.Del(ctx, key).Err()
		return
	}
	_ = rdb.Set(ctx, key, data, idempotencyTTL).Err()
}

// loadSavedWrite returns nil, nil when the key has not been used.
func loadSavedWrite(ctx context.Context, rdb *redis.Client, key string) (*savedWrite, error) {
	data, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var saved savedWrite
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func isWriteMethod(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

func idempotencyKey(c *gin.Context, header string) string {
	return "idempotency:" + c.GetString(AuthUserKey) + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + header
}

func requestFingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
