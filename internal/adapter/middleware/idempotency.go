package middleware

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// lockTTL bounds how long an unfinished request holds its key.
const lockTTL = 60 * time.Second

type respRecorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Idempotency replays the stored response when a mutating request repeats its
// Idempotency-Key. Keys are scoped by route and X-Actor-Id. A 5xx answer frees
// the key so the client may retry.
func Idempotency(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	s := store{rdb: rdb}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			key := strings.TrimSpace(req.Header.Get(HeaderIdempotencyKey))
			if key == "" {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing " + HeaderIdempotencyKey})
			}
			if !validKey(key) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderIdempotencyKey})
			}
			actorID := strings.TrimSpace(req.Header.Get(HeaderActorID))
			if !reHex32.MatchString(actorID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing or invalid " + HeaderActorID})
			}

			var body []byte
			if req.Body != nil {
				var err error
				if body, err = io.ReadAll(req.Body); err != nil {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable body"})
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			hash := bodyHash(body)

			k := storeKey(req.Method, c.Path(), actorID, key)
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			ok, err := s.reserve(ctx, k, entry{InProgress: true, BodySHA256: hash, CreatedAt: time.Now().UTC()}, lockTTL)
			if err != nil {
				log.Printf("idempotency: reserve %s: %v", k, err)
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
			}
			if !ok {
				cur, err := s.load(ctx, k)
				if err != nil {
					log.Printf("idempotency: load %s: %v", k, err)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != hash {
					return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": HeaderIdempotencyKey + " reused with a different body"})
				}
				if !cur.InProgress && cur.Code != 0 {
					c.Response().Header().Set("Idempotent-Replayed", "true")
					return c.Blob(cur.Code, echo.MIMEApplicationJSON, cur.Body)
				}
				return c.JSON(http.StatusConflict, map[string]string{"error": "request is already in progress"})
			}

			rec := &respRecorder{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := s.release(context.Background(), k); err != nil {
					log.Printf("idempotency: release %s: %v", k, err)
				}
				return nil
			}
			final := entry{Code: rec.code, Body: rec.buf.Bytes(), BodySHA256: hash, CreatedAt: time.Now().UTC()}
			if err := s.save(context.Background(), k, final, ttl); err != nil {
				log.Printf("idempotency: save %s: %v", k, err)
			}
			return nil
		}
	}
}
