package middleware

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	appsession "github.com/songviet/po-admin/internal/admin/session"
)

type sessionContextKey string

const requestSessionKey sessionContextKey = "admin.session"

// SessionStore abstracts the session manager for middleware integration.
type SessionStore interface {
	Load(*http.Request) (*appsession.Session, error)
	New() *appsession.Session
	Save(http.ResponseWriter, *appsession.Session) error
	Destroy(http.ResponseWriter)
}

// Session attaches the decoded session to the request context and persists
// changes back to the client cookie.
func Session(store SessionStore, logger *zap.Logger) func(http.Handler) http.Handler {
	if store == nil {
		panic("session store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := store.Load(r)
			if errors.Is(err, appsession.ErrExpired) {
				logger.Info("session expired, resetting")
				store.Destroy(w)
				sess = store.New()
			} else if err != nil || sess == nil {
				if err != nil {
					logger.Warn("session load failed", zap.Error(err))
				}
				sess = store.New()
			}

			// The cookie has to go out with the response headers, so the
			// save happens right before the handler's first write.
			sw := &sessionWriter{
				ResponseWriter: w,
				store:          store,
				sess:           sess,
				logger:         logger,
			}

			ctx := context.WithValue(r.Context(), requestSessionKey, sess)
			next.ServeHTTP(sw, r.WithContext(ctx))

			sw.persist()
		})
	}
}

type sessionWriter struct {
	http.ResponseWriter
	store  SessionStore
	sess   *appsession.Session
	logger *zap.Logger
	saved  bool
}

func (sw *sessionWriter) persist() {
	if sw.saved {
		return
	}
	sw.saved = true
	if err := sw.store.Save(sw.ResponseWriter, sw.sess); err != nil {
		sw.logger.Error("session save failed", zap.Error(err))
	}
}

func (sw *sessionWriter) WriteHeader(statusCode int) {
	sw.persist()
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.persist()
	return sw.ResponseWriter.Write(b)
}

// SessionFromContext retrieves the session attached to this request.
func SessionFromContext(ctx context.Context) (*appsession.Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(requestSessionKey).(*appsession.Session)
	return sess, ok && sess != nil
}
