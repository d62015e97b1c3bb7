package httpapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session transport: the core only needs an authenticated tenant id
// per request, so tokens live in process memory and die with it.
type Session struct {
	SessionID string
	TenantID  string
	Username  string
	ExpiresAt time.Time
}

type SessionManager struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]Session
}

func NewSessionManager(ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}
	return &SessionManager{ttl: ttl, sessions: make(map[string]Session)}
}

func (m *SessionManager) Create(tenantID, username string) Session {
	session := Session{
		SessionID: uuid.NewString(),
		TenantID:  tenantID,
		Username:  username,
		ExpiresAt: time.Now().UTC().Add(m.ttl),
	}
	m.mu.Lock()
	m.sessions[session.SessionID] = session
	m.mu.Unlock()
	return session
}

func (m *SessionManager) Get(sessionID string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	if time.Now().UTC().After(session.ExpiresAt) {
		delete(m.sessions, sessionID)
		return Session{}, false
	}
	return session, true
}

func (m *SessionManager) Delete(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}

type authContextKey struct{}

func AuthMiddleware(sessions *SessionManager, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicEndpoint(r) {
			next.ServeHTTP(w, r)
			return
		}
		sessionID := sessionIDFromRequest(r)
		if sessionID == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing session token")
			return
		}
		session, ok := sessions.Get(sessionID)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid session")
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) (Session, bool) {
	value := ctx.Value(authContextKey{})
	if value == nil {
		return Session{}, false
	}
	session, ok := value.(Session)
	return session, ok
}

func sessionIDFromRequest(r *http.Request) string {
	if token := bearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	return strings.TrimSpace(r.Header.Get("X-Session-ID"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

// Export and import carry their own credentials and re-authenticate
// even when a session exists.
func isPublicEndpoint(r *http.Request) bool {
	switch r.URL.Path {
	case "/healthz", "/metrics":
		return true
	case "/api/pos", "/api/auth/login", "/api/export", "/api/import":
		return r.Method == http.MethodPost
	default:
		return r.Method == http.MethodOptions
	}
}
