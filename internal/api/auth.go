package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// wsTicketTTL is how long a WebSocket ticket stays redeemable.
// Browsers cannot set headers on WebSocket upgrades, so clients exchange
// their bearer token for a short-lived single-use ticket first.
const wsTicketTTL = 30 * time.Second

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// handleLogin authenticates against the configured admin credentials and
// issues a signed JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if s.secCfg.Admin.Password == "" {
		s.logger.Warn("login attempted but no admin password configured")
		writeUnauthorized(w, "authentication not configured")
		return
	}

	userOK := secureCompare(req.Username, s.secCfg.Admin.Username)
	passOK := secureCompare(req.Password, s.secCfg.Admin.Password)
	if !userOK || !passOK {
		s.logger.Warn("failed login attempt", "username", req.Username, "remote", r.RemoteAddr)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := s.secCfg.JWT.GetAccessTokenTTL()
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  req.Username,
		"role": "admin",
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secCfg.JWT.Secret))
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		writeInternalError(w, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     signed,
		TokenType: "Bearer",
		ExpiresIn: int(ttl.Seconds()),
	})
}

// wsTicket is a single-use credential for WebSocket upgrades.
type wsTicket struct {
	username  string
	expiresAt time.Time
}

var (
	wsTicketsMu sync.Mutex
	wsTickets   = make(map[string]wsTicket)
)

// handleWSTicket issues a short-lived ticket for an authenticated client.
// The caller redeems it as a ?ticket= query parameter on the upgrade.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	username, _ := r.Context().Value(ctxKeyUsername).(string)

	ticket := uuid.NewString()
	wsTicketsMu.Lock()
	wsTickets[ticket] = wsTicket{
		username:  username,
		expiresAt: time.Now().Add(wsTicketTTL),
	}
	wsTicketsMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(wsTicketTTL.Seconds()),
	})
}

// validateTicket redeems a WebSocket ticket. Tickets are single use;
// a successful validation removes the ticket.
func validateTicket(ticket string) (string, bool) {
	wsTicketsMu.Lock()
	defer wsTicketsMu.Unlock()

	t, ok := wsTickets[ticket]
	if !ok {
		return "", false
	}
	delete(wsTickets, ticket)

	if time.Now().After(t.expiresAt) {
		return "", false
	}
	return t.username, true
}

// cleanTicketsLoop sweeps expired tickets until the context is cancelled.
func (s *Server) cleanTicketsLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			wsTicketsMu.Lock()
			for ticket, t := range wsTickets {
				if now.After(t.expiresAt) {
					delete(wsTickets, ticket)
				}
			}
			wsTicketsMu.Unlock()
		}
	}
}
