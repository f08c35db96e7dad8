package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quayside/quayside/internal/auth"
	"github.com/quayside/quayside/internal/user"
)

// stateCookie carries the OAuth anti-forgery state between the login
// redirect and the provider callback.
const stateCookie = "oauthState"

func (s *Server) provider(c *gin.Context) *auth.Provider {
	p, ok := s.providers[c.Param("provider")]
	if !ok || !p.Configured() {
		return nil
	}
	return p
}

// handleLoginURL returns the provider's authorization URL and plants the
// state cookie.
func (s *Server) handleLoginURL(c *gin.Context) {
	p := s.provider(c)
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown or unconfigured provider"})
		return
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		respondError(c, err)
		return
	}
	state := hex.EncodeToString(b)

	c.SetCookie(stateCookie, state, 600, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"url": p.AuthURL(state)})
}

// handleCallback exchanges the authorization code, finds or creates the
// user, and issues an API token (returned in the body and set as the
// apiToken cookie for the board page).
func (s *Server) handleCallback(c *gin.Context) {
	p := s.provider(c)
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "unknown or unconfigured provider"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "parameter \"code\" required", "field": "code"})
		return
	}
	wantState, err := c.Cookie(stateCookie)
	if err != nil || wantState == "" || c.Query("state") != wantState {
		c.JSON(http.StatusBadRequest, gin.H{"message": "state mismatch"})
		return
	}

	identity, err := p.Exchange(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	u, err := user.FindOrCreate(s.db, identity)
	if err != nil {
		respondError(c, err)
		return
	}

	token, err := auth.IssueToken(s.cfg.Auth.TokenSecret, u.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := user.SetAPIToken(s.db, u.ID, token); err != nil {
		respondError(c, err)
		return
	}

	c.SetCookie("apiToken", token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"user": u, "apiToken": token})
}

// handleCurrentUser returns the authenticated user's profile.
func (s *Server) handleCurrentUser(c *gin.Context) {
	u, err := user.Get(s.db, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}
