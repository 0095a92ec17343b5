package recordnote

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/ReliveRS/RecordNote/pkg/client"
	"github.com/ReliveRS/RecordNote/pkg/models"
)

// Sessions are held in memory with an expiry; a restart signs everyone out
// and clients re-authenticate. A multi-instance deployment would need a
// shared session store.
const sessionTTL = 24 * time.Hour

// generateToken returns a 64-character hex token with 256 bits of entropy.
func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashPassword produces "salt$digest" with a random 16-byte salt.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	sum := sha256.Sum256(append(salt, []byte(password)...))
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(sum[:]), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.SplitN(stored, "$", 2)
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	sum := sha256.Sum256(append(salt, []byte(password)...))
	return subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(parts[1])) == 1
}

// getTokenFromHeader extracts the bearer token from the Authorization
// header, tolerating a missing "Bearer " prefix.
func getTokenFromHeader(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const bearerPrefix = "Bearer "
	if len(auth) > len(bearerPrefix) && auth[:len(bearerPrefix)] == bearerPrefix {
		return auth[len(bearerPrefix):]
	}
	return auth
}

// newSession stores a copy of the user so later request handlers never
// share a record with in-flight ones.
func (a *App) newSession(user *models.User) (string, time.Time, error) {
	token, err := generateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	u := *user
	expiresAt := time.Now().Add(sessionTTL)
	a.sessionMu.Lock()
	a.sessions[token] = &session{user: &u, expiresAt: expiresAt}
	a.sessionMu.Unlock()
	return token, expiresAt, nil
}

// refreshSession replaces the user snapshot held by the request's session
// after a handler has changed the account, keeping the expiry.
func (a *App) refreshSession(r *http.Request, user *models.User) {
	token := getTokenFromHeader(r)
	if token == "" {
		return
	}
	u := *user
	a.sessionMu.Lock()
	if sess, ok := a.sessions[token]; ok {
		a.sessions[token] = &session{user: &u, expiresAt: sess.expiresAt}
	}
	a.sessionMu.Unlock()
}

// sessionUser resolves the request's token to a user, dropping expired
// sessions as they are encountered. The returned record is the handler's
// private copy.
func (a *App) sessionUser(r *http.Request) *models.User {
	token := getTokenFromHeader(r)
	if token == "" {
		return nil
	}
	a.sessionMu.RLock()
	sess, ok := a.sessions[token]
	a.sessionMu.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().After(sess.expiresAt) {
		a.sessionMu.Lock()
		delete(a.sessions, token)
		a.sessionMu.Unlock()
		return nil
	}
	u := *sess.user
	return &u
}

func (a *App) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req client.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "name and email are required")
		return
	}

	existing, err := a.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		respondError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user := &models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Preferences:  models.DefaultPreferences(),
	}
	if err := a.store.CreateUser(r.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, expiresAt, err := a.newSession(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, client.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

func (a *App) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req client.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := a.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user == nil || !verifyPassword(user.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := a.store.TouchUserAccess(r.Context(), user.ID); err != nil {
		a.log.Warn().Err(err).Str("user", user.ID.String()).Msg("failed to stamp last access")
	}

	token, expiresAt, err := a.newSession(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, client.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

func (a *App) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := getTokenFromHeader(r); token != "" {
		a.sessionMu.Lock()
		delete(a.sessions, token)
		a.sessionMu.Unlock()
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (a *App) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := a.sessionUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (a *App) handleRefreshToken(w http.ResponseWriter, r *http.Request) {
	oldToken := getTokenFromHeader(r)
	user := a.sessionUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	a.sessionMu.Lock()
	delete(a.sessions, oldToken)
	a.sessionMu.Unlock()

	token, expiresAt, err := a.newSession(user)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, client.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	})
}

func (a *App) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	user := a.sessionUser(r)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req client.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !verifyPassword(user.PasswordHash, req.OldPassword) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	user.PasswordHash = hash
	if err := a.store.UpdateUser(r.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// The session keeps its own snapshot; without this the old password
	// would still verify on this token.
	a.refreshSession(r, user)
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePasswordReset acknowledges a reset request. The response does not
// reveal whether the account exists; delivery of the reset itself is the
// mail pipeline's job, which this service does not own.
func (a *App) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if user != nil {
		a.log.Info().Str("user", user.ID.String()).Msg("password reset requested")
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
