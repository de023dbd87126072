package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Tesseract-Nexus/go-shared/middleware"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SecurityConfig holds configuration for security middleware
type SecurityConfig struct {
	// MaxLoginAttempts before account lockout
	MaxLoginAttempts int
	// LockoutDuration is the initial lockout duration
	LockoutDuration time.Duration
	// MaxLockoutDuration is the maximum lockout duration with exponential backoff
	MaxLockoutDuration time.Duration
	// LockoutResetAfter is how long until failed attempts are reset
	LockoutResetAfter time.Duration
	// RedisKeyPrefix for storing lockout data
	RedisKeyPrefix string
}

// DefaultSecurityConfig returns sensible defaults
func DefaultSecurityConfig() SecurityConfig {
	return SecurityConfig{
		MaxLoginAttempts:   5,
		LockoutDuration:    30 * time.Second,
		MaxLockoutDuration: 1 * time.Hour,
		LockoutResetAfter:  15 * time.Minute,
		RedisKeyPrefix:     "portal:lockout:",
	}
}

// SecurityMiddleware provides account lockout for the login endpoints. The
// lockout key is IP plus login identifier, which is an email for admins and
// a mobile number for partners.
type SecurityMiddleware struct {
	config      SecurityConfig
	redisClient *redis.Client
	logger      *logrus.Logger
	// In-memory fallback when Redis is unavailable
	localLockouts map[string]*lockoutState
	localMu       sync.RWMutex
}

// lockoutState tracks login attempts and lockout status
type lockoutState struct {
	FailedAttempts int       `json:"failed_attempts"`
	LastFailedAt   time.Time `json:"last_failed_at"`
	LockedUntil    time.Time `json:"locked_until"`
	LockoutCount   int       `json:"lockout_count"` // For exponential backoff
}

// NewSecurityMiddleware creates a new security middleware instance
func NewSecurityMiddleware(redisClient *redis.Client, logger *logrus.Logger) *SecurityMiddleware {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return &SecurityMiddleware{
		config:        DefaultSecurityConfig(),
		redisClient:   redisClient,
		logger:        logger,
		localLockouts: make(map[string]*lockoutState),
	}
}

// NewSecurityMiddlewareWithConfig creates a security middleware with custom config
func NewSecurityMiddlewareWithConfig(redisClient *redis.Client, logger *logrus.Logger, config SecurityConfig) *SecurityMiddleware {
	sm := NewSecurityMiddleware(redisClient, logger)
	sm.config = config
	return sm
}

// generateLockoutKey creates a unique key for IP + identifier combination
func (sm *SecurityMiddleware) generateLockoutKey(ip, identifier string) string {
	// Hash the combination for privacy and consistent key length
	data := fmt.Sprintf("%s:%s", ip, strings.ToLower(identifier))
	hash := sha256.Sum256([]byte(data))
	return sm.config.RedisKeyPrefix + hex.EncodeToString(hash[:16])
}

// getLockoutState retrieves lockout state from Redis or local cache
func (sm *SecurityMiddleware) getLockoutState(ctx context.Context, key string) (*lockoutState, error) {
	// Try Redis first
	if sm.redisClient != nil {
		data, err := sm.redisClient.Get(ctx, key).Result()
		if err == nil {
			var state lockoutState
			if err := json.Unmarshal([]byte(data), &state); err == nil {
				return &state, nil
			}
		} else if err != redis.Nil {
			sm.logger.WithError(err).Warn("Failed to get lockout state from Redis, using local fallback")
		}
	}

	// Fallback to local cache
	sm.localMu.RLock()
	state, exists := sm.localLockouts[key]
	sm.localMu.RUnlock()

	if !exists {
		return &lockoutState{}, nil
	}

	return state, nil
}

// setLockoutState stores lockout state in Redis and local cache
func (sm *SecurityMiddleware) setLockoutState(ctx context.Context, key string, state *lockoutState) error {
	// Store in local cache
	sm.localMu.Lock()
	sm.localLockouts[key] = state
	sm.localMu.Unlock()

	// Store in Redis if available
	if sm.redisClient != nil {
		data, err := json.Marshal(state)
		if err != nil {
			return err
		}

		ttl := sm.config.LockoutResetAfter
		if state.LockedUntil.After(time.Now()) {
			// Extend TTL if currently locked
			remaining := time.Until(state.LockedUntil)
			if remaining > ttl {
				ttl = remaining + time.Minute
			}
		}

		if err := sm.redisClient.Set(ctx, key, data, ttl).Err(); err != nil {
			sm.logger.WithError(err).Warn("Failed to set lockout state in Redis")
			// Don't return error - local cache is already updated
		}
	}

	return nil
}

// clearLockoutState removes lockout state (on successful login)
func (sm *SecurityMiddleware) clearLockoutState(ctx context.Context, key string) {
	sm.localMu.Lock()
	delete(sm.localLockouts, key)
	sm.localMu.Unlock()

	if sm.redisClient != nil {
		if err := sm.redisClient.Del(ctx, key).Err(); err != nil {
			sm.logger.WithError(err).Warn("Failed to clear lockout state from Redis")
		}
	}
}

// calculateLockoutDuration calculates lockout duration with exponential backoff
func (sm *SecurityMiddleware) calculateLockoutDuration(lockoutCount int) time.Duration {
	if lockoutCount <= 0 {
		return sm.config.LockoutDuration
	}

	// Exponential backoff: duration * 2^(lockoutCount-1)
	duration := sm.config.LockoutDuration * time.Duration(1<<(lockoutCount-1))

	if duration > sm.config.MaxLockoutDuration {
		duration = sm.config.MaxLockoutDuration
	}

	return duration
}

// RecordFailedLogin records a failed login attempt
func (sm *SecurityMiddleware) RecordFailedLogin(ctx context.Context, ip, identifier string) (attemptsRemaining int, lockedUntil time.Time) {
	key := sm.generateLockoutKey(ip, identifier)

	state, _ := sm.getLockoutState(ctx, key)

	// Check if we should reset the counter (attempts too old)
	if state.FailedAttempts > 0 && time.Since(state.LastFailedAt) > sm.config.LockoutResetAfter {
		state = &lockoutState{}
	}

	state.FailedAttempts++
	state.LastFailedAt = time.Now()

	if state.FailedAttempts >= sm.config.MaxLoginAttempts {
		state.LockoutCount++
		lockoutDuration := sm.calculateLockoutDuration(state.LockoutCount)
		state.LockedUntil = time.Now().Add(lockoutDuration)

		sm.logSecurityEvent("account_locked", ip, identifier, map[string]interface{}{
			"failed_attempts":  state.FailedAttempts,
			"lockout_count":    state.LockoutCount,
			"locked_until":     state.LockedUntil,
			"lockout_duration": lockoutDuration.String(),
		})
	} else {
		sm.logSecurityEvent("failed_login_attempt", ip, identifier, map[string]interface{}{
			"failed_attempts":    state.FailedAttempts,
			"attempts_remaining": sm.config.MaxLoginAttempts - state.FailedAttempts,
		})
	}

	sm.setLockoutState(ctx, key, state)

	return sm.config.MaxLoginAttempts - state.FailedAttempts, state.LockedUntil
}

// RecordSuccessfulLogin clears failed login attempts on successful login
func (sm *SecurityMiddleware) RecordSuccessfulLogin(ctx context.Context, ip, identifier string) {
	key := sm.generateLockoutKey(ip, identifier)
	sm.clearLockoutState(ctx, key)

	sm.logSecurityEvent("successful_login", ip, identifier, nil)
}

// IsLocked checks if an IP+identifier combination is currently locked out
func (sm *SecurityMiddleware) IsLocked(ctx context.Context, ip, identifier string) (bool, time.Duration) {
	key := sm.generateLockoutKey(ip, identifier)

	state, _ := sm.getLockoutState(ctx, key)

	if state.LockedUntil.After(time.Now()) {
		return true, time.Until(state.LockedUntil)
	}

	return false, 0
}

// GetFailedAttempts returns the current number of failed attempts
func (sm *SecurityMiddleware) GetFailedAttempts(ctx context.Context, ip, identifier string) int {
	key := sm.generateLockoutKey(ip, identifier)
	state, _ := sm.getLockoutState(ctx, key)
	return state.FailedAttempts
}

// logSecurityEvent logs security-related events
func (sm *SecurityMiddleware) logSecurityEvent(eventType, ip, identifier string, details map[string]interface{}) {
	fields := logrus.Fields{
		"event_type":        eventType,
		"ip_address":        ip,
		"identifier_masked": maskIdentifier(identifier),
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"security_event":    true,
	}

	for k, v := range details {
		fields[k] = v
	}

	sm.logger.WithFields(fields).Info("Security event")
}

// maskIdentifier masks a login identifier for logging. Emails keep their
// first two characters and domain, mobile numbers keep their last four
// digits.
func maskIdentifier(identifier string) string {
	if identifier == "" {
		return "***"
	}

	if parts := strings.Split(identifier, "@"); len(parts) == 2 {
		local := parts[0]
		if len(local) <= 2 {
			return "**@" + parts[1]
		}
		return local[:2] + strings.Repeat("*", len(local)-2) + "@" + parts[1]
	}

	if len(identifier) > 4 {
		return strings.Repeat("*", len(identifier)-4) + identifier[len(identifier)-4:]
	}
	return "***"
}

// AccountLockoutMiddleware checks for account lockout before processing
// login. It peeks at the request body for the login identifier without
// consuming it.
func (sm *SecurityMiddleware) AccountLockoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := extractIdentifierFromRequest(c)
		if identifier == "" {
			// Can't check lockout without an identifier
			c.Next()
			return
		}

		ip := c.ClientIP()
		ctx := c.Request.Context()

		locked, remaining := sm.IsLocked(ctx, ip, identifier)
		if locked {
			sm.logSecurityEvent("locked_login_attempt", ip, identifier, map[string]interface{}{
				"remaining_lockout": remaining.String(),
			})

			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Account temporarily locked due to too many failed login attempts",
				"code":        "ACCOUNT_LOCKED",
				"retry_after": int(remaining.Seconds()),
				"message":     fmt.Sprintf("Please try again in %s", formatDuration(remaining)),
			})
			c.Abort()
			return
		}

		// Store the security middleware in context for the handler to use
		c.Set("security_middleware", sm)
		c.Set("login_identifier", identifier)
		c.Set("login_ip", ip)

		c.Next()
	}
}

// extractIdentifierFromRequest extracts the email or mobile from the request
// body without consuming it
func extractIdentifierFromRequest(c *gin.Context) string {
	var req struct {
		Email  string `json:"email"`
		Mobile string `json:"mobile"`
	}

	bodyBytes, err := c.GetRawData()
	if err != nil || len(bodyBytes) == 0 {
		return ""
	}

	// Put the body back for the actual handler
	c.Request.Body = io.NopCloser(newBodyReader(bodyBytes))

	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		return ""
	}

	if req.Email != "" {
		return strings.ToLower(req.Email)
	}
	return req.Mobile
}

// bodyReader implements io.Reader for restoring request body
type bodyReader struct {
	data  []byte
	index int
}

func newBodyReader(data []byte) *bodyReader {
	return &bodyReader{data: data, index: 0}
}

func (br *bodyReader) Read(p []byte) (n int, err error) {
	if br.index >= len(br.data) {
		return 0, io.EOF
	}
	n = copy(p, br.data[br.index:])
	br.index += n
	return n, nil
}

// formatDuration formats duration for user-friendly display
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%d seconds", int(d.Seconds()))
	}
	if d < time.Hour {
		minutes := int(d.Minutes())
		if minutes == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", minutes)
	}
	hours := int(d.Hours())
	if hours == 1 {
		return "1 hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// AuthRateLimit returns the go-shared AuthRateLimit middleware
func AuthRateLimit() gin.HandlerFunc {
	return middleware.AuthRateLimit()
}

// PasswordResetRateLimit returns the go-shared PasswordResetRateLimit middleware
func PasswordResetRateLimit() gin.HandlerFunc {
	return middleware.PasswordResetRateLimit()
}

// GeneralRateLimit returns the go-shared general rate limit middleware
func GeneralRateLimit() gin.HandlerFunc {
	return middleware.RateLimit()
}

// RecordLoginAttemptFromContext records a login attempt result using context
// values set by AccountLockoutMiddleware. Call this from the login handler
// after authentication.
func RecordLoginAttemptFromContext(c *gin.Context, success bool) {
	sm, exists := c.Get("security_middleware")
	if !exists {
		return
	}
	secMiddleware, ok := sm.(*SecurityMiddleware)
	if !ok {
		return
	}

	ip, _ := c.Get("login_ip")
	identifier, _ := c.Get("login_identifier")
	ipStr, ok := ip.(string)
	if !ok {
		return
	}
	identifierStr, ok := identifier.(string)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if success {
		secMiddleware.RecordSuccessfulLogin(ctx, ipStr, identifierStr)
	} else {
		secMiddleware.RecordFailedLogin(ctx, ipStr, identifierStr)
	}
}

// Unlock clears lockout state for an IP + identifier pair. Admin action.
// Keys are hashed per pair, so unlocking needs the same IP the failed
// attempts came from.
func (sm *SecurityMiddleware) Unlock(ctx context.Context, ip, identifier string) {
	key := sm.generateLockoutKey(ip, identifier)
	sm.clearLockoutState(ctx, key)

	sm.logSecurityEvent("account_unlocked", ip, identifier, nil)
}

// GetRemainingAttempts returns the remaining login attempts before lockout
func (sm *SecurityMiddleware) GetRemainingAttempts(ctx context.Context, ip, identifier string) int {
	attempts := sm.GetFailedAttempts(ctx, ip, identifier)
	remaining := sm.config.MaxLoginAttempts - attempts
	if remaining < 0 {
		return 0
	}
	return remaining
}
