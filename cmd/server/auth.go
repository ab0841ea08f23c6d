package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/nickyhof/matview/config"
	"github.com/nickyhof/matview/core"
)

// ConnectionState tracks per-connection authentication state.
type ConnectionState struct {
	authenticated bool
	tokenExpiry   time.Time
}

func (cs *ConnectionState) IsAuthenticated() bool {
	return cs.authenticated
}

// Expired reports whether the token the connection authenticated with has
// run out.
func (cs *ConnectionState) Expired(now time.Time) bool {
	return cs.authenticated && !cs.tokenExpiry.IsZero() && now.After(cs.tokenExpiry)
}

type authResult struct {
	identity  core.Identity
	expiresAt time.Time
	err       error
}

func validateJWT(cfg *config.AuthConfig, tokenString string) authResult {
	if cfg == nil || cfg.JWTSecret == "" {
		return authResult{err: errors.New("authentication not configured")}
	}

	nameClaim := cfg.NameClaim
	if nameClaim == "" {
		nameClaim = "name"
	}
	emailClaim := cfg.EmailClaim
	if emailClaim == "" {
		emailClaim = "email"
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil {
		return authResult{err: fmt.Errorf("invalid token: %w", err)}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return authResult{err: errors.New("invalid token claims")}
	}

	if cfg.Issuer != "" {
		issuer, _ := claims.GetIssuer()
		if issuer != cfg.Issuer {
			return authResult{err: fmt.Errorf("invalid issuer: expected %s, got %s", cfg.Issuer, issuer)}
		}
	}
	if cfg.Audience != "" {
		audiences, _ := claims.GetAudience()
		if !slices.Contains(audiences, cfg.Audience) {
			return authResult{err: fmt.Errorf("invalid audience: expected %s", cfg.Audience)}
		}
	}

	name, _ := claims[nameClaim].(string)
	email, _ := claims[emailClaim].(string)
	if name == "" {
		// access rules match on the name
		return authResult{err: fmt.Errorf("token missing identity claim %s", nameClaim)}
	}

	var expiresAt time.Time
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}

	return authResult{
		identity:  core.Identity{Name: name, Email: email},
		expiresAt: expiresAt,
	}
}

// parseAuthCommand parses: AUTH JWT <token>
func parseAuthCommand(line string) (authType, token string, err error) {
	line = strings.TrimSpace(line)
	if !isAuthCommand(line) {
		return "", "", errors.New("not an AUTH command")
	}

	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", "", errors.New("invalid AUTH command: expected AUTH <type> <credentials>")
	}

	authType = strings.ToUpper(parts[1])
	if authType != "JWT" {
		return "", "", fmt.Errorf("unsupported auth type: %s", authType)
	}
	return authType, parts[2], nil
}

func isAuthCommand(line string) bool {
	return strings.HasPrefix(strings.ToUpper(line), "AUTH ")
}

// handleAuth validates the token and, on success, rebinds the connection to
// the token's identity.
func (s *Server) handleAuth(line string, conn *connection) Response {
	_, token, err := parseAuthCommand(line)
	if err != nil {
		return errorResponse("auth", err)
	}

	result := validateJWT(s.authConfig, token)
	if result.err != nil {
		s.logger.Warn("Authentication failed",
			zap.String("remote", conn.remote),
			zap.Error(result.err))
		return errorResponse("auth", result.err)
	}

	conn.state.authenticated = true
	conn.state.tokenExpiry = result.expiresAt
	conn.rebind(result.identity)

	s.logger.Info("Client authenticated",
		zap.String("remote", conn.remote),
		zap.String("user", result.identity.Name))

	ar := AuthResponse{
		Authenticated: true,
		Identity:      result.identity.String(),
	}
	if !result.expiresAt.IsZero() {
		ar.ExpiresIn = int(time.Until(result.expiresAt).Seconds())
	}
	data, _ := json.Marshal(ar)
	return Response{Success: true, Type: "auth", Result: data}
}
