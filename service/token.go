package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"enviroagent/model"

	jwt "github.com/golang-jwt/jwt/v4"
	uuid "github.com/google/uuid"
)

// TokenDetails ...
type TokenDetails struct {
	AccessToken string
	AccessUUID  string
	AtExpires   int64
}

// AccessDetails ...
type AccessDetails struct {
	AccessUUID string
	UserID     uint
	ExpiresAt  time.Time
}

// TokenService signs and parses HS256 access tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// CreateToken ...
func (t *TokenService) CreateToken(userID uint) (*TokenDetails, error) {
	td := &TokenDetails{}
	td.AtExpires = time.Now().Add(t.ttl).Unix()
	td.AccessUUID = uuid.New().String()

	atClaims := jwt.MapClaims{}
	atClaims["authorized"] = true
	atClaims["access_uuid"] = td.AccessUUID
	atClaims["user_id"] = strconv.FormatUint(uint64(userID), 10)
	atClaims["exp"] = td.AtExpires

	at := jwt.NewWithClaims(jwt.SigningMethodHS256, atClaims)
	var err error
	td.AccessToken, err = at.SignedString(t.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return td, nil
}

// ExtractToken ...
func (t *TokenService) ExtractToken(r *http.Request) string {
	bearToken := r.Header.Get("Authorization")
	//normally Authorization: Bearer the_token_xxx
	strArr := strings.Split(bearToken, " ")
	if len(strArr) == 2 && strings.EqualFold(strArr[0], "Bearer") {
		return strArr[1]
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}

// VerifyToken ...
func (t *TokenService) VerifyToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		//Make sure that the token method conform to "SigningMethodHMAC"
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return token, nil
}

// ExtractTokenMetadata ...
func (t *TokenService) ExtractTokenMetadata(tokenString string) (*AccessDetails, error) {
	token, err := t.VerifyToken(tokenString)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
	}
	accessUUID, ok := claims["access_uuid"].(string)
	if !ok {
		return nil, fmt.Errorf("token has no access_uuid")
	}
	rawUserID, ok := claims["user_id"].(string)
	if !ok {
		return nil, fmt.Errorf("token has no user_id")
	}
	userID, err := strconv.ParseUint(rawUserID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid user_id: %w", err)
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("token has no exp")
	}
	return &AccessDetails{
		AccessUUID: accessUUID,
		UserID:     uint(userID),
		ExpiresAt:  time.Unix(int64(exp), 0),
	}, nil
}

// Session is the verified identity for one request.
type Session struct {
	User   *model.User
	Access *AccessDetails
}

// SessionService is the auth gateway: it issues sessions, resolves them from
// requests and revokes them on sign-out.
type SessionService struct {
	tokens  *TokenService
	users   model.UserStore
	revoked model.SessionStore
}

func NewSessionService(tokens *TokenService, users model.UserStore, revoked model.SessionStore) *SessionService {
	return &SessionService{tokens: tokens, users: users, revoked: revoked}
}

func (s *SessionService) Issue(user *model.User) (*TokenDetails, error) {
	return s.tokens.CreateToken(user.ID)
}

// Session returns ErrNotAuthenticated for a missing, invalid, revoked or orphaned token.
func (s *SessionService) Session(ctx context.Context, r *http.Request) (*Session, error) {
	tokenString := s.tokens.ExtractToken(r)
	if tokenString == "" {
		return nil, ErrNotAuthenticated
	}
	access, err := s.tokens.ExtractTokenMetadata(tokenString)
	if err != nil {
		//Token either expired or not valid
		return nil, ErrNotAuthenticated
	}
	revoked, err := s.revoked.IsSessionRevoked(ctx, access.AccessUUID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrNotAuthenticated
	}
	user, err := s.users.FindUserByID(ctx, access.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}
	return &Session{User: user, Access: access}, nil
}

// SignOut revokes the session's token until it would have expired.
func (s *SessionService) SignOut(ctx context.Context, session *Session) error {
	return s.revoked.RevokeSession(ctx, session.Access.AccessUUID, session.Access.ExpiresAt)
}

// Refresh revokes the current token and issues a new one for the same user.
func (s *SessionService) Refresh(ctx context.Context, session *Session) (*TokenDetails, error) {
	td, err := s.tokens.CreateToken(session.User.ID)
	if err != nil {
		return nil, err
	}
	if err := s.SignOut(ctx, session); err != nil {
		return nil, err
	}
	return td, nil
}

func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.revoked.DeleteExpiredRevocations(ctx)
}
