package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jomadlcrz/Class-Schedule-System/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

const (
	issuer          = "class-schedule"
	purposeOAuth    = "oauth_state"
	defaultStateTTL = 10 * time.Minute
)

// StateClaims OAuth state 声明
// Nonce 同时写入浏览器 Cookie，回调时两者必须一致
type StateClaims struct {
	Nonce   string `json:"nonce"`
	Purpose string `json:"purpose"`
	jwtv5.RegisteredClaims
}

// Manager OAuth state 签发与校验
type Manager struct {
	secret   []byte
	stateTTL time.Duration
	now      func() time.Time
}

// NewManager 创建 Manager
func NewManager(cfg *config.AuthConfig) *Manager {
	ttl := cfg.StateTTL
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &Manager{
		secret:   []byte(cfg.StateSecret),
		stateTTL: ttl,
		now:      time.Now,
	}
}

// GenerateState 生成随机 nonce 及携带该 nonce 的签名 state
func (m *Manager) GenerateState() (state, nonce string, err error) {
	nonce = uuid.New().String()
	now := m.now()
	claims := StateClaims{
		Nonce:   nonce,
		Purpose: purposeOAuth,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.stateTTL)),
			Issuer:    issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	state, err = token.SignedString(m.secret)
	if err != nil {
		return "", "", err
	}
	return state, nonce, nil
}

// ParseState 解析并验证 state，返回其中的 nonce
func (m *Manager) ParseState(state string) (string, error) {
	token, err := jwtv5.ParseWithClaims(state, &StateClaims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer), jwtv5.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrTokenInvalid
	}

	claims, ok := token.Claims.(*StateClaims)
	if !ok || !token.Valid || claims.Purpose != purposeOAuth || claims.Nonce == "" {
		return "", ErrTokenInvalid
	}

	return claims.Nonce, nil
}
