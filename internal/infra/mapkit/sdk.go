package mapkit

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yanqian/genui-analytics/internal/domain/render"
)

// ScriptURL is where pages load MapKit JS from.
const ScriptURL = "https://cdn.apple-mapkit.com/mk/5.x.x/mapkit.js"

// ErrUnavailable means the SDK could not be initialised with the configured credentials.
var ErrUnavailable = errors.New("mapkit unavailable")

// Config holds the Maps credentials used to sign page tokens.
type Config struct {
	TeamID         string
	KeyID          string
	PrivateKeyPEM  string
	PrivateKeyPath string
	Origin         string
	TokenTTL       time.Duration
}

// SDK is the server side of MapKit JS: it loads credentials once and mints tokens.
type SDK struct {
	cfg    Config
	logger *slog.Logger

	once    sync.Once
	key     *ecdsa.PrivateKey
	loadErr error
}

// New prepares a lazily loaded SDK.
func New(cfg Config, logger *slog.Logger) *SDK {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	return &SDK{cfg: cfg, logger: logger.With("component", "mapkit.sdk")}
}

// EnsureLoaded parses the signing key on first use. Later calls return the cached outcome.
func (s *SDK) EnsureLoaded(_ context.Context) error {
	s.once.Do(func() {
		s.key, s.loadErr = s.load()
		if s.loadErr != nil {
			s.logger.Warn("mapkit disabled", "error", s.loadErr)
			return
		}
		s.logger.Info("mapkit credentials loaded", "team_id", s.cfg.TeamID, "key_id", s.cfg.KeyID)
	})
	return s.loadErr
}

func (s *SDK) load() (*ecdsa.PrivateKey, error) {
	if strings.TrimSpace(s.cfg.TeamID) == "" || strings.TrimSpace(s.cfg.KeyID) == "" {
		return nil, fmt.Errorf("%w: team id and key id are required", ErrUnavailable)
	}
	pem := s.cfg.PrivateKeyPEM
	if strings.TrimSpace(pem) == "" && s.cfg.PrivateKeyPath != "" {
		data, err := os.ReadFile(s.cfg.PrivateKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: read private key: %v", ErrUnavailable, err)
		}
		pem = string(data)
	}
	if strings.TrimSpace(pem) == "" {
		return nil, fmt.Errorf("%w: private key is required", ErrUnavailable)
	}
	key, err := jwt.ParseECPrivateKeyFromPEM([]byte(pem))
	if err != nil {
		return nil, fmt.Errorf("%w: parse private key: %v", ErrUnavailable, err)
	}
	return key, nil
}

// CreateMap starts an empty scene for the container.
func (s *SDK) CreateMap(ctx context.Context, _ *render.Container) (render.Map, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	return NewScene(), nil
}

// Token mints a short-lived ES256 token for the page's authorization callback.
func (s *SDK) Token(ctx context.Context, now time.Time) (string, time.Time, error) {
	if err := s.EnsureLoaded(ctx); err != nil {
		return "", time.Time{}, err
	}
	expires := now.Add(s.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"iss": s.cfg.TeamID,
		"iat": now.Unix(),
		"exp": expires.Unix(),
	}
	if s.cfg.Origin != "" {
		claims["origin"] = s.cfg.Origin
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.cfg.KeyID
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign mapkit token: %w", err)
	}
	return signed, expires, nil
}

var _ render.SDK = (*SDK)(nil)
