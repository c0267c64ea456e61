package provider

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/turfease/platform/internal/dependencies/clock"
	"github.com/turfease/platform/internal/domain"
)

// DefaultFirebaseCertsURL serves the x509 certificates that sign Firebase ID tokens.
const DefaultFirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

const defaultCertTTL = time.Hour

// minCertRefetch limits refreshes triggered by unknown key ids while the
// cached set is still fresh.
const minCertRefetch = time.Minute

// Identity is the verified subject of a federated ID token.
type Identity struct {
	SubjectID   string
	Email       string
	DisplayName string
	PictureURL  string
}

// IdentityVerifier turns an opaque ID token into a verified Identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

type firebaseClaims struct {
	jwt.RegisteredClaims
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// FirebaseVerifier checks Firebase ID tokens against Google's published keys.
type FirebaseVerifier struct {
	projectID string
	certsURL  string
	client    *http.Client
	clock     clock.Clock
	logger    *slog.Logger

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	expiresAt time.Time
	fetchedAt time.Time
}

// NewFirebaseVerifier creates a verifier for the given Firebase project.
func NewFirebaseVerifier(projectID, certsURL string, timeout time.Duration, c clock.Clock, logger *slog.Logger) *FirebaseVerifier {
	if certsURL == "" {
		certsURL = DefaultFirebaseCertsURL
	}
	return &FirebaseVerifier{
		projectID: projectID,
		certsURL:  certsURL,
		client:    &http.Client{Timeout: timeout},
		clock:     c,
		logger:    logger,
	}
}

var _ IdentityVerifier = (*FirebaseVerifier)(nil)

// Verify validates signature, audience, issuer and expiry of an ID token.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (*Identity, error) {
	if v.projectID == "" {
		return nil, domain.ErrDependency("federated login is not configured", nil)
	}

	var keyErr error
	claims := &firebaseClaims{}
	_, err := jwt.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid header")
		}
		key, err := v.key(ctx, kid)
		if err != nil {
			keyErr = err
		}
		return key, err
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if keyErr != nil && !errors.Is(keyErr, errUnknownKID) {
		return nil, domain.ErrDependency("fetch firebase certificates", keyErr)
	}
	if err != nil {
		return nil, domain.ErrInvalidToken(err)
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken(errors.New("empty subject"))
	}

	return &Identity{
		SubjectID:   claims.Subject,
		Email:       domain.NormalizeEmail(claims.Email),
		DisplayName: claims.Name,
		PictureURL:  claims.Picture,
	}, nil
}

var errUnknownKID = errors.New("unknown key id")

// key returns the public key for kid, refreshing the cert set when it has
// expired or does not contain kid. A fresh set is refetched for an unknown
// kid at most once per minCertRefetch.
func (v *FirebaseVerifier) key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.clock.Now()
	if v.keys != nil && now.Before(v.expiresAt) {
		if k, ok := v.keys[kid]; ok {
			return k, nil
		}
		if now.Sub(v.fetchedAt) < minCertRefetch {
			return nil, errUnknownKID
		}
	}

	keys, ttl, err := v.fetch(ctx)
	if err != nil {
		return nil, err
	}
	v.keys = keys
	v.fetchedAt = v.clock.Now()
	v.expiresAt = v.fetchedAt.Add(ttl)

	k, ok := v.keys[kid]
	if !ok {
		return nil, errUnknownKID
	}
	return k, nil
}

func (v *FirebaseVerifier) fetch(ctx context.Context) (map[string]*rsa.PublicKey, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.certsURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&certs); err != nil {
		return nil, 0, fmt.Errorf("decode certificates: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, pem := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pem))
		if err != nil {
			v.logger.Warn("skipping unparsable firebase certificate", "kid", kid, "error", err)
			continue
		}
		keys[kid] = key
	}
	return keys, maxAge(resp.Header.Get("Cache-Control")), nil
}

func maxAge(cacheControl string) time.Duration {
	for _, directive := range strings.Split(cacheControl, ",") {
		directive = strings.TrimSpace(directive)
		if v, ok := strings.CutPrefix(directive, "max-age="); ok {
			if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
				return time.Duration(secs) * time.Second
			}
		}
	}
	return defaultCertTTL
}
