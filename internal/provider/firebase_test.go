package provider

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turfease/platform/internal/dependencies/mocks"
	"github.com/turfease/platform/internal/domain"
)

const testProject = "turfease-test"

var firebaseNow = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)

type certServer struct {
	*httptest.Server
	key  *rsa.PrivateKey
	hits atomic.Int32
}

func newCertServer(t *testing.T) *certServer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "securetoken.system.gserviceaccount.com"},
		NotBefore:    firebaseNow.Add(-time.Hour),
		NotAfter:     firebaseNow.Add(24 * time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	certPEM := string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}))

	cs := &certServer{key: key}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.hits.Add(1)
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		_ = json.NewEncoder(w).Encode(map[string]string{"kid-1": certPEM})
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *certServer) sign(t *testing.T, kid string, mutate func(*firebaseClaims)) string {
	t.Helper()
	claims := &firebaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://securetoken.google.com/" + testProject,
			Audience:  jwt.ClaimStrings{testProject},
			Subject:   "firebase-uid-1",
			IssuedAt:  jwt.NewNumericDate(firebaseNow.Add(-time.Minute)),
			ExpiresAt: jwt.NewNumericDate(firebaseNow.Add(time.Hour)),
		},
		Email:   "Fan@Example.com",
		Name:    "Fan Person",
		Picture: "https://lh3.example.com/photo.jpg",
	}
	if mutate != nil {
		mutate(claims)
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(cs.key)
	require.NoError(t, err)
	return signed
}

func newVerifier(cs *certServer, clk *mocks.MockClock) *FirebaseVerifier {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFirebaseVerifier(testProject, cs.URL, 5*time.Second, clk, logger)
}

func TestFirebaseVerifier_ValidToken(t *testing.T) {
	cs := newCertServer(t)
	v := newVerifier(cs, mocks.NewMockClock(firebaseNow))

	id, err := v.Verify(context.Background(), cs.sign(t, "kid-1", nil))
	require.NoError(t, err)
	assert.Equal(t, "firebase-uid-1", id.SubjectID)
	assert.Equal(t, "fan@example.com", id.Email)
	assert.Equal(t, "Fan Person", id.DisplayName)
	assert.Equal(t, "https://lh3.example.com/photo.jpg", id.PictureURL)
}

func TestFirebaseVerifier_CachesCertificates(t *testing.T) {
	cs := newCertServer(t)
	clk := mocks.NewMockClock(firebaseNow)
	v := newVerifier(cs, clk)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := v.Verify(ctx, cs.sign(t, "kid-1", nil))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), cs.hits.Load())

	clk.Advance(2 * time.Hour)
	_, _ = v.Verify(ctx, cs.sign(t, "kid-1", func(c *firebaseClaims) {
		c.IssuedAt = jwt.NewNumericDate(clk.Now())
		c.ExpiresAt = jwt.NewNumericDate(clk.Now().Add(time.Hour))
	}))
	assert.Equal(t, int32(2), cs.hits.Load())
}

func TestFirebaseVerifier_ThrottlesUnknownKidRefetch(t *testing.T) {
	cs := newCertServer(t)
	clk := mocks.NewMockClock(firebaseNow)
	v := newVerifier(cs, clk)
	ctx := context.Background()

	_, err := v.Verify(ctx, cs.sign(t, "kid-1", nil))
	require.NoError(t, err)
	require.Equal(t, int32(1), cs.hits.Load())

	junk := cs.sign(t, "kid-junk", nil)
	for i := 0; i < 20; i++ {
		_, err := v.Verify(ctx, junk)
		assert.Equal(t, domain.CodeInvalidToken, domain.CodeOf(err))
	}
	assert.Equal(t, int32(1), cs.hits.Load(), "unknown kids must not refetch a fresh set")

	clk.Advance(minCertRefetch + time.Second)
	_, err = v.Verify(ctx, junk)
	assert.Equal(t, domain.CodeInvalidToken, domain.CodeOf(err))
	assert.Equal(t, int32(2), cs.hits.Load())

	_, err = v.Verify(ctx, cs.sign(t, "kid-1", nil))
	require.NoError(t, err)
	assert.Equal(t, int32(2), cs.hits.Load())
}

func TestFirebaseVerifier_RejectsBadTokens(t *testing.T) {
	cs := newCertServer(t)
	v := newVerifier(cs, mocks.NewMockClock(firebaseNow))

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"unknown kid", cs.sign(t, "kid-unknown", nil)},
		{"wrong audience", cs.sign(t, "kid-1", func(c *firebaseClaims) { c.Audience = jwt.ClaimStrings{"other"} })},
		{"wrong issuer", cs.sign(t, "kid-1", func(c *firebaseClaims) { c.Issuer = "https://evil.example.com" })},
		{"expired", cs.sign(t, "kid-1", func(c *firebaseClaims) { c.ExpiresAt = jwt.NewNumericDate(firebaseNow.Add(-time.Second)) })},
		{"empty subject", cs.sign(t, "kid-1", func(c *firebaseClaims) { c.Subject = "" })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			require.Error(t, err)
			assert.Equal(t, domain.CodeInvalidToken, domain.CodeOf(err))
		})
	}
}

func TestFirebaseVerifier_CertFetchFailure(t *testing.T) {
	cs := newCertServer(t)
	token := cs.sign(t, "kid-1", nil)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := NewFirebaseVerifier(testProject, down.URL, time.Second, mocks.NewMockClock(firebaseNow), logger)

	_, err := v.Verify(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, domain.CodeDependency, domain.CodeOf(err))
}

func TestMaxAge(t *testing.T) {
	assert.Equal(t, 19800*time.Second, maxAge("public, max-age=19800, must-revalidate, no-transform"))
	assert.Equal(t, defaultCertTTL, maxAge(""))
	assert.Equal(t, defaultCertTTL, maxAge("no-cache"))
}
