package handlers

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

// oauthIdentity is a provider-verified account identity
type oauthIdentity struct {
	Subject string
	Email   string
	Name    string
}

// OAuthVerifier checks tokens the mobile app obtained natively from an
// identity provider. The backend never runs the browser flow itself; it only
// verifies what the app hands over.
type OAuthVerifier struct {
	googleUserInfoURL string
	appleClientID     string
	appleKeysURL      string
}

// NewOAuthVerifier creates a verifier for the supported providers
func NewOAuthVerifier(appleClientID string) *OAuthVerifier {
	return &OAuthVerifier{
		googleUserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		appleClientID:     appleClientID,
		appleKeysURL:      "https://appleid.apple.com/auth/keys",
	}
}

// Verify resolves a provider token to a verified identity
func (v *OAuthVerifier) Verify(ctx context.Context, provider, accessToken, idToken string) (oauthIdentity, error) {
	switch provider {
	case "google":
		if accessToken == "" {
			return oauthIdentity{}, errors.New("missing Google access token")
		}
		return v.verifyGoogle(ctx, accessToken)
	case "apple":
		if idToken == "" {
			return oauthIdentity{}, errors.New("missing Apple id_token")
		}
		return v.verifyApple(ctx, idToken)
	default:
		return oauthIdentity{}, fmt.Errorf("unsupported OAuth provider %q", provider)
	}
}

func (v *OAuthVerifier) verifyGoogle(ctx context.Context, accessToken string) (oauthIdentity, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	resp, err := client.Get(v.googleUserInfoURL)
	if err != nil {
		return oauthIdentity{}, errors.New("failed to fetch Google user info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthIdentity{}, errors.New("failed to fetch Google user info")
	}

	var payload struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return oauthIdentity{}, errors.New("failed to parse Google user info")
	}
	if payload.ID == "" || payload.Email == "" {
		return oauthIdentity{}, errors.New("Google user info incomplete")
	}

	return oauthIdentity{Subject: payload.ID, Email: payload.Email, Name: payload.Name}, nil
}

type appleTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

type appleJWK struct {
	Keys []appleJWKKey `json:"keys"`
}

type appleJWKKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (v *OAuthVerifier) verifyApple(ctx context.Context, idToken string) (oauthIdentity, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}))
	claims := &appleTokenClaims{}

	parsedToken, err := parser.ParseWithClaims(idToken, claims, func(token *jwt.Token) (interface{}, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing key id")
		}
		return v.fetchApplePublicKey(ctx, kid)
	})
	if err != nil || !parsedToken.Valid {
		return oauthIdentity{}, errors.New("invalid Apple token")
	}

	if claims.Issuer != "https://appleid.apple.com" {
		return oauthIdentity{}, errors.New("invalid Apple issuer")
	}
	if v.appleClientID != "" && !audienceContains(claims.Audience, v.appleClientID) {
		return oauthIdentity{}, errors.New("invalid Apple audience")
	}
	if claims.Email == "" {
		return oauthIdentity{}, errors.New("Apple email not available")
	}

	// Apple only exposes the name in the first native authorization; the app
	// sends it separately when it has one
	return oauthIdentity{Subject: claims.Subject, Email: claims.Email}, nil
}

func audienceContains(audience jwt.ClaimStrings, value string) bool {
	for _, entry := range audience {
		if entry == value {
			return true
		}
	}
	return false
}

func (v *OAuthVerifier) fetchApplePublicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, v.appleKeysURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("failed to fetch Apple public keys")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var jwk appleJWK
	if err := json.Unmarshal(body, &jwk); err != nil {
		return nil, err
	}

	for _, key := range jwk.Keys {
		if key.Kid != kid {
			continue
		}
		if key.Kty != "RSA" {
			return nil, errors.New("unexpected key type")
		}
		modulusBytes, err := base64.RawURLEncoding.DecodeString(key.N)
		if err != nil {
			return nil, err
		}
		exponentBytes, err := base64.RawURLEncoding.DecodeString(key.E)
		if err != nil {
			return nil, err
		}
		exponent := 0
		for _, b := range exponentBytes {
			exponent = exponent*256 + int(b)
		}
		return &rsa.PublicKey{
			N: new(big.Int).SetBytes(modulusBytes),
			E: exponent,
		}, nil
	}

	return nil, errors.New("Apple public key not found")
}
