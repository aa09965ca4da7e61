package authutil

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenResult is what an operator gets back from minting a token: the raw
// access token ready to drop into a scan request's baseline Authorization
// header, plus enough metadata to sanity-check it.
type TokenResult struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresUnix  int64
}

// ClientCredentialsGrant acquires a token via the OAuth2 client-credentials
// flow (machine-to-machine, no end user involved).
func ClientCredentialsGrant(ctx context.Context, tokenURL, clientID, clientSecret string, scopes []string) (TokenResult, error) {
	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
		Scopes:       scopes,
	}

	tok, err := cfg.Token(ctx)
	if err != nil {
		return TokenResult{}, fmt.Errorf("client_credentials grant failed: %w", err)
	}
	return fromToken(tok), nil
}

// PasswordGrant acquires a token via the OAuth2 resource-owner password
// flow. This grant type is deprecated by most providers but several
// internal/legacy APIs in the wild still require it for a scripted login.
func PasswordGrant(ctx context.Context, tokenURL, clientID, clientSecret, username, password string, scopes []string) (TokenResult, error) {
	cfg := oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
		Scopes:       scopes,
	}

	tok, err := cfg.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		return TokenResult{}, fmt.Errorf("password grant failed: %w", err)
	}
	return fromToken(tok), nil
}

func fromToken(tok *oauth2.Token) TokenResult {
	var expires int64
	if !tok.Expiry.IsZero() {
		expires = tok.Expiry.Unix()
	}
	return TokenResult{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.TokenType,
		RefreshToken: tok.RefreshToken,
		ExpiresUnix:  expires,
	}
}

// AuthorizationHeader formats a TokenResult as a ready-to-use
// Authorization header value, defaulting the scheme to "Bearer" when the
// issuer didn't specify a token type.
func (t TokenResult) AuthorizationHeader() string {
	scheme := t.TokenType
	if scheme == "" {
		scheme = "Bearer"
	}
	return scheme + " " + t.AccessToken
}
