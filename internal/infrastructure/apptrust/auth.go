package apptrust

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"

	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

// grantTokenExchange is the OAuth2 token exchange grant type.
const grantTokenExchange = "urn:ietf:params:oauth:grant-type:token-exchange"

// TokenProvider resolves the bearer credential for registry requests.
// The client is agnostic to how the token was obtained.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider returns a fixed access token.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider around a pre-issued token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token returns the static token.
func (p *StaticTokenProvider) Token(_ context.Context) (string, error) {
	if p.token == "" {
		return "", apterrors.Auth("auth.Token", "no access token configured")
	}
	return p.token, nil
}

// ExchangeTokenProvider obtains an access token through an OAuth2-style
// token exchange, presenting an identity token (typically an OIDC workflow
// token) to the exchange endpoint.
type ExchangeTokenProvider struct {
	exchangeURL  string
	subjectToken string
	audience     string
	httpClient   *http.Client

	// cached holds the exchanged token for the remainder of the run.
	// Execution is single-threaded, so no locking is needed.
	cached string
}

// NewExchangeTokenProvider creates a token exchange provider.
func NewExchangeTokenProvider(exchangeURL, subjectToken, audience string, httpClient *http.Client) *ExchangeTokenProvider {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ExchangeTokenProvider{
		exchangeURL:  exchangeURL,
		subjectToken: subjectToken,
		audience:     audience,
		httpClient:   httpClient,
	}
}

// Token exchanges the subject token for an access token, caching the result
// for subsequent requests in the same run.
func (p *ExchangeTokenProvider) Token(ctx context.Context) (string, error) {
	const op = "auth.Exchange"

	if p.cached != "" {
		return p.cached, nil
	}
	if p.subjectToken == "" {
		return "", apterrors.Auth(op, "no subject token configured for token exchange")
	}

	form := url.Values{}
	form.Set("grant_type", grantTokenExchange)
	form.Set("subject_token", p.subjectToken)
	form.Set("subject_token_type", "urn:ietf:params:oauth:token-type:id_token")
	if p.audience != "" {
		form.Set("audience", p.audience)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.exchangeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", apterrors.AuthWrap(err, op, "failed to create exchange request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", apterrors.AuthWrap(err, op, "token exchange request failed")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apterrors.Auth(op, "token exchange rejected").
			WithDetail("status", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", apterrors.AuthWrap(err, op, "failed to decode exchange response")
	}
	if payload.AccessToken == "" {
		return "", apterrors.Auth(op, "exchange response contained no access token")
	}

	p.cached = payload.AccessToken
	return p.cached, nil
}
