package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
)

// oauthClient is the platform's local OAuth client, required by the token
// endpoint alongside the user's credentials.
type oauthClient struct {
	ID     string `json:"client_id"`
	Secret string `json:"client_secret"`
}

func (c *Client) localClient(ctx context.Context) (*oauthClient, error) {
	c.mu.Lock()
	cached := c.oauthClient
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var oc oauthClient
	if err := c.getJSON(ctx, "/api/v1/oauth-clients/local", "", nil, &oc); err != nil {
		return nil, fmt.Errorf("fetch oauth client: %w", err)
	}
	if oc.ID == "" {
		return nil, errors.New("fetch oauth client: empty client id")
	}

	c.mu.Lock()
	c.oauthClient = &oc
	c.mu.Unlock()
	return &oc, nil
}

// PasswordToken performs the OAuth2 password grant and returns the access
// token. A rejected username or password wraps ErrReauthRequired.
func (c *Client) PasswordToken(ctx context.Context, username, password string) (string, error) {
	oc, err := c.localClient(ctx)
	if err != nil {
		return "", err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     oc.ID,
		ClientSecret: oc.Secret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.baseURL + "/api/v1/users/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := conf.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil &&
			(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized) {
			return "", fmt.Errorf("%w: platform rejected credentials for %s", ErrReauthRequired, username)
		}
		return "", fmt.Errorf("password grant: %w", err)
	}
	return tok.AccessToken, nil
}
