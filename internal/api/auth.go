package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/alexanderramin/smeta/internal/domain"
)

// Login exchanges credentials for an access token. The body is
// form-encoded, as OAuth2 password flows expect.
func (c *Client) Login(ctx context.Context, username, password string) (domain.LoginResult, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)

	resp, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	})
	if err != nil {
		return domain.LoginResult{}, err
	}
	var out domain.LoginResult
	if err := decode(resp, &out); err != nil {
		return domain.LoginResult{}, err
	}
	return out, nil
}
