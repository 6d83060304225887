package freeradical

import (
	"context"
	"net/http"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. The receiver is not
// changed; build an authenticated client with WithToken.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := c.write(ctx, http.MethodPost, "/api/login", nil, loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return decodeOne[LoginResponse](body)
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.write(ctx, http.MethodPost, "/api/logout", nil, nil)
	return err
}

// Me returns the user the configured token belongs to.
func (c *Client) Me(ctx context.Context) (*User, error) {
	body, err := c.get(ctx, "/api/users/me", nil, nil)
	if err != nil {
		return nil, err
	}
	raw, err := unwrapObject(body, "user")
	if err != nil {
		return nil, err
	}
	return decodeOne[User](raw)
}
