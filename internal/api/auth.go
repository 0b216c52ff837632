package api

import (
	"context"
	"errors"
	"net/http"
)

// User is the account returned by the login endpoint.
type User struct {
	ID          int64   `json:"id"`
	Email       string  `json:"email"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	DateOfBirth *string `json:"date_of_birth"`
}

// LoginResponse is the body of a successful POST /auth/login.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a bearer token. It does not install the
// token on the client; see SetToken.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var res LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", loginBody{Email: email, Password: password}, &res); err != nil {
		return LoginResponse{}, err
	}
	if res.Token == "" {
		return LoginResponse{}, errors.New("login response carried no token")
	}
	return res, nil
}

// Logout revokes the current token on the server.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
}
