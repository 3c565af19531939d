package backend

import (
	"context"
	"net/http"

	"github.com/example/delivery-rider/internal/domain/models"
)

// Client exposes the backend endpoints the rider app uses. Methods that hit
// protected endpoints take the bearer token explicitly and are meant to be
// driven through the Pipeline; Login, Register and RefreshToken are the only
// calls that bypass it.
type Client struct {
	t *Transport
}

func NewClient(t *Transport) *Client {
	return &Client{t: t}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.Credentials, error) {
	var creds models.Credentials
	err := c.t.call(ctx, "login", http.MethodPost, "/login", loginRequest{Email: email, Password: password}, "", &creds)
	if err != nil {
		return nil, err
	}
	return &creds, nil
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (c *Client) Register(ctx context.Context, email, name, password string) error {
	return c.t.call(ctx, "register", http.MethodPost, "/user", registerRequest{Email: email, Name: name, Password: password}, "", nil)
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// RefreshToken exchanges the long-lived refresh token for a new access token.
// The refresh token itself is the bearer credential here.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	var out refreshResponse
	err := c.t.call(ctx, "refresh_token", http.MethodPost, "/refreshToken", struct{}{}, refreshToken, &out)
	if err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.t.call(ctx, "logout", http.MethodPost, "/logout", struct{}{}, accessToken, nil)
}

type orderRequest struct {
	OrderID string `json:"orderId"`
}

func (c *Client) AcceptOrder(ctx context.Context, accessToken, orderID string) error {
	return c.t.call(ctx, "accept_order", http.MethodPost, "/accept", orderRequest{OrderID: orderID}, accessToken, nil)
}

func (c *Client) CompleteOrder(ctx context.Context, accessToken, orderID string) error {
	return c.t.call(ctx, "complete_order", http.MethodPost, "/complete", orderRequest{OrderID: orderID}, accessToken, nil)
}

func (c *Client) Earnings(ctx context.Context, accessToken string) (int, error) {
	var earnings int
	err := c.t.call(ctx, "earnings", http.MethodGet, "/showmethemoney", nil, accessToken, &earnings)
	if err != nil {
		return 0, err
	}
	return earnings, nil
}
