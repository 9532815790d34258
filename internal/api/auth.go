package api

import (
	"context"

	"symonectl/internal/session"
)

type LoginResult struct {
	Token string
	User  session.Profile
}

// Login authenticates a user and persists the session.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, Invalid("credentials", "email and password are required")
	}
	var resp struct {
		Success bool            `json:"success"`
		Token   string          `json:"token"`
		User    session.Profile `json:"user"`
	}
	if err := c.post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.Token == "" {
		return LoginResult{}, &Error{Status: 200, Message: "Login failed. Please try again."}
	}
	if err := c.Session.SetSession(ctx, resp.Token, resp.User); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: resp.Token, User: resp.User}, nil
}

func (c *Client) Signup(ctx context.Context, email, password, name string) (LoginResult, error) {
	if email == "" || password == "" || name == "" {
		return LoginResult{}, Invalid("signup", "name, email and password are required")
	}
	var resp struct {
		Token string          `json:"token"`
		User  session.Profile `json:"user"`
	}
	body := map[string]string{"email": email, "password": password, "name": name}
	if err := c.post(ctx, "/auth/signup", body, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.Token != "" {
		if err := c.Session.SetSession(ctx, resp.Token, resp.User); err != nil {
			return LoginResult{}, err
		}
	}
	return LoginResult{Token: resp.Token, User: resp.User}, nil
}

// Logout tells the backend and clears the local session even if that fails.
func (c *Client) Logout(ctx context.Context) error {
	path := "/auth/logout"
	if c.Session.Role() == session.RoleAdmin {
		path = "/admin/logout"
	}
	err := c.post(ctx, path, nil, nil)
	if cerr := c.Session.ClearAll(ctx); cerr != nil {
		return cerr
	}
	if IsAuth(err) {
		return nil
	}
	return err
}

// Me fetches the current profile and refreshes the cached copy.
func (c *Client) Me(ctx context.Context) (session.Profile, error) {
	path := "/auth/me"
	key := "user"
	if c.Session.Role() == session.RoleAdmin {
		path, key = "/admin/me", "admin"
	}
	var resp map[string]session.Profile
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	p := resp[key]
	if p != nil {
		if err := c.Session.MergeProfile(ctx, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	if current == "" || next == "" {
		return Invalid("password", "current and new password are required")
	}
	return c.post(ctx, "/auth/change-password", map[string]string{
		"current_password": current,
		"new_password":     next,
	}, nil)
}

// AdminLogin authenticates against the admin panel.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, Invalid("credentials", "email and password are required")
	}
	var resp struct {
		Admin   session.Profile `json:"admin"`
		Session struct {
			Token string `json:"token"`
		} `json:"session"`
	}
	if err := c.post(ctx, "/admin/simple-login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return LoginResult{}, err
	}
	if resp.Session.Token == "" {
		return LoginResult{}, &Error{Status: 200, Message: "Login failed. Please try again."}
	}
	if err := c.Session.SetSession(ctx, resp.Session.Token, resp.Admin); err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: resp.Session.Token, User: resp.Admin}, nil
}
