package api

import (
	"context"
	"strings"
	"unicode"
)

// NormalizeSecretName upper-cases name, turns whitespace runs into one
// underscore and any other character outside [A-Z0-9_] into an underscore.
// Applying it twice gives the same result as applying it once.
func NormalizeSecretName(name string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.ToUpper(strings.TrimSpace(name)) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte('_')
			}
			inSpace = true
			continue
		}
		inSpace = false
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func (c *Client) ListSecrets(ctx context.Context) ([]Secret, error) {
	var resp struct {
		Secrets []Secret `json:"secrets"`
	}
	if err := c.get(ctx, dashboard+"/secrets", &resp); err != nil {
		return nil, err
	}
	if resp.Secrets == nil {
		resp.Secrets = []Secret{}
	}
	return resp.Secrets, nil
}

func validateSecret(in *SecretInput) error {
	in.Name = NormalizeSecretName(in.Name)
	if in.Name == "" {
		return Invalid("name", "secret name is required")
	}
	if strings.TrimSpace(in.Value) == "" {
		return Invalid("value", "secret value is required")
	}
	return nil
}

func (c *Client) CreateSecret(ctx context.Context, in SecretInput) (Secret, error) {
	if err := validateSecret(&in); err != nil {
		return Secret{}, err
	}
	var resp struct {
		Secret Secret `json:"secret"`
	}
	if err := c.post(ctx, dashboard+"/secrets", in, &resp); err != nil {
		return Secret{}, err
	}
	if resp.Secret.Name == "" {
		resp.Secret.Name = in.Name
	}
	return resp.Secret, nil
}

// UpdateSecret changes expiry and attachments; the value is untouched.
func (c *Client) UpdateSecret(ctx context.Context, name string, expiresAt *string, serverIDs []string) (Secret, error) {
	name = NormalizeSecretName(name)
	if name == "" {
		return Secret{}, Invalid("name", "secret name is required")
	}
	body := map[string]any{"expires_at": expiresAt, "server_ids": serverIDs}
	var resp struct {
		Secret Secret `json:"secret"`
	}
	if err := c.put(ctx, dashboard+"/secrets/"+pathEscape(name), body, &resp); err != nil {
		return Secret{}, err
	}
	return resp.Secret, nil
}

func (c *Client) RotateSecret(ctx context.Context, name, value string) error {
	in := SecretInput{Name: name, Value: value}
	if err := validateSecret(&in); err != nil {
		return err
	}
	return c.post(ctx, dashboard+"/secrets/"+pathEscape(in.Name)+"/rotate", map[string]string{"value": in.Value}, nil)
}

func (c *Client) DeleteSecret(ctx context.Context, name string) error {
	name = NormalizeSecretName(name)
	if name == "" {
		return Invalid("name", "secret name is required")
	}
	return c.del(ctx, dashboard+"/secrets/"+pathEscape(name), nil)
}
