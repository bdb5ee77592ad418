package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/clinicdesk/clinicdesk-go/internal/model"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
)

var ErrMissingToken = errors.New("authentication response has no token")

func itemPath(collection string, id int64) string {
	return fmt.Sprintf("/%s/%d", collection, id)
}

// List fetches GET /{collection}.
func (c *Client) List(ctx context.Context, collection string) ([]resource.Record, error) {
	data, err := c.Do(ctx, http.MethodGet, "/"+collection, nil)
	if err != nil {
		return nil, err
	}
	return resource.DecodeRecords(data)
}

// Get fetches GET /{collection}/{id}.
func (c *Client) Get(ctx context.Context, collection string, id int64) (resource.Record, error) {
	data, err := c.Do(ctx, http.MethodGet, itemPath(collection, id), nil)
	if err != nil {
		return nil, err
	}
	return resource.DecodeRecord(data)
}

// Create sends POST /{collection}. The returned record is nil when the
// backend answers without a body.
func (c *Client) Create(ctx context.Context, collection string, payload any) (resource.Record, error) {
	data, err := c.Do(ctx, http.MethodPost, "/"+collection, payload)
	if err != nil {
		return nil, err
	}
	return optionalRecord(data)
}

// Patch sends PATCH /{collection}/{id}.
func (c *Client) Patch(ctx context.Context, collection string, id int64, payload any) (resource.Record, error) {
	data, err := c.Do(ctx, http.MethodPatch, itemPath(collection, id), payload)
	if err != nil {
		return nil, err
	}
	return optionalRecord(data)
}

// Put sends PUT /{collection}/{id}.
func (c *Client) Put(ctx context.Context, collection string, id int64, payload any) (resource.Record, error) {
	data, err := c.Do(ctx, http.MethodPut, itemPath(collection, id), payload)
	if err != nil {
		return nil, err
	}
	return optionalRecord(data)
}

// Delete sends DELETE /{collection}/{id}.
func (c *Client) Delete(ctx context.Context, collection string, id int64) error {
	_, err := c.Do(ctx, http.MethodDelete, itemPath(collection, id), nil)
	return err
}

// Login exchanges credentials for a token. It is sent without a bearer token.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	return c.authenticate(ctx, "/login", req)
}

// Register creates an account and signs it in.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	return c.authenticate(ctx, "/register", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (model.AuthResponse, error) {
	data, err := c.send(ctx, http.MethodPost, path, body, false)
	if err != nil {
		return model.AuthResponse{}, err
	}

	var resp model.AuthResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return model.AuthResponse{}, fmt.Errorf("decoding %s response: %w", path, err)
	}
	if resp.Token == "" {
		return model.AuthResponse{}, ErrMissingToken
	}
	return resp, nil
}

func optionalRecord(data []byte) (resource.Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return resource.DecodeRecord(data)
}
