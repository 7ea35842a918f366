// Package provisioning talks to the external user-management service that
// owns user records for institutions. The service is consumed as a black-box
// HTTP API: POST /users creates a user, DELETE /users/{id} removes one.
package provisioning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"campuskit.app/institution-service/internal/model"
)

// Client defines the contract for provisioning users in the external service.
type Client interface {
	// CreateUsers provisions one user per spec, in order. On the first
	// failure it stops and returns the IDs already created together with
	// the error, so the caller can compensate. A timed-out call counts as
	// failed even though its remote effect is unknown.
	CreateUsers(ctx context.Context, institutionID int64, specs []model.UserSpec) ([]string, error)

	// DeleteUsers removes users best-effort: a failure on one ID does not
	// stop the rest. One result is returned per input ID.
	DeleteUsers(ctx context.Context, userIDs []string) []DeleteResult
}

// DeleteResult reports the outcome of a single best-effort user deletion.
type DeleteResult struct {
	UserID string
	Err    error
}

type Config struct {
	BaseURL string
	Timeout time.Duration
}

func (c Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("user service base URL is required")
	}
	if _, err := url.Parse(c.BaseURL); err != nil {
		return fmt.Errorf("user service base URL: %w", err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("user service timeout must be positive")
	}
	return nil
}

type httpClient struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
}

func New(cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("provisioning config: %w", err)
	}

	return &httpClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		client:  &http.Client{},
	}, nil
}

type createUserRequest struct {
	InstitutionID  int64  `json:"institution_id,string"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	CredentialsRef string `json:"credentials_ref,omitempty"`
}

type createUserResponse struct {
	ID string `json:"id"`
}

func (c *httpClient) CreateUsers(ctx context.Context, institutionID int64, specs []model.UserSpec) ([]string, error) {
	created := make([]string, 0, len(specs))

	for i, spec := range specs {
		userID, err := c.createUser(ctx, institutionID, spec)
		if err != nil {
			slog.WarnContext(ctx, "user provisioning aborted",
				"failed_index", i,
				"created_so_far", len(created),
				"error", err)
			return created, fmt.Errorf("provisioning user %d of %d: %w", i+1, len(specs), err)
		}
		created = append(created, userID)
	}

	return created, nil
}

func (c *httpClient) createUser(ctx context.Context, institutionID int64, spec model.UserSpec) (string, error) {
	body, err := json.Marshal(createUserRequest{
		InstitutionID:  institutionID,
		Name:           spec.Name,
		Email:          spec.Email,
		Role:           spec.Role,
		CredentialsRef: spec.CredentialsRef,
	})
	if err != nil {
		return "", fmt.Errorf("encoding user spec: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.baseURL+"/users", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling user service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("user service returned %d: %s", resp.StatusCode, string(snippet))
	}

	var out createUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding user service response: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("user service returned empty user id")
	}

	return out.ID, nil
}

func (c *httpClient) DeleteUsers(ctx context.Context, userIDs []string) []DeleteResult {
	results := make([]DeleteResult, len(userIDs))

	for i, userID := range userIDs {
		err := c.deleteUser(ctx, userID)
		results[i] = DeleteResult{UserID: userID, Err: err}
		if err != nil {
			slog.WarnContext(ctx, "user deletion failed",
				"user_id", userID,
				"error", err)
		}
	}

	return results
}

func (c *httpClient) deleteUser(ctx context.Context, userID string) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodDelete, c.baseURL+"/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling user service: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		return nil
	case http.StatusNotFound:
		// Already gone remotely; treat the cleanup as done.
		return nil
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("user service returned %d: %s", resp.StatusCode, string(snippet))
	}
}
