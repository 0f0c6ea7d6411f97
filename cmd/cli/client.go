package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/aryan0dhankhar/freightlink/internal/domain"
	"github.com/aryan0dhankhar/freightlink/internal/search"
)

// session is what the CLI stores between invocations.
type session struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// apiError is a non-2xx answer from the server.
type apiError struct {
	Status  int
	Message string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Is maps 404 answers onto domain.ErrNotFound so the tenancy resolver can
// tell "no company" apart from a failed lookup.
func (e *apiError) Is(target error) bool {
	return target == domain.ErrNotFound && e.Status == http.StatusNotFound
}

// apiClient talks to the FreightLink HTTP API. It implements
// tenancy.Store, tenancy.ProfileSource and search.Searcher.
type apiClient struct {
	base  string
	token string
	http  *http.Client
}

func newAPIClient(base, token string) *apiClient {
	return &apiClient{base: base, token: token, http: &http.Client{Timeout: 15 * time.Second}}
}

func (c *apiClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &apiError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) OwnedCompany(ctx context.Context, _ string) (*domain.Company, error) {
	var company domain.Company
	if err := c.do(ctx, http.MethodGet, "/api/tenancy/owned", nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *apiClient) MemberRole(ctx context.Context, companyID, _ string) (domain.Role, error) {
	var out struct {
		Role domain.Role `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tenancy/role/"+url.PathEscape(companyID), nil, &out); err != nil {
		return "", err
	}
	return out.Role, nil
}

func (c *apiClient) JoinedCompany(ctx context.Context, _ string) (*domain.Company, domain.Role, error) {
	var out struct {
		Company *domain.Company `json:"company"`
		Role    domain.Role     `json:"role"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/tenancy/membership", nil, &out); err != nil {
		return nil, "", err
	}
	return out.Company, out.Role, nil
}

func (c *apiClient) Profile(ctx context.Context, _ string) (*domain.Profile, error) {
	var out struct {
		Profile *domain.Profile `json:"profile"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &out); err != nil {
		return nil, err
	}
	if out.Profile == nil {
		return nil, domain.ErrNotFound
	}
	return out.Profile, nil
}

// Search sends the whole filter; the engine owns filter state, so server
// side defaults are switched off.
func (c *apiClient) Search(ctx context.Context, f search.Filter) ([]domain.SubcontractorRecord, error) {
	var out struct {
		Results []domain.SubcontractorRecord `json:"results"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/subcontractors/search?defaults=false", f, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func (c *apiClient) DefaultFilter(ctx context.Context) (search.Filter, error) {
	var f search.Filter
	err := c.do(ctx, http.MethodGet, "/api/preferences/filter", nil, &f)
	return f, err
}

func getAPIURL() string {
	if u := os.Getenv("FREIGHTLINK_API"); u != "" {
		return u
	}
	return "http://localhost:8080"
}

func sessionFile() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".freightlink", "session.json")
}

func saveSession(s session) error {
	if err := os.MkdirAll(filepath.Dir(sessionFile()), 0o700); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return os.WriteFile(sessionFile(), data, 0o600)
}

func loadSession() session {
	var s session
	data, err := os.ReadFile(sessionFile())
	if err != nil {
		return s
	}
	_ = json.Unmarshal(data, &s)
	return s
}
