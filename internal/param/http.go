package param

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultEndpoint is the local parameters and secrets extension.
	DefaultEndpoint = "http://localhost:2773"
	tokenHeader     = "X-Aws-Parameters-Secrets-Token"
	parametersPath  = "/systemsmanager/parameters/get"
)

// HTTPStore reads parameters over the parameters and secrets extension HTTP
// API.
type HTTPStore struct {
	client *resty.Client
}

type parameterResponse struct {
	Parameter struct {
		Name  string `json:"Name"`
		Type  string `json:"Type"`
		Value string `json:"Value"`
	} `json:"Parameter"`
}

// NewHTTPStore creates a store against endpoint, authenticating with token.
func NewHTTPStore(endpoint, token string) *HTTPStore {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(endpoint, "/"))
	client.SetHeader("Accept", "application/json")
	if token != "" {
		client.SetHeader(tokenHeader, token)
	}
	client.SetDisableWarn(true)

	return &HTTPStore{client: client}
}

// Value implements Store.
func (s *HTTPStore) Value(ctx context.Context, path string) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("name", path).
		SetQueryParam("withDecryption", "false").
		Get(parametersPath)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve parameter %s: %w", path, err)
	}

	switch {
	case resp.StatusCode() == http.StatusNotFound,
		resp.StatusCode() == http.StatusBadRequest && strings.Contains(resp.String(), "ParameterNotFound"):
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode() != http.StatusOK:
		return "", fmt.Errorf("failed to retrieve parameter %s, status code: %d, response: %s", path, resp.StatusCode(), resp.String())
	}

	var body parameterResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", fmt.Errorf("failed to parse parameter %s: %w", path, err)
	}
	return body.Parameter.Value, nil
}
