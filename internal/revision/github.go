package revision

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/zalando/go-keyring"

	"github.com/davoodharun/apistack/internal/validate"
)

const (
	// DefaultGitHubAPI is the public GitHub REST endpoint.
	DefaultGitHubAPI = "https://api.github.com"
	// KeyringService and KeyringUser locate a stored GitHub token.
	KeyringService = "apistack"
	KeyringUser    = "github"
	// TokenEnv overrides the keyring token.
	TokenEnv = "GITHUB_TOKEN"
)

// GitHub resolves a ref of a remote repository to its commit hash.
type GitHub struct {
	Owner string
	Repo  string
	Ref   string

	client *resty.Client
}

// NewGitHub creates a GitHub source against baseURL.
func NewGitHub(baseURL, owner, repo, ref string) *GitHub {
	if baseURL == "" {
		baseURL = DefaultGitHubAPI
	}
	if ref == "" {
		ref = "HEAD"
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("Accept", "application/vnd.github.sha")
	client.SetHeader("X-GitHub-Api-Version", "2022-11-28")
	client.SetDisableWarn(true)
	if token := Token(); token != "" {
		client.SetAuthToken(token)
	}

	return &GitHub{Owner: owner, Repo: repo, Ref: ref, client: client}
}

// Revision implements Source.
func (g *GitHub) Revision(ctx context.Context) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"owner": g.Owner, "repo": g.Repo, "ref": g.Ref}).
		Get("/repos/{owner}/{repo}/commits/{ref}")
	if err != nil {
		return "", validate.Provision("image revision", "failed to query GitHub", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", validate.Provision("image revision",
			fmt.Sprintf("GitHub returned status code %d for %s/%s@%s", resp.StatusCode(), g.Owner, g.Repo, g.Ref), nil)
	}
	return Check(resp.String())
}

// Token returns the GitHub token from the environment, falling back to the OS
// keyring. An empty string means anonymous access.
func Token() string {
	if token := os.Getenv(TokenEnv); token != "" {
		return token
	}
	token, err := keyring.Get(KeyringService, KeyringUser)
	if err != nil {
		return ""
	}
	return token
}

// StoreToken saves a GitHub token in the OS keyring.
func StoreToken(token string) error {
	if err := keyring.Set(KeyringService, KeyringUser, token); err != nil {
		return fmt.Errorf("failed to store GitHub token: %w", err)
	}
	return nil
}
