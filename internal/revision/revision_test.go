package revision

import (
	"context"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/davoodharun/apistack/internal/validate"
)

func TestCheck(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "full hash", input: "0123456789abcdef0123456789abcdef01234567\n", want: "0123456789abcdef0123456789abcdef01234567"},
		{name: "short hash upper case", input: "ABCDEF1", want: "abcdef1"},
		{name: "branch name", input: "main", wantErr: true},
		{name: "too short", input: "abc", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Check(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, validate.ErrProvision)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStatic(t *testing.T) {
	rev, err := Static("deadbeef").Revision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", rev)
}

func TestGitOutsideRepository(t *testing.T) {
	_, err := Git{Dir: t.TempDir()}.Revision(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrProvision)
}

func TestGitHubRevision(t *testing.T) {
	keyring.MockInit()
	t.Setenv(TokenEnv, "ghp_test")

	source := NewGitHub("https://github.local", "davoodharun", "go-auth-api", "main")
	httpmock.ActivateNonDefault(source.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "https://github.local/repos/davoodharun/go-auth-api/commits/main",
		httpmock.NewStringResponder(200, "0123456789abcdef0123456789abcdef01234567"))
	httpmock.RegisterResponder("GET", "https://github.local/repos/davoodharun/go-auth-api/commits/missing",
		httpmock.NewStringResponder(422, `{"message":"No commit found"}`))

	rev, err := source.Revision(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", rev)

	source.Ref = "missing"
	_, err = source.Revision(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, validate.ErrProvision)
	assert.Contains(t, err.Error(), "422")
}

func TestToken(t *testing.T) {
	keyring.MockInit()

	t.Setenv(TokenEnv, "")
	assert.Equal(t, "", Token())

	require.NoError(t, StoreToken("from-keyring"))
	assert.Equal(t, "from-keyring", Token())

	t.Setenv(TokenEnv, "from-env")
	assert.Equal(t, "from-env", Token())
}
