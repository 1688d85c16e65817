package param

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemory(map[string]string{"/stage/auth/db/port": "3306"})
	store.Set("/stage/auth/db/user", "admin")

	v, err := store.Value(context.Background(), "/stage/auth/db/port")
	require.NoError(t, err)
	assert.Equal(t, "3306", v)

	_, err = store.Value(context.Background(), "/stage/auth/db/pass")
	require.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, []string{"/stage/auth/db/port", "/stage/auth/db/user"}, store.Paths())
}

func TestSecretRef(t *testing.T) {
	ref := Secret("/stage/auth/db/pass")
	assert.Equal(t, "{{resolve:ssm-secure:/stage/auth/db/pass}}", ref.DynamicReference())
	assert.Equal(t, "stage/auth/db/pass", ref.ParameterName())
}

func TestLoadFile(t *testing.T) {
	testCases := []struct {
		name        string
		content     string
		wantErr     bool
		errContains string
	}{
		{
			name: "valid file",
			content: `/stage/auth/db/port: "3306"
/stage/auth/db/user: admin
/stage/auth/db/database: auth`,
		},
		{
			name:        "relative path",
			content:     `stage/auth/db/port: "3306"`,
			wantErr:     true,
			errContains: "must start with /",
		},
		{
			name:        "not a mapping",
			content:     `- a`,
			wantErr:     true,
			errContains: "failed to parse parameter file",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filename := filepath.Join(t.TempDir(), "params.yaml")
			require.NoError(t, os.WriteFile(filename, []byte(tc.content), 0644))

			store, err := LoadFile(filename)
			if tc.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errContains)
				return
			}
			require.NoError(t, err)
			v, err := store.Value(context.Background(), "/stage/auth/db/database")
			require.NoError(t, err)
			assert.Equal(t, "auth", v)
		})
	}

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestHTTPStoreValue(t *testing.T) {
	store := NewHTTPStore("http://params.local", "session-token")
	httpmock.ActivateNonDefault(store.client.GetClient())
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder("GET", "http://params.local/systemsmanager/parameters/get",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "session-token", req.Header.Get("X-Aws-Parameters-Secrets-Token"))
			switch req.URL.Query().Get("name") {
			case "/stage/auth/db/port":
				return httpmock.NewStringResponse(200, `{"Parameter":{"Name":"/stage/auth/db/port","Type":"String","Value":"3306"}}`), nil
			case "/stage/auth/db/user":
				return httpmock.NewStringResponse(400, `{"__type":"ParameterNotFound"}`), nil
			default:
				return httpmock.NewStringResponse(500, "boom"), nil
			}
		})

	v, err := store.Value(context.Background(), "/stage/auth/db/port")
	require.NoError(t, err)
	assert.Equal(t, "3306", v)

	_, err = store.Value(context.Background(), "/stage/auth/db/user")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = store.Value(context.Background(), "/stage/auth/db/other")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code: 500")
}
