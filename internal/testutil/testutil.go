package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/davoodharun/apistack/internal/config"
	"github.com/davoodharun/apistack/internal/logger"
	"github.com/davoodharun/apistack/internal/param"
)

// Revision is a well-formed commit hash for builds under test.
const Revision = "0123456789abcdef0123456789abcdef01234567"

// StageYAML is a two-stage configuration: a full stage and a minimal one.
const StageYAML = `stages:
  stage:
    name: go-auth-api-stage
    region: ap-northeast-1
    availabilityZones: [ap-northeast-1a, ap-northeast-1c]
    variant: full
    dns:
      zoneId: Z123
      zoneName: example.com
      domain: auth
    loadBalancer:
      listener:
        certificate:
          ref: cert-abc
    service:
      name: go-auth-api
      command: [cmd/auth-api-server]
  dev:
    name: go-auth-api-dev
    region: ap-northeast-1
    variant: minimal
    service:
      name: go-auth-api
`

// Quiet silences the logger for the duration of the test.
func Quiet(t *testing.T) {
	t.Helper()
	logger.SetTestMode(true)
	t.Cleanup(func() { logger.SetTestMode(false) })
}

// StageFile parses StageYAML.
func StageFile(t *testing.T) *config.File {
	t.Helper()
	file, err := config.Parse([]byte(StageYAML))
	require.NoError(t, err)
	return file
}

// StageContext resolves env from StageFile without process overrides.
func StageContext(t *testing.T, env string) config.StageContext {
	t.Helper()
	sc, err := config.Resolve(env, StageFile(t), nil)
	require.NoError(t, err)
	return sc
}

// Params returns a parameter store holding the database settings of sc.
func Params(sc config.StageContext) *param.Memory {
	return param.NewMemory(map[string]string{
		sc.ParameterPath("db/port"):     "3306",
		sc.ParameterPath("db/user"):     "admin",
		sc.ParameterPath("db/database"): "auth",
	})
}
