package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRenderStageConfig(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.RenderTemplate(StageConfig, DefaultProject("go-auth-api", "ap-northeast-1"))
	require.NoError(t, err)

	var doc struct {
		Stages map[string]struct {
			Name              string   `yaml:"name"`
			Variant           string   `yaml:"variant"`
			AvailabilityZones []string `yaml:"availabilityZones"`
			DNS               *struct {
				Domain string `yaml:"domain"`
			} `yaml:"dns"`
		} `yaml:"stages"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Stages, 2)

	dev := doc.Stages["dev"]
	assert.Equal(t, "go-auth-api-dev", dev.Name)
	assert.Equal(t, "minimal", dev.Variant)
	assert.Equal(t, []string{"ap-northeast-1a"}, dev.AvailabilityZones)
	assert.Nil(t, dev.DNS)

	stage := doc.Stages["stage"]
	assert.Equal(t, []string{"ap-northeast-1a", "ap-northeast-1c"}, stage.AvailabilityZones)
	require.NotNil(t, stage.DNS)
	assert.Equal(t, "api", stage.DNS.Domain)
}

func TestRenderParams(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	out, err := r.RenderTemplate(Params, DefaultProject("go-auth-api", "ap-northeast-1"))
	require.NoError(t, err)

	var values map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &values))
	assert.Equal(t, map[string]string{
		"/stage/go-auth-api/db/port":     "3306",
		"/stage/go-auth-api/db/user":     "admin",
		"/stage/go-auth-api/db/database": "app",
	}, values)

	_, err = r.RenderTemplate("missing.tmpl", nil)
	require.Error(t, err)
}

func TestNames(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	assert.Equal(t, []string{StageConfig, Params}, r.Names())
}
