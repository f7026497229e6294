package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookverse/apptrust-rollback/internal/application/versioning"
	apterrors "github.com/bookverse/apptrust-rollback/internal/errors"
)

func TestHumanizeStatus(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"TRUSTED_RELEASE", "Trusted Release"},
		{"RELEASED", "Released"},
		{"UNDER_REVIEW", "Under Review"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, humanizeStatus(tt.input), "input %q", tt.input)
	}
}

func TestDisplayTag(t *testing.T) {
	assert.Equal(t, "latest", displayTag("latest"))
	assert.Equal(t, "none", displayTag(""))
}

func TestExportGithubEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_env")
	t.Setenv("GITHUB_ENV", path)

	err := exportGithubEnv(versioning.Next{Version: "1.2.3", BuildNumber: "7.0.4"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "APP_VERSION=1.2.3\nIMAGE_TAG=1.2.3\nBUILD_NUMBER=7.0.4\n", string(data))
}

func TestExportGithubEnv_AppendsToExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "github_env")
	require.NoError(t, os.WriteFile(path, []byte("EXISTING=1\n"), 0o600))
	t.Setenv("GITHUB_ENV", path)

	err := exportGithubEnv(versioning.Next{Version: "1.2.3"})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "EXISTING=1\nAPP_VERSION=1.2.3\nIMAGE_TAG=1.2.3\n", string(data))
}

func TestExportGithubEnv_MissingVariable(t *testing.T) {
	t.Setenv("GITHUB_ENV", "")

	err := exportGithubEnv(versioning.Next{Version: "1.2.3"})
	require.Error(t, err)
	assert.True(t, apterrors.IsKind(err, apterrors.KindConfig))
}
