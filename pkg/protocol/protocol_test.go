package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patchgo/patchgo/pkg/contenthash"
	"github.com/patchgo/patchgo/pkg/version"
)

func TestLatestVersionJSON(t *testing.T) {
	lv := LatestVersion{Version: version.New(1, 1, 0)}
	body, err := json.Marshal(lv)
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":"1.1.0"}`, string(body))

	var decoded LatestVersion
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.True(t, decoded.Version.Equal(lv.Version))
}

func TestVersionHashJSON(t *testing.T) {
	h := contenthash.Sum([]byte("release bytes"))
	vh := VersionHash{Version: version.New(0, 2, 0), Hash: h}

	body, err := json.Marshal(vh)
	require.NoError(t, err)

	var decoded VersionHash
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.True(t, decoded.Version.Equal(vh.Version))
	assert.True(t, decoded.Hash.Equal(vh.Hash))
}
