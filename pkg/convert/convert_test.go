package convert

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	page2012 = "<html><script>chart({\n  data: {\"races\": [{\"state_id\": \"OH\", \"votes\": 5590000}]}\n});</script></html>"
	page2016 = "<html><script>\nvar eln_races = [{\"state_id\": \"OH\"}],\nvar other = 1;</script></html>"
	page2020 = `<html><head><title>Results</title></head><body>
<script class="e-map-data" type="application/json">
{"races": [{"state_id": "OH", "b": 1, "a": 2}], "meta": {}}
</script></body></html>`
)

func TestExtract(t *testing.T) {
	raw, err := Extract([]byte(page2012))
	require.NoError(t, err)
	assert.Equal(t, `{"races": [{"state_id": "OH", "votes": 5590000}]}`, raw)

	raw, err = Extract([]byte(page2016))
	require.NoError(t, err)
	assert.Equal(t, `[{"state_id": "OH"}]`, raw)

	raw, err = Extract([]byte(page2020))
	require.NoError(t, err)
	assert.Contains(t, raw, `"races"`)

	_, err = Extract([]byte("<html><body>nothing</body></html>"))
	assert.True(t, errors.Is(err, ErrNoScript))
}

func TestDocument(t *testing.T) {
	out, err := Document(`{"races": [{"state_id": "OH", "votes": 5590000}]}`)
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"state_id\": \"OH\",\n    \"votes\": 5590000\n  }\n]", string(out))

	out, err = Document(`{"races": [], "b": 1, "a": 2}`)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 2,\n  \"b\": 1,\n  \"races\": []\n}", string(out))

	_, err = Document(`{"races": [`)
	assert.True(t, errors.Is(err, ErrBadJSON))
}

func TestFolder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2020-president.html"), []byte(page2020), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.html"), []byte("<html></html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(page2012), 0o644))

	outputs, err := Folder(dir)
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(dir, "2020-president-html.json")}, outputs)

	data, err := os.ReadFile(outputs[0])
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a": 2, "b": 1, "state_id": "OH"}]`, string(data))
}
