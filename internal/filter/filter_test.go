package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeExpression(t *testing.T) {
	assert.Equal(t, `.status != "ok"`, NormalizeExpression(`.status \!= "ok"`))
	assert.Equal(t, `.a`, NormalizeExpression(`.a`))
}

func TestApply_EmptyExpression(t *testing.T) {
	data := map[string]any{"a": 1}
	got, err := Apply(data, "")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestApply_SingleResult(t *testing.T) {
	data := map[string]any{"hostname": "web1", "port": 22.0}
	got, err := Apply(data, ".hostname")
	require.NoError(t, err)
	assert.Equal(t, "web1", got)
}

func TestApply_MultipleResults(t *testing.T) {
	data := []any{
		map[string]any{"hostname": "web1"},
		map[string]any{"hostname": "db1"},
	}
	got, err := Apply(data, ".[].hostname")
	require.NoError(t, err)
	assert.Equal(t, []any{"web1", "db1"}, got)
}

func TestApply_InvalidExpression(t *testing.T) {
	_, err := Apply(map[string]any{}, ".[whoops")
	assert.Error(t, err)
}

func TestApply_RuntimeError(t *testing.T) {
	_, err := Apply([]any{1}, ".foo")
	assert.Error(t, err)
}

func TestApplyToJSON(t *testing.T) {
	out, err := ApplyToJSON([]byte(`[{"id": 1}, {"id": 2}]`), ".[].id")
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2]`, string(out))
}

func TestApplyToJSON_BadInput(t *testing.T) {
	_, err := ApplyToJSON([]byte("not json"), ".")
	assert.Error(t, err)
}

func TestApplyToValue_Struct(t *testing.T) {
	type host struct {
		Hostname string `json:"hostname"`
		IP       string `json:"ip"`
	}
	type inventory struct {
		Assets []host `json:"assets"`
	}

	data := inventory{Assets: []host{
		{Hostname: "web1", IP: "10.0.0.1"},
		{Hostname: "db1", IP: "10.0.0.2"},
	}}
	got, err := ApplyToValue(data, ".assets[].hostname")
	require.NoError(t, err)
	assert.Equal(t, []any{"web1", "db1"}, got)
}

func TestApplyToValue_EmptyExpression(t *testing.T) {
	type host struct {
		Hostname string `json:"hostname"`
	}
	data := host{Hostname: "web1"}
	got, err := ApplyToValue(data, "")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestApplyToValue_Unmarshalable(t *testing.T) {
	_, err := ApplyToValue(func() {}, ".")
	assert.Error(t, err)
}
