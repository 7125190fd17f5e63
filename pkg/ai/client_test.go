package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n[1,2]\n```":         `[1,2]`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in))
	}
}

func TestParseInto(t *testing.T) {
	var out struct {
		Questions []struct {
			Question string `json:"question"`
		} `json:"questions"`
	}
	raw := "```json\n{\"questions\":[{\"question\":\"What is inertia?\"}]}\n```"
	require.NoError(t, ParseInto(raw, &out))
	require.Len(t, out.Questions, 1)
	assert.Equal(t, "What is inertia?", out.Questions[0].Question)
}

func TestParseIntoMalformed(t *testing.T) {
	var out map[string]interface{}
	assert.Error(t, ParseInto("not json at all", &out))
	assert.Error(t, ParseInto("", &out))
}
