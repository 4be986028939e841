package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastJSONValue(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"single object", `{"a":1}`, `{"a":1}`, true},
		{"trailing newline", "{\"a\":1}\n", `{"a":1}`, true},
		{"diagnostics before result", "loading model\ndone\n{\"a\":1}\n", `{"a":1}`, true},
		{"last of several values", "{\"a\":1}\n{\"b\":2}\n", `{"b":2}`, true},
		{"pretty printed", "log\n{\n  \"a\": 1\n}\n", "{\n  \"a\": 1\n}", true},
		{"array result", "noise\n[1,2,3]\n", `[1,2,3]`, true},
		{"scalar result", "noise\n42\n", `42`, true},
		{"string result", "noise\n\"ok\"\n", `"ok"`, true},
		{"null result", "null\n", `null`, true},
		{"no JSON at all", "plain text output\n", "", false},
		{"empty", "", "", false},
		{"whitespace only", "  \n\t\n", "", false},
		{"truncated object", "{\"a\":\n", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := lastJSONValue([]byte(tc.input))
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				require.NotNil(t, got)
				assert.Equal(t, tc.want, string(got))
			}
		})
	}
}
