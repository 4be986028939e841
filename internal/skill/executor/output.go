package executor

import (
	"bytes"
	"encoding/json"
)

// lastJSONValue extracts the last syntactically complete top-level JSON
// value from a script's stdout. Scripts may print diagnostic lines
// before their result as long as the result is the trailing value;
// earlier fragments, JSON or not, are ignored.
//
// The scan walks line boundaries from the end and accepts the shortest
// valid suffix, which also handles pretty-printed multi-line results.
func lastJSONValue(out []byte) (json.RawMessage, bool) {
	lines := bytes.Split(out, []byte("\n"))

	for i := len(lines) - 1; i >= 0; i-- {
		candidate := bytes.TrimSpace(bytes.Join(lines[i:], []byte("\n")))
		if len(candidate) == 0 {
			continue
		}
		if json.Valid(candidate) {
			return json.RawMessage(candidate), true
		}
	}

	return nil, false
}
