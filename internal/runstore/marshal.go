package runstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/verdictlab/verdict/internal/expr"
	"github.com/verdictlab/verdict/internal/manifest"
	"github.com/verdictlab/verdict/internal/report"
)

// marshalRunInfo serializes run-info to a JSON object of scalars.
func marshalRunInfo(info manifest.RunInfo) (string, error) {
	m := make(map[string]any, len(info))
	for name, v := range info {
		switch val := v.(type) {
		case expr.String:
			m[name] = string(val)
		case expr.Int:
			m[name] = int64(val)
		case expr.Bool:
			m[name] = bool(val)
		default:
			return "", fmt.Errorf("run_info property %q: unsupported value type %T", name, v)
		}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal run_info: %w", err)
	}
	return string(data), nil
}

// unmarshalRunInfo narrows a stored JSON object back to run-info values.
// Numbers decode through json.Number so integer properties survive the
// round trip without a float detour.
func unmarshalRunInfo(data string) (manifest.RunInfo, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal run_info: %w", err)
	}
	return report.RunInfoFromMap(m)
}
