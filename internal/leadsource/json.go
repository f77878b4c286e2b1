package leadsource

import (
	"context"
	"encoding/json"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
)

// decodeJSON streams a JSON array of lead objects. Numbers may be JSON
// numbers or human-written strings.
func decodeJSON(ctx context.Context, r io.Reader, emit func(rawLead)) error {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	tok, err := decoder.Token()
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return eris.Wrap(err, "json: read opening token")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return eris.Errorf("json: expected '[', got %v", tok)
	}

	for i := 0; decoder.More(); i++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "json: context cancelled")
		}

		var obj map[string]any
		if err := decoder.Decode(&obj); err != nil {
			return eris.Wrapf(err, "json: decode element %d", i)
		}

		var raw rawLead
		for k, v := range obj {
			if s, ok := jsonScalar(v); ok {
				raw.set(k, s)
			}
		}
		emit(raw)
	}

	if _, err := decoder.Token(); err != nil && err != io.EOF {
		return eris.Wrap(err, "json: read closing token")
	}
	return nil
}

// jsonScalar renders a decoded JSON scalar as text. Objects, arrays, and
// null are skipped.
func jsonScalar(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
