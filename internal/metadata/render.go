// Package metadata renders a manifest's metadata payload for human
// inspection, dispatching on the manifest's recorded metadata kind.
// Rendering never trusts the payload: malformed JSON or CBOR degrades
// to a hex dump rather than failing.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/fwsig/fwsig/internal/manifest"
)

// Render returns a printable form of payload according to kind.
func Render(kind manifest.MetadataKind, payload []byte) string {
	switch kind {
	case manifest.MetadataJSON:
		return renderJSON(payload)
	case manifest.MetadataCBOR:
		return renderCBOR(payload)
	default:
		return hexDump(payload)
	}
}

func renderJSON(payload []byte) string {
	var out bytes.Buffer
	if err := json.Indent(&out, payload, "", "  "); err != nil {
		return fmt.Sprintf("(metadata is not valid JSON: %v)\n%s", err, hexDump(payload))
	}
	return out.String()
}

func renderCBOR(payload []byte) string {
	var decoded any
	if err := cbor.Unmarshal(payload, &decoded); err != nil {
		return fmt.Sprintf("(metadata is not valid CBOR: %v)\n%s", err, hexDump(payload))
	}

	jsonable, err := toJSONable(decoded)
	if err != nil {
		return fmt.Sprintf("(metadata CBOR not renderable: %v)\n%s", err, hexDump(payload))
	}

	pretty, err := json.MarshalIndent(jsonable, "", "  ")
	if err != nil {
		return fmt.Sprintf("(metadata CBOR not renderable: %v)\n%s", err, hexDump(payload))
	}
	return string(pretty)
}

// toJSONable rewrites a decoded CBOR value into a shape
// json.MarshalIndent accepts: map keys become strings (sorted for
// stable output), byte strings become CBOR diagnostic h'..' literals,
// and tags become explicit tag/content objects.
func toJSONable(value any) (any, error) {
	switch v := value.(type) {
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			conv, err := toJSONable(elem)
			if err != nil {
				return nil, err
			}
			out[i] = conv
		}
		return out, nil
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		out := make(map[string]any, len(v))
		for _, k := range keys {
			conv, err := toJSONable(v[k])
			if err != nil {
				return nil, err
			}
			out[k] = conv
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, val := range v {
			conv, err := toJSONable(val)
			if err != nil {
				return nil, err
			}
			out[keyString(key)] = conv
		}
		return out, nil
	case []byte:
		return fmt.Sprintf("h'%x'", v), nil
	case cbor.Tag:
		content, err := toJSONable(v.Content)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"_cborTag": v.Number,
			"content":  content,
		}, nil
	default:
		return v, nil
	}
}

func keyString(key any) string {
	switch k := key.(type) {
	case string:
		return k
	case fmt.Stringer:
		return k.String()
	case []byte:
		return fmt.Sprintf("h'%x'", k)
	default:
		return fmt.Sprint(k)
	}
}

// hexDump formats payload as rows of sixteen hex bytes.
func hexDump(payload []byte) string {
	if len(payload) == 0 {
		return "(empty)"
	}

	var b strings.Builder
	for i, c := range payload {
		if i > 0 {
			if i%16 == 0 {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}
