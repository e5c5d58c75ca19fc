package metadata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fwsig/fwsig/internal/manifest"
)

func TestRender_JSON(t *testing.T) {
	out := Render(manifest.MetadataJSON, []byte(`{"version":"1.0","debug":false}`))
	assert.Contains(t, out, `"version": "1.0"`)
	assert.Contains(t, out, `"debug": false`)
}

func TestRender_JSONInvalid(t *testing.T) {
	out := Render(manifest.MetadataJSON, []byte(`{"version":`))
	assert.Contains(t, out, "not valid JSON")
	assert.Contains(t, out, "7b") // falls back to the hex dump
}

func TestRender_CBOR(t *testing.T) {
	// {"v": 1, "data": h'0102'}
	payload := []byte{
		0xa2, 0x61, 0x76, 0x01,
		0x64, 0x64, 0x61, 0x74, 0x61, 0x42, 0x01, 0x02,
	}
	out := Render(manifest.MetadataCBOR, payload)
	assert.Contains(t, out, `"v": 1`)
	assert.Contains(t, out, `h'0102'`)
}

func TestRender_CBORInvalid(t *testing.T) {
	out := Render(manifest.MetadataCBOR, []byte{0xff, 0xff})
	assert.Contains(t, out, "not valid CBOR")
}

func TestRender_BinaryHexDump(t *testing.T) {
	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i)
	}

	out := Render(manifest.MetadataBinary, payload)
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "00 01 02"))

	assert.Equal(t, "(empty)", Render(manifest.MetadataOther, nil))
}
