package browserless

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOptions(t *testing.T, req renderRequest) map[string]any {
	t.Helper()
	raw, err := json.Marshal(req)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	opts, ok := body["options"].(map[string]any)
	require.True(t, ok, "options must be an object")
	return opts
}

func TestDefaults(t *testing.T) {
	s := DefaultScreenshotOptions()
	assert.True(t, s.FullPage)
	assert.Nil(t, s.Width)
	assert.Nil(t, s.Height)
	assert.Equal(t, "networkidle2", s.WaitUntil)
	assert.Equal(t, 3000, s.WaitForTimeout)

	p := DefaultPDFOptions()
	assert.False(t, p.Landscape)
	assert.False(t, p.DisplayHeaderFooter)
	assert.True(t, p.PrintBackground)
	assert.Equal(t, 1.0, p.Scale)
	assert.Equal(t, "networkidle2", p.WaitUntil)
	assert.Equal(t, 3000, p.WaitForTimeout)
	assert.True(t, p.SinglePage)
}

func TestBuildScreenshotRequest_DefaultsOmitDimensions(t *testing.T) {
	opts := decodeOptions(t, buildScreenshotRequest("https://example.com", DefaultScreenshotOptions()))
	assert.Equal(t, map[string]any{"fullPage": true}, opts)
}

func TestBuildScreenshotRequest_GotoOptionsNested(t *testing.T) {
	opts := DefaultScreenshotOptions()
	opts.WaitUntil = "load"
	opts.WaitForTimeout = 500

	req := buildScreenshotRequest("https://example.com", opts)
	assert.Equal(t, gotoOptions{WaitUntil: "load", Timeout: 500}, req.GotoOptions)
	assert.Equal(t, "https://example.com", req.URL)
}

func TestBuildPDFRequest_SinglePagePreset(t *testing.T) {
	opts := decodeOptions(t, buildPDFRequest("https://example.com", DefaultPDFOptions()))

	assert.Equal(t, "A4", opts["format"])
	assert.Equal(t, map[string]any{"top": "0.1in", "right": "0.1in", "bottom": "0.1in", "left": "0.1in"}, opts["margin"])
	assert.Equal(t, false, opts["preferCSSPageSize"])
	assert.Equal(t, "8.27in", opts["width"])
	assert.Equal(t, "50in", opts["height"])
	assert.Equal(t, false, opts["landscape"])
	assert.Equal(t, false, opts["displayHeaderFooter"])
	assert.Equal(t, true, opts["printBackground"])
	assert.Equal(t, float64(1), opts["scale"])
}

func TestBuildPDFRequest_PaginatedPreset(t *testing.T) {
	in := DefaultPDFOptions()
	in.SinglePage = false
	in.Landscape = true
	in.DisplayHeaderFooter = true
	in.PrintBackground = false
	in.Scale = 0.8

	opts := decodeOptions(t, buildPDFRequest("https://example.com", in))

	assert.Equal(t, "A4", opts["format"])
	assert.Equal(t, map[string]any{"top": "0.4in", "right": "0.4in", "bottom": "0.4in", "left": "0.4in"}, opts["margin"])
	assert.Equal(t, true, opts["preferCSSPageSize"])
	assert.NotContains(t, opts, "width")
	assert.NotContains(t, opts, "height")
	assert.Equal(t, true, opts["landscape"])
	assert.Equal(t, true, opts["displayHeaderFooter"])
	assert.Equal(t, false, opts["printBackground"])
	assert.Equal(t, 0.8, opts["scale"])
}
