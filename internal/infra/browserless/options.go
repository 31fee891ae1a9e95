package browserless

// Defaults applied when a caller does not override an option.
const (
	DefaultWaitUntil      = "networkidle2"
	DefaultWaitForTimeout = 3000
)

// ScreenshotOptions controls a PNG screenshot. Width and Height are optional;
// nil leaves the viewport to the rendering service.
type ScreenshotOptions struct {
	FullPage       bool
	Width          *int
	Height         *int
	WaitUntil      string
	WaitForTimeout int // milliseconds
}

// DefaultScreenshotOptions returns the options used when no query value overrides them.
func DefaultScreenshotOptions() ScreenshotOptions {
	return ScreenshotOptions{
		FullPage:       true,
		WaitUntil:      DefaultWaitUntil,
		WaitForTimeout: DefaultWaitForTimeout,
	}
}

// PDFOptions controls a PDF render. SinglePage selects one of two fixed page
// geometries: one oversized page, or natural pagination driven by page CSS.
type PDFOptions struct {
	Landscape           bool
	DisplayHeaderFooter bool
	PrintBackground     bool
	Scale               float64
	WaitUntil           string
	WaitForTimeout      int // milliseconds
	SinglePage          bool
}

// DefaultPDFOptions returns the options used when no query value overrides them.
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		PrintBackground: true,
		Scale:           1.0,
		WaitUntil:       DefaultWaitUntil,
		WaitForTimeout:  DefaultWaitForTimeout,
		SinglePage:      true,
	}
}

// renderRequest is the body posted to the rendering service. Navigation waits
// go in gotoOptions, separate from rendering options.
type renderRequest struct {
	URL         string      `json:"url"`
	Options     any         `json:"options"`
	GotoOptions gotoOptions `json:"gotoOptions"`
}

type gotoOptions struct {
	WaitUntil string `json:"waitUntil"`
	Timeout   int    `json:"timeout"`
}

type screenshotPayload struct {
	FullPage bool `json:"fullPage"`
	Width    *int `json:"width,omitempty"`
	Height   *int `json:"height,omitempty"`
}

type pdfMargin struct {
	Top    string `json:"top"`
	Right  string `json:"right"`
	Bottom string `json:"bottom"`
	Left   string `json:"left"`
}

type pdfPayload struct {
	Format              string    `json:"format"`
	Landscape           bool      `json:"landscape"`
	DisplayHeaderFooter bool      `json:"displayHeaderFooter"`
	PrintBackground     bool      `json:"printBackground"`
	Scale               float64   `json:"scale"`
	Margin              pdfMargin `json:"margin"`
	PreferCSSPageSize   bool      `json:"preferCSSPageSize"`
	Width               string    `json:"width,omitempty"`
	Height              string    `json:"height,omitempty"`
}

// pagePreset is a fixed page geometry.
type pagePreset struct {
	format            string
	margin            string
	preferCSSPageSize bool
	width             string
	height            string
}

var (
	// One very tall A4-wide page, so the document renders without pagination.
	singlePagePreset = pagePreset{
		format:            "A4",
		margin:            "0.1in",
		preferCSSPageSize: false,
		width:             "8.27in",
		height:            "50in",
	}
	paginatedPreset = pagePreset{
		format:            "A4",
		margin:            "0.4in",
		preferCSSPageSize: true,
	}
)

func newGotoOptions(waitUntil string, timeout int) gotoOptions {
	return gotoOptions{WaitUntil: waitUntil, Timeout: timeout}
}

func buildScreenshotRequest(target string, opts ScreenshotOptions) renderRequest {
	return renderRequest{
		URL: target,
		Options: screenshotPayload{
			FullPage: opts.FullPage,
			Width:    opts.Width,
			Height:   opts.Height,
		},
		GotoOptions: newGotoOptions(opts.WaitUntil, opts.WaitForTimeout),
	}
}

func buildPDFRequest(target string, opts PDFOptions) renderRequest {
	preset := paginatedPreset
	if opts.SinglePage {
		preset = singlePagePreset
	}

	return renderRequest{
		URL: target,
		Options: pdfPayload{
			Format:              preset.format,
			Landscape:           opts.Landscape,
			DisplayHeaderFooter: opts.DisplayHeaderFooter,
			PrintBackground:     opts.PrintBackground,
			Scale:               opts.Scale,
			Margin: pdfMargin{
				Top:    preset.margin,
				Right:  preset.margin,
				Bottom: preset.margin,
				Left:   preset.margin,
			},
			PreferCSSPageSize: preset.preferCSSPageSize,
			Width:             preset.width,
			Height:            preset.height,
		},
		GotoOptions: newGotoOptions(opts.WaitUntil, opts.WaitForTimeout),
	}
}
