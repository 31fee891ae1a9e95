package domain

// Kind identifies a render operation offered by the rendering service.
type Kind string

const (
	KindScreenshot Kind = "screenshot"
	KindPDF        Kind = "pdf"
)

// ContentType is fixed per kind; payloads are never inspected.
func (k Kind) ContentType() string {
	switch k {
	case KindScreenshot:
		return "image/png"
	case KindPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
