package domain

// MIME types accepted at the upload boundary.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeDOC  = "application/msword"
	MIMETypeText = "text/plain"
)

// RawDocument represents opaque uploaded bytes before extraction.
// Size and batch limits are enforced by the caller before a
// RawDocument reaches the extractors.
type RawDocument struct {
	// SourceName is the filename the document was uploaded as.
	SourceName string

	// MIMEType is the declared content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains caller-specific key-value pairs.
	Metadata map[string]any
}

// MIMETypeForExtension maps a filename extension to a supported MIME
// type. The extension is matched case-insensitively with or without a
// leading dot. Returns "" for unsupported extensions.
func MIMETypeForExtension(ext string) string {
	switch normaliseExt(ext) {
	case "pdf":
		return MIMETypePDF
	case "docx":
		return MIMETypeDOCX
	case "doc":
		return MIMETypeDOC
	case "txt":
		return MIMETypeText
	default:
		return ""
	}
}

func normaliseExt(ext string) string {
	out := make([]byte, 0, len(ext))
	for i := 0; i < len(ext); i++ {
		c := ext[i]
		if i == 0 && c == '.' {
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out = append(out, c)
	}
	return string(out)
}
