package filetype

import (
	"github.com/gabriel-vasile/mimetype"
)

// Info describes a detected file type.
type Info struct {
	MIMEType  string
	Extension string
}

// IsPDF reports whether the detection matched a PDF document.
func (i Info) IsPDF() bool {
	return i.MIMEType == "application/pdf"
}

// DetectBytes sniffs the type from raw content.
func DetectBytes(data []byte) Info {
	m := mimetype.Detect(data)
	return Info{MIMEType: m.String(), Extension: m.Extension()}
}

// DetectFile sniffs the type from a file on disk.
func DetectFile(path string) (Info, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return Info{}, err
	}
	return Info{MIMEType: m.String(), Extension: m.Extension()}, nil
}
