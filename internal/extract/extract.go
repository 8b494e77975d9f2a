// Package extract pulls plain text out of uploaded resumes.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"
)

var (
	// ErrUnsupported is returned for files that are not PDF, DOCX or plain text.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrEmpty is returned when a document contains no extractable text.
	ErrEmpty = errors.New("no text found in document")
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
)

// Detect sniffs the content type of data and returns the supported type it
// matches, or ErrUnsupported.
func Detect(data []byte) (string, error) {
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		switch {
		case mt.Is(MIMEPDF):
			return MIMEPDF, nil
		case mt.Is(MIMEDOCX):
			return MIMEDOCX, nil
		case mt.Is(MIMEText):
			return MIMEText, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, mimetype.Detect(data).String())
}

// Text returns the normalised text content of a PDF, DOCX or plain text document.
func Text(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	kind, err := Detect(data)
	if err != nil {
		return "", err
	}

	var raw string
	switch kind {
	case MIMEPDF:
		raw, err = pdfText(data)
	case MIMEDOCX:
		raw, err = docxText(data)
	default:
		raw = string(data)
	}
	if err != nil {
		return "", err
	}

	text := collapseWhitespace(raw)
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("pdf plain text: %w", err)
	}
	b, err := io.ReadAll(plain)
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return string(b), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("read docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content), nil
}

func collapseWhitespace(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}
