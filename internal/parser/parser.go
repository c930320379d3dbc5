package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docstruct/internal/doctree"
	"golang.org/x/text/unicode/norm"
)

// Parser converts raw document bytes into a DocTree.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".xlsx":     true,
}

// Options carries settings that only some parsers use.
type Options struct {
	FallbackPdftotext bool
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string, opts Options) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: opts.FallbackPdftotext}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".xlsx":
		return &XLSXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// ParseFile picks a parser for filename and returns the normalized document
// text together with the tree it came from.
func ParseFile(r io.Reader, filename string, opts Options) (*doctree.DocTree, string, error) {
	p, err := ForFile(filename, opts)
	if err != nil {
		return nil, "", err
	}
	tree, err := p.Parse(r, filename)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", filename, err)
	}
	return tree, Normalize(tree.Text()), nil
}

var lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n", "\f", "\n\n")

// Normalize folds compatibility characters (ellipses, non-breaking spaces,
// full-width digits) with NFKC and unifies line breaks. Form feeds become
// blank lines.
func Normalize(s string) string {
	return lineBreaks.Replace(norm.NFKC.String(s))
}
