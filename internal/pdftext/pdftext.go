// Package pdftext turns a PDF on disk into line-preserving UTF-8 text.
//
// The file is first checked with pdfcpu, then its text layer is read with
// poppler's pdftotext. Scans without a usable text layer can be run through
// pdftoppm and tesseract when the OCR fallback is enabled. Any failure to
// produce text is services.ErrExtractionUnreadable.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/RabowNicholas/swna-automation/internal/services"
	"github.com/RabowNicholas/swna-automation/internal/textutil"
)

// minTextRunes is the smallest text layer treated as real text rather than
// scanner noise.
const minTextRunes = 40

// Executor abstracts command execution.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s: %w: %s", filepath.Base(binary), err, msg)
		}
		return out, fmt.Errorf("%s: %w", filepath.Base(binary), err)
	}
	return out, nil
}

// PageCounter reports the page count of a PDF and fails for invalid files.
type PageCounter func(r io.ReadSeeker) (int, error)

// Options configures the extractor.
type Options struct {
	PdftotextBinary string
	OCRFallback     bool
	PdftoppmBinary  string
	TesseractBinary string
	OCRDPI          int
	Timeout         time.Duration
}

// Document is the extracted text of one PDF.
type Document struct {
	Text  string
	Pages int
	OCR   bool
}

// Extractor reads PDFs.
type Extractor struct {
	opts     Options
	exec     Executor
	countFn  PageCounter
	tempRoot string
}

// Option customizes an Extractor.
type Option func(*Extractor)

// WithExecutor injects a command executor, typically a test fake.
func WithExecutor(e Executor) Option {
	return func(x *Extractor) {
		if e != nil {
			x.exec = e
		}
	}
}

// WithPageCounter replaces the pdfcpu page counter.
func WithPageCounter(fn PageCounter) Option {
	return func(x *Extractor) {
		if fn != nil {
			x.countFn = fn
		}
	}
}

// WithTempDir sets where OCR page images are rendered.
func WithTempDir(dir string) Option {
	return func(x *Extractor) { x.tempRoot = dir }
}

// New returns an extractor.
func New(opts Options, options ...Option) *Extractor {
	if strings.TrimSpace(opts.PdftotextBinary) == "" {
		opts.PdftotextBinary = "pdftotext"
	}
	if strings.TrimSpace(opts.PdftoppmBinary) == "" {
		opts.PdftoppmBinary = "pdftoppm"
	}
	if strings.TrimSpace(opts.TesseractBinary) == "" {
		opts.TesseractBinary = "tesseract"
	}
	if opts.OCRDPI <= 0 {
		opts.OCRDPI = 300
	}
	x := &Extractor{
		opts:    opts,
		exec:    commandExecutor{},
		countFn: func(r io.ReadSeeker) (int, error) { return api.PageCount(r, nil) },
	}
	for _, o := range options {
		o(x)
	}
	return x
}

// Extract reads path and returns normalized text.
func (x *Extractor) Extract(ctx context.Context, path string) (Document, error) {
	if x.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.opts.Timeout)
		defer cancel()
	}

	pages, err := x.pageCount(path)
	if err != nil {
		return Document{}, services.Wrap(services.ErrExtractionUnreadable, services.StageRead, "validate pdf", filepath.Base(path), err)
	}

	out, err := x.exec.Run(ctx, x.opts.PdftotextBinary, []string{"-layout", "-enc", "UTF-8", "-eol", "unix", path, "-"})
	if err != nil {
		return Document{}, x.wrapRunErr(ctx, "pdftotext", path, err)
	}
	doc := Document{Text: textutil.Normalize(string(out)), Pages: pages}
	if usable(doc.Text) {
		return doc, nil
	}

	if !x.opts.OCRFallback {
		return Document{}, services.Wrap(services.ErrExtractionUnreadable, services.StageRead, "pdftotext",
			filepath.Base(path)+": no text layer and OCR fallback disabled", nil)
	}
	text, err := x.ocr(ctx, path)
	if err != nil {
		return Document{}, x.wrapRunErr(ctx, "ocr", path, err)
	}
	doc.Text = textutil.Normalize(text)
	doc.OCR = true
	if !usable(doc.Text) {
		return Document{}, services.Wrap(services.ErrExtractionUnreadable, services.StageRead, "ocr",
			filepath.Base(path)+": OCR produced no usable text", nil)
	}
	return doc, nil
}

func (x *Extractor) pageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	pages, err := x.countFn(f)
	if err != nil {
		return 0, err
	}
	if pages <= 0 {
		return 0, errors.New("pdf has no pages")
	}
	return pages, nil
}

func (x *Extractor) ocr(ctx context.Context, path string) (string, error) {
	dir, err := os.MkdirTemp(x.tempRoot, "swna-ocr-")
	if err != nil {
		return "", fmt.Errorf("create ocr dir: %w", err)
	}
	defer os.RemoveAll(dir)

	prefix := filepath.Join(dir, "page")
	args := []string{"-r", strconv.Itoa(x.opts.OCRDPI), "-gray", "-png", path, prefix}
	if _, err := x.exec.Run(ctx, x.opts.PdftoppmBinary, args); err != nil {
		return "", err
	}
	images, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return "", err
	}
	if len(images) == 0 {
		return "", errors.New("pdftoppm rendered no pages")
	}
	sort.Strings(images)

	var b strings.Builder
	for _, img := range images {
		out, err := x.exec.Run(ctx, x.opts.TesseractBinary, []string{img, "stdout"})
		if err != nil {
			return "", err
		}
		b.Write(out)
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

func (x *Extractor) wrapRunErr(ctx context.Context, operation, path string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return services.Wrap(services.ErrTimeout, services.StageRead, operation, filepath.Base(path), err)
	}
	return services.Wrap(services.ErrExtractionUnreadable, services.StageRead, operation, filepath.Base(path), err)
}

func usable(text string) bool {
	n := 0
	for _, r := range text {
		if r > ' ' {
			n++
			if n >= minTextRunes {
				return true
			}
		}
	}
	return false
}
