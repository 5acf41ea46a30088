// Package ocr drives the external OCR engine and produces the token
// collection consumed by classification and confidence fusion.
package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"docsense/internal/config"
	"docsense/internal/domain"
	"docsense/internal/port"
)

// Extractor runs pdftoppm and tesseract to turn an uploaded document into
// positioned, confidence-scored tokens. It implements port.OCRClient.
type Extractor struct {
	cfg    config.OCRConfig
	runner Runner
}

// NewExtractor creates an Extractor. A nil runner defaults to executing the
// real binaries.
func NewExtractor(cfg config.OCRConfig, runner Runner) *Extractor {
	if runner == nil {
		runner = NewExecRunner()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Language == "" {
		cfg.Language = "eng"
	}
	if cfg.DPI == 0 {
		cfg.DPI = 200
	}
	return &Extractor{cfg: cfg, runner: runner}
}

// Recognize OCRs the document and returns its token collection plus the
// page-ordered full text. Producing zero tokens is a terminal failure for the
// pipeline.
func (e *Extractor) Recognize(ctx context.Context, fileBytes []byte, contentType string) (*port.OCRResult, error) {
	if e.cfg.TimeoutSecs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(e.cfg.TimeoutSecs)*time.Second)
		defer cancel()
	}

	workDir, err := os.MkdirTemp("", "docsense-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("creating ocr workdir: %w", err)
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	pagePaths, err := e.preparePages(ctx, workDir, fileBytes, contentType)
	if err != nil {
		return nil, err
	}

	var tokens []domain.Token
	for i, path := range pagePaths {
		pageTokens, err := e.recognizePage(ctx, path, i+1)
		if err != nil {
			return nil, fmt.Errorf("ocr page %d: %w", i+1, err)
		}
		tokens = append(tokens, pageTokens...)
	}

	if len(tokens) == 0 {
		return nil, domain.ErrNoTokens
	}

	texts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		texts = append(texts, t.Text)
	}

	return &port.OCRResult{
		Tokens:   tokens,
		FullText: strings.Join(texts, " "),
		Pages:    len(pagePaths),
	}, nil
}

// preparePages writes the upload to disk and, for PDFs, rasterizes each page
// to a PNG. It returns the ordered list of page image paths.
func (e *Extractor) preparePages(ctx context.Context, workDir string, fileBytes []byte, contentType string) ([]string, error) {
	if contentType != "application/pdf" {
		imgPath := filepath.Join(workDir, "page-1.png")
		if err := os.WriteFile(imgPath, fileBytes, 0o600); err != nil {
			return nil, fmt.Errorf("writing image: %w", err)
		}
		return []string{imgPath}, nil
	}

	pdfPath := filepath.Join(workDir, "input.pdf")
	if err := os.WriteFile(pdfPath, fileBytes, 0o600); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}

	prefix := filepath.Join(workDir, "page")
	args := []string{"-png", "-r", strconv.Itoa(e.cfg.DPI)}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-f", "1", "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, pdfPath, prefix)
	if _, stderr, err := e.runner.Run(ctx, e.cfg.Pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("pdftoppm: %w (stderr: %s)", err, truncate(string(stderr), 512))
	}

	pages, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("globbing pages: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("pdftoppm produced no pages")
	}
	// pdftoppm zero-pads page numbers, so lexicographic order is page order.
	sort.Strings(pages)
	return pages, nil
}

func (e *Extractor) recognizePage(ctx context.Context, imgPath string, page int) ([]domain.Token, error) {
	stdout, stderr, err := e.runner.Run(ctx, e.cfg.Tesseract, imgPath, "stdout", "-l", e.cfg.Language, "tsv")
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w (stderr: %s)", err, truncate(string(stderr), 512))
	}
	return parseTSV(string(stdout), page), nil
}
