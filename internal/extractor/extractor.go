package extractor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/phuslu/log"
)

var (
	ErrNotFound   = errors.New("document not found")
	ErrNoContent  = errors.New("no text content could be extracted from document")
	ErrUnreadable = errors.New("document could not be parsed")
)

// PageSource 按页读取文档文本，页码从 1 开始
type PageSource interface {
	PageCount() int
	PageText(pageNr int) (string, error)
}

// Opener 打开文档并返回 PageSource
type Opener func(path string) (PageSource, error)

// Result 提取结果
type Result struct {
	Text            string
	Pages           int
	UnreadablePages []int
}

// Extractor 文档文本提取器
type Extractor struct {
	open Opener
}

// New 使用 pdfcpu 读取 PDF
func New() *Extractor {
	return &Extractor{open: OpenPDF}
}

// NewWithOpener 自定义文档来源
func NewWithOpener(open Opener) *Extractor {
	return &Extractor{open: open}
}

// Extract 逐页提取文本。单页失败只留下占位标记，全部页面都没有文本时返回 ErrNoContent。
func (e *Extractor) Extract(ctx context.Context, path string) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	src, err := e.open(path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	pageCount := src.PageCount()
	result := &Result{Pages: pageCount}

	var b strings.Builder
	recovered := false

	for pageNr := 1; pageNr <= pageCount; pageNr++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := readPage(src, pageNr)
		if err != nil {
			log.Warn().Str("path", path).Int("page", pageNr).Err(err).Msg("page unreadable")
			result.UnreadablePages = append(result.UnreadablePages, pageNr)
			fmt.Fprintf(&b, "--- Page %d ---\n<page %d unreadable>\n", pageNr, pageNr)
			continue
		}

		text = CollapseBlankLines(text)
		if text == "" {
			continue
		}
		recovered = true
		fmt.Fprintf(&b, "--- Page %d ---\n%s\n", pageNr, text)
	}

	if !recovered {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, path)
	}

	result.Text = b.String()
	log.Debug().Str("path", path).
		Int("pages", pageCount).
		Int("unreadable", len(result.UnreadablePages)).
		Int("chars", len(result.Text)).
		Msg("document text extracted")
	return result, nil
}

// readPage 解析库在损坏页面上可能 panic，按单页失败处理
func readPage(src PageSource, pageNr int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic reading page %d: %v", pageNr, r)
		}
	}()
	return src.PageText(pageNr)
}

// CollapseBlankLines 去掉空白行和行尾空白
func CollapseBlankLines(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
