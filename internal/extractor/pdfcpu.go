package extractor

import (
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfSource 基于 pdfcpu 的 PageSource
type pdfSource struct {
	ctx *model.Context
}

// OpenPDF 读取并校验 PDF 结构
func OpenPDF(path string) (PageSource, error) {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF context: %w", err)
	}
	return &pdfSource{ctx: ctx}, nil
}

func (s *pdfSource) PageCount() int {
	return s.ctx.PageCount
}

func (s *pdfSource) PageText(pageNr int) (string, error) {
	r, err := pdfcpu.ExtractPageContent(s.ctx, pageNr)
	if err != nil {
		return "", err
	}
	if r == nil {
		return "", nil
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return TextFromContent(content), nil
}
