package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/qs3c/findoc_server/config"
	"github.com/qs3c/findoc_server/internal/pkg/oss"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore 上传文档的存放位置。ref 是存储内的引用，会写入 document_path。
type DocumentStore interface {
	Save(ctx context.Context, name string, r io.Reader) (ref string, err error)
	// Fetch 返回可供提取器读取的本地路径，用完调用 release
	Fetch(ctx context.Context, ref string) (path string, release func(), err error)
	Delete(ctx context.Context, ref string) error
	ListOlderThan(ctx context.Context, age time.Duration) ([]string, error)
}

// New 按 storage.backend 创建
func New(cfg *config.Config) (DocumentStore, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocalStore(cfg.Storage.Dir)
	case "oss":
		client, err := oss.NewClient(&cfg.OSS)
		if err != nil {
			return nil, err
		}
		return NewOSSStore(client, "documents", ""), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %q", cfg.Storage.Backend)
	}
}

// documentName 生成不会冲突的文件名，保留原扩展名
func documentName(original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext == "" {
		ext = ".pdf"
	}
	return fmt.Sprintf("financial_document_%s%s", uuid.New().String(), ext)
}
