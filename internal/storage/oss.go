package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/qs3c/findoc_server/internal/pkg/oss"
)

// objectClient internal/pkg/oss.Client 中用到的部分
type objectClient interface {
	Put(objectKey string, r io.Reader, contentType string) error
	DownloadToFile(objectKey, filePath string) error
	Delete(objectKey string) error
	ListOlderThan(prefix string, age time.Duration) ([]string, error)
}

// OSSStore 文档存放在 OSS，worker 处理前下载到临时目录。多机部署队列模式时使用。
type OSSStore struct {
	client  objectClient
	prefix  string
	tempDir string
}

func NewOSSStore(client objectClient, prefix, tempDir string) *OSSStore {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &OSSStore{client: client, prefix: strings.Trim(prefix, "/"), tempDir: tempDir}
}

func (s *OSSStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	key := path.Join(s.prefix, documentName(name))
	if err := s.client.Put(key, r, oss.ContentType(path.Ext(key))); err != nil {
		return "", err
	}
	return key, nil
}

func (s *OSSStore) Fetch(ctx context.Context, ref string) (string, func(), error) {
	local := filepath.Join(s.tempDir, path.Base(ref))
	if err := s.client.DownloadToFile(ref, local); err != nil {
		os.Remove(local)
		return "", nil, fmt.Errorf("%w: %v", ErrDocumentNotFound, err)
	}

	release := func() {
		if err := os.Remove(local); err != nil && !os.IsNotExist(err) {
			log.Warn().Str("path", local).Err(err).Msg("failed to remove downloaded document")
		}
	}
	return local, release, nil
}

func (s *OSSStore) Delete(ctx context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	return s.client.Delete(ref)
}

func (s *OSSStore) ListOlderThan(ctx context.Context, age time.Duration) ([]string, error) {
	return s.client.ListOlderThan(s.prefix+"/", age)
}
