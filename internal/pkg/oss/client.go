package oss

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/qs3c/findoc_server/config"
)

type Client struct {
	bucket *oss.Bucket
}

func NewClient(cfg *config.OSSConfig) (*Client, error) {
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket: %w", err)
	}

	return &Client{bucket: bucket}, nil
}

// Put 流式上传对象
func (c *Client) Put(objectKey string, r io.Reader, contentType string) error {
	if err := c.bucket.PutObject(objectKey, r, oss.ContentType(contentType)); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	return nil
}

// DownloadToFile 下载对象到本地文件
func (c *Client) DownloadToFile(objectKey, filePath string) error {
	if err := c.bucket.GetObjectToFile(objectKey, filePath); err != nil {
		return fmt.Errorf("failed to download object: %w", err)
	}
	return nil
}

// Delete 删除文件
func (c *Client) Delete(objectKey string) error {
	err := c.bucket.DeleteObject(objectKey)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// ListOlderThan 列出前缀下最后修改时间早于 age 的对象
func (c *Client) ListOlderThan(prefix string, age time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-age)
	var keys []string

	marker := ""
	for {
		result, err := c.bucket.ListObjects(oss.Prefix(prefix), oss.Marker(marker), oss.MaxKeys(1000))
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range result.Objects {
			if obj.LastModified.Before(cutoff) {
				keys = append(keys, obj.Key)
			}
		}
		if !result.IsTruncated {
			break
		}
		marker = result.NextMarker
	}
	return keys, nil
}

// ContentType 根据扩展名获取 Content-Type
func ContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
