package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"resumeai/internal/config"
)

const pdfContentType = "application/pdf"

// Client 封装 MinIO：内部客户端负责读写，公共客户端负责签发浏览器可访问的链接。
type Client struct {
	internal *minio.Client
	public   *minio.Client
	bucket   string
}

func NewClient(ctx context.Context, cfg config.MinIOConfig) (*Client, error) {
	lookup, err := bucketLookup(cfg.BucketLookup)
	if err != nil {
		return nil, err
	}
	creds := credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, "")

	internal, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:        creds,
		Secure:       cfg.UseSSL,
		Region:       cfg.Region,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}

	public := internal
	if strings.TrimSpace(cfg.PublicEndpoint) != "" {
		u, err := url.Parse(cfg.PublicEndpoint)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid minio public endpoint %q", cfg.PublicEndpoint)
		}
		public, err = minio.New(u.Host, &minio.Options{
			Creds:        creds,
			Secure:       u.Scheme == "https",
			Region:       cfg.Region,
			BucketLookup: lookup,
		})
		if err != nil {
			return nil, fmt.Errorf("init public minio client: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := internal.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %q: %w", cfg.Bucket, err)
	}
	if !exists {
		if !cfg.AutoCreateBucket {
			return nil, fmt.Errorf("bucket %q does not exist (auto create disabled)", cfg.Bucket)
		}
		if err := internal.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("make bucket %q: %w", cfg.Bucket, err)
		}
	}

	return &Client{internal: internal, public: public, bucket: cfg.Bucket}, nil
}

func bucketLookup(mode string) (minio.BucketLookupType, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		return minio.BucketLookupAuto, nil
	case "dns":
		return minio.BucketLookupDNS, nil
	case "path":
		return minio.BucketLookupPath, nil
	default:
		return minio.BucketLookupAuto, fmt.Errorf("invalid minio bucket lookup %q", mode)
	}
}

// ExportKey 返回导出 PDF 的对象路径。
func ExportKey(userID uint, exportID string) string {
	return fmt.Sprintf("exports/%d/%s.pdf", userID, exportID)
}

// PutPDF 上传 PDF 字节。
func (c *Client) PutPDF(ctx context.Context, key string, data []byte) error {
	_, err := c.internal.PutObject(ctx, c.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: pdfContentType})
	if err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// Exists 判断对象是否存在；对象缺失返回 false 且不报错。
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.internal.StatObject(ctx, c.bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if IsNoSuchKey(err) {
		return false, nil
	}
	return false, fmt.Errorf("stat object %q: %w", key, err)
}

// PresignedDownloadURL 生成限时下载链接，filename 非空时浏览器以附件形式保存。
func (c *Client) PresignedDownloadURL(ctx context.Context, key, filename string, ttl time.Duration) (string, error) {
	var params url.Values
	if filename = strings.TrimSpace(filename); filename != "" {
		params = url.Values{}
		params.Set("response-content-disposition", fmt.Sprintf("attachment; filename=%q", filename))
	}
	u, err := c.public.PresignedGetObject(ctx, c.bucket, key, ttl, params)
	if err != nil {
		return "", fmt.Errorf("generate presigned url for %q: %w", key, err)
	}
	return u.String(), nil
}

// Delete 删除对象，对象不存在视为成功。
func (c *Client) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return nil
	}
	if err := c.internal.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil && !IsNoSuchKey(err) {
		return fmt.Errorf("remove object %q: %w", key, err)
	}
	return nil
}
