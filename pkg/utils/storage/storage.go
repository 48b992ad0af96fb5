package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Client wraps the R2 bucket. Objects are keyed by content hash inside
// a per-entity folder, so re-uploading the same bytes dedupes within an
// entity type without colliding across types.
type Client struct {
	s3      *s3.Client
	bucket  string
	cdnBase string
	account string
}

func NewClient(accountID, accessKey, secretKey, bucket, cdnBase string) (*Client, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %v", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
		o.UsePathStyle = true
		o.Region = "auto"
	})

	return &Client{
		s3:      client,
		bucket:  bucket,
		cdnBase: strings.TrimRight(cdnBase, "/"),
		account: accountID,
	}, nil
}

// HashKey derives the content-addressed object key for a payload.
// Deletes refcount within a single table, so the folder must keep
// entity types on disjoint keys.
func HashKey(folder string, data []byte, ext string) (hash, key string) {
	sum := sha256.Sum256(data)
	hash = hex.EncodeToString(sum[:])
	return hash, folder + "/" + hash + ext
}

type UploadResult struct {
	Hash    string
	Key     string
	HotURL  string // CDN-transformable delivery URL
	ColdURL string // durable original in the bucket
}

func (c *Client) Upload(ctx context.Context, folder string, data []byte, ext, contentType string) (UploadResult, error) {
	hash, key := HashKey(folder, data, ext)

	_, err := c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return UploadResult{}, fmt.Errorf("could not upload file to R2: %v", err)
	}

	return UploadResult{
		Hash:    hash,
		Key:     key,
		HotURL:  c.cdnBase + "/" + key,
		ColdURL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com/%s/%s", c.account, c.bucket, key),
	}, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("could not delete file from R2: %v", err)
	}
	return nil
}

// KeyFromURL strips the CDN prefix back off a hot URL.
func (c *Client) KeyFromURL(url string) string {
	return strings.TrimPrefix(strings.TrimPrefix(url, c.cdnBase), "/")
}
