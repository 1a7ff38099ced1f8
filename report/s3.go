// Package report archives settlement run summaries in S3-compatible storage.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/mohitbudhwar0786/earning-website/config"
	"github.com/mohitbudhwar0786/earning-website/settlement"
	"github.com/mohitbudhwar0786/earning-website/utils"
)

// ObjectPutter is the part of the S3 client the archive needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Document is the JSON body written for each run.
type Document struct {
	settlement.Result
	Aborted bool   `json:"aborted"`
	Error   string `json:"error,omitempty"`
}

// S3Archive is a settlement.Observer that uploads one document per run.
type S3Archive struct {
	client  ObjectPutter
	bucket  string
	prefix  string
	timeout time.Duration
	log     *zap.Logger
}

func NewS3Archive(client ObjectPutter, bucket, prefix string, log *zap.Logger) *S3Archive {
	if log == nil {
		log = zap.NewNop()
	}
	return &S3Archive{client: client, bucket: bucket, prefix: prefix, timeout: 15 * time.Second, log: log}
}

// NewClient builds an S3 client from static credentials. A custom endpoint
// selects an S3-compatible store such as R2 or MinIO.
func NewClient(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, errors.New("S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY must be set")
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Upload writes the run document and returns its key.
func (a *S3Archive) Upload(ctx context.Context, res settlement.Result, runErr error) (string, error) {
	doc := Document{Result: res, Aborted: runErr != nil}
	if runErr != nil {
		doc.Error = runErr.Error()
	}
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	key := utils.GenerateReportKey(a.prefix, res.Date, res.RunID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// RunFinished uploads the report. Failures are logged and never reach the
// settlement pass.
func (a *S3Archive) RunFinished(ctx context.Context, res settlement.Result, runErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()
	key, err := a.Upload(ctx, res, runErr)
	if err != nil {
		a.log.Warn("settlement report upload failed", zap.String("run_id", res.RunID), zap.Error(err))
		return
	}
	a.log.Info("settlement report archived", zap.String("run_id", res.RunID), zap.String("key", key))
}
