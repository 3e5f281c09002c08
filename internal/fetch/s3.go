package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/utils"
)

// S3 downloads s3://bucket/key videos with the transfer manager.
type S3 struct {
	Client      manager.DownloadAPIClient
	Concurrency int
}

func NewS3(ctx context.Context, profile string, concurrency int) (*S3, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
		config.WithRetryMode("adaptive"),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return &S3{Client: s3.NewFromConfig(cfg), Concurrency: concurrency}, nil
}

func ParseS3URL(url string) (string, string, error) {
	url = strings.TrimPrefix(url, "s3://")
	parts := strings.SplitN(url, "/", 2)
	if parts[0] == "" || len(parts) < 2 || parts[1] == "" {
		return "", "", fmt.Errorf("invalid S3 URL format")
	}
	return parts[0], parts[1], nil
}

type countingWriterAt struct {
	file     *os.File
	progress func(int64)
	written  atomic.Int64
}

func (w *countingWriterAt) WriteAt(p []byte, off int64) (int, error) {
	n, err := w.file.WriteAt(p, off)
	if n > 0 {
		w.written.Add(int64(n))
		if w.progress != nil {
			w.progress(int64(n))
		}
	}
	return n, err
}

func (f *S3) Fetch(ctx context.Context, url, outputPath string, progress func(int64)) error {
	bucket, key, err := ParseS3URL(url)
	if err != nil {
		return err
	}
	tempOutputPath := utils.PartPath(outputPath)
	if err := os.MkdirAll(filepath.Dir(tempOutputPath), 0755); err != nil {
		return fmt.Errorf("error creating temp directory: %w", err)
	}
	file, err := os.Create(tempOutputPath)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	downloader := manager.NewDownloader(f.Client, func(d *manager.Downloader) {
		if f.Concurrency > 0 {
			d.Concurrency = f.Concurrency
		}
	})
	writer := &countingWriterAt{file: file, progress: progress}
	log.Debug().Str("op", "fetch/s3").Msgf("downloading s3://%s/%s", bucket, key)
	_, err = downloader.Download(ctx, writer, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	closeErr := file.Close()
	if err != nil {
		return fmt.Errorf("error getting object: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("error closing file: %w", closeErr)
	}
	if err := os.Rename(tempOutputPath, outputPath); err != nil {
		return fmt.Errorf("error finalizing output file: %w", err)
	}
	_ = utils.CleanTempDir(filepath.Dir(outputPath))
	log.Info().Str("op", "fetch/s3").Msgf("downloaded %s from s3://%s/%s", utils.FormatBytes(uint64(writer.written.Load())), bucket, key)
	return nil
}
