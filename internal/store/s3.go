package store

import (
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"
	"github.com/tanq16/coursekeep/internal/course"
)

const maxDeleteBatch = 1000

type DeleteObjectsAPI interface {
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Mirror removes the copies of downloaded videos kept in a bucket under
// Prefix/<course>/<block>/<file>.
type S3Mirror struct {
	Client DeleteObjectsAPI
	Bucket string
	Prefix string
}

func NewS3Mirror(ctx context.Context, profile, bucket, prefix string) (*S3Mirror, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithSharedConfigProfile(profile),
		config.WithRetryMode("adaptive"),
	)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	return &S3Mirror{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}, nil
}

func (m *S3Mirror) Key(c *course.Course, b *course.Block, v *course.Video) string {
	return path.Join(m.Prefix, safeKey(c.ID), safeKey(b.ID), v.FileName)
}

func (m *S3Mirror) DeleteVideos(ctx context.Context, c *course.Course, b *course.Block, videos []*course.Video) ([]string, error) {
	byKey := make(map[string]string, len(videos))
	var objects []types.ObjectIdentifier
	for _, v := range videos {
		key := m.Key(c, b, v)
		byKey[key] = v.ID
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
	}

	var ids []string
	for start := 0; start < len(objects); start += maxDeleteBatch {
		end := min(start+maxDeleteBatch, len(objects))
		batch := objects[start:end]
		out, err := m.Client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(m.Bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return ids, fmt.Errorf("error deleting mirrored objects: %w", err)
		}
		failed := make(map[string]bool)
		for _, e := range out.Errors {
			key := aws.ToString(e.Key)
			failed[key] = true
			log.Warn().Str("op", "store/s3").Msgf("could not delete s3://%s/%s: %s", m.Bucket, key, aws.ToString(e.Message))
		}
		for _, obj := range batch {
			key := aws.ToString(obj.Key)
			if !failed[key] {
				ids = append(ids, byKey[key])
			}
		}
	}
	log.Info().Str("op", "store/s3").Msgf("deleted %d mirrored videos from s3://%s", len(ids), m.Bucket)
	return ids, nil
}

func safeKey(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c == '/' || c == ':' {
			b[i] = '_'
		}
	}
	return string(b)
}
