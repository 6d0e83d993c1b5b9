package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"campus-events/internal/apperr"
	"campus-events/internal/config"
	"campus-events/internal/utils"
)

const (
	s3KeyPrefix   = "events/"
	presignExpiry = 15 * time.Minute
)

type S3Store struct {
	client   s3iface.S3API
	bucket   string
	maxBytes int64
}

func NewAWSSession(cfg config.S3Config) (*session.Session, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessID, cfg.Secret, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	return session.NewSession(awsCfg)
}

func NewS3Store(cfg config.S3Config, maxBytes int64) (*S3Store, error) {
	sess, err := NewAWSSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create aws session: %w", err)
	}
	return &S3Store{client: s3.New(sess), bucket: cfg.Bucket, maxBytes: maxBytes}, nil
}

func (s *S3Store) Save(ctx context.Context, originalName string, r io.Reader) (string, error) {
	buf, contentType, err := readImage(r, s.maxBytes)
	if err != nil {
		return "", err
	}
	name := utils.UploadName(originalName)
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s3KeyPrefix + name),
		Body:          bytes.NewReader(buf),
		ContentLength: aws.Int64(int64(len(buf))),
		ContentType:   aws.String(contentType),
		StorageClass:  aws.String(s3.StorageClassStandard),
	})
	if err != nil {
		return "", fmt.Errorf("upload image %s to s3: %w", name, err)
	}
	return name, nil
}

func (s *S3Store) Remove(ctx context.Context, ref string) error {
	if !validRef(ref) {
		return apperr.Errorf(apperr.ErrValidation, "image %q", ref)
	}
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3KeyPrefix + ref),
	})
	if err != nil {
		return fmt.Errorf("delete image %s from s3: %w", ref, err)
	}
	return nil
}

// Serve redirects to a short-lived presigned URL for the object.
func (s *S3Store) Serve(w http.ResponseWriter, r *http.Request, ref string) {
	if !validRef(ref) {
		utils.WriteError(w, http.StatusNotFound, "File not found")
		return
	}
	req, _ := s.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s3KeyPrefix + ref),
	})
	url, err := req.Presign(presignExpiry)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to locate image")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}
