package remote

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/studio1767/filerelay/internal/secrets"
)

// S3Store treats a bucket prefix as a directory. Host and Port, when set,
// point at an S3 compatible endpoint and switch to path style addressing.
type S3Store struct{}

type s3Session struct {
	client *s3.Client
	bucket *string
	prefix string
}

type ErrNoSuchObject struct {
	key string
}

func (e *ErrNoSuchObject) Error() string {
	return fmt.Sprintf("no such object in bucket: %s", e.key)
}

func (st *S3Store) Connect(ctx context.Context, ep Endpoint, creds secrets.Credentials) (Session, error) {
	var opts []func(*config.LoadOptions) error
	if ep.Region != "" {
		opts = append(opts, config.WithRegion(ep.Region))
	}
	if creds.Username != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.Username, creds.Password, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &ConnectionError{Address: ep.Bucket, Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep.Host != "" {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", ep.Address()))
			o.UsePathStyle = true
		}
	})

	_, err = client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(ep.Bucket),
	})
	if err != nil {
		return nil, &ConnectionError{Address: ep.Bucket, Err: err}
	}

	prefix := strings.TrimPrefix(ep.Directory, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &s3Session{
		client: client,
		bucket: aws.String(ep.Bucket),
		prefix: prefix,
	}, nil
}

func (ss *s3Session) List(ctx context.Context) ([]Entry, error) {
	loi := s3.ListObjectsV2Input{
		Bucket:    ss.bucket,
		Prefix:    aws.String(ss.prefix),
		Delimiter: aws.String("/"),
	}

	var entries []Entry

	paginator := s3.NewListObjectsV2Paginator(ss.client, &loi)
	for paginator.HasMorePages() {
		resp, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, &ListError{Directory: ss.prefix, Err: err}
		}

		for _, object := range resp.Contents {
			name := strings.TrimPrefix(aws.ToString(object.Key), ss.prefix)
			if name == "" || strings.Contains(name, "/") {
				continue
			}
			entries = append(entries, Entry{
				Name:    name,
				ModTime: aws.ToTime(object.LastModified),
				Size:    aws.ToInt64(object.Size),
				HasSize: object.Size != nil,
			})
		}
	}

	return entries, nil
}

func (ss *s3Session) Fetch(ctx context.Context, name, localPath string) error {
	key := ss.prefix + name

	resp, err := ss.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: ss.bucket,
		Key:    aws.String(key),
	})
	if err != nil {
		var nosuchkey *types.NoSuchKey
		if errors.As(err, &nosuchkey) {
			err = &ErrNoSuchObject{key: key}
		}
		return &TransferError{Op: "fetch", Path: key, Err: err}
	}
	defer resp.Body.Close()

	var expected int64 = -1
	if resp.ContentLength != nil {
		expected = *resp.ContentLength
	}

	if _, err := saveFile(localPath, resp.Body, expected); err != nil {
		return &TransferError{Op: "fetch", Path: key, Err: err}
	}
	return nil
}

func (ss *s3Session) Put(ctx context.Context, localPath, remotePath string) error {
	key := strings.TrimPrefix(remotePath, "/")

	in, err := os.Open(localPath)
	if err != nil {
		return &TransferError{Op: "put", Path: key, Err: err}
	}
	defer in.Close()

	// count how many bytes actually get uploaded
	counter := &countingReader{in: in}

	uploader := manager.NewUploader(ss.client)

	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: ss.bucket,
		Key:    aws.String(key),
		Body:   counter,
	})
	if err != nil {
		return &TransferError{Op: "put", Path: key, Err: err}
	}

	if info, err := in.Stat(); err == nil {
		if err := checkSize(info.Size(), counter.bytes); err != nil {
			return &TransferError{Op: "put", Path: key, Err: err}
		}
	}
	return nil
}

func (ss *s3Session) Close() error {
	return nil
}
