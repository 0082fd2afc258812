// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-tiermigrate.
//
// go-tiermigrate is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package s3 implements the storage client against AWS S3 using the
// AWS SDK for Go v2.
package s3

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"golang.org/x/sync/errgroup"

	"github.com/jeremyhahn/go-tiermigrate/pkg/common"
)

// regionLookupConcurrency bounds the parallel GetBucketLocation calls
// issued while listing buckets.
const regionLookupConcurrency = 4

// S3 is a storage client backed by AWS S3.
type S3 struct {
	svc *s3.Client
}

// New creates a new, unconfigured S3 storage client.
func New() common.StorageClient {
	return &S3{}
}

// Configure sets up the client. Recognized settings: region, endpoint,
// forcePathStyle, accessKey, secretKey. Credentials fall back to the
// SDK's default chain when not given explicitly.
func (s *S3) Configure(settings map[string]string) error {
	ctx := context.TODO()

	var opts []func(*config.LoadOptions) error
	if region := settings["region"]; region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if accessKey, secretKey := settings["accessKey"], settings["secretKey"]; accessKey != "" && secretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, "")))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return err
	}

	var s3opts []func(*s3.Options)
	if endpoint := settings["endpoint"]; endpoint != "" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if settings["forcePathStyle"] == "true" {
		s3opts = append(s3opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	s.svc = s3.NewFromConfig(cfg, s3opts...)
	return nil
}

// ListBuckets returns all buckets sorted by name. Bucket regions are
// looked up concurrently; a failed lookup leaves the region empty
// rather than failing the listing.
func (s *S3) ListBuckets(ctx context.Context) ([]common.BucketInfo, error) {
	if s.svc == nil {
		return nil, common.ErrNotConfigured
	}

	output, err := s.svc.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}

	buckets := make([]common.BucketInfo, 0, len(output.Buckets))
	for _, bucket := range output.Buckets {
		if bucket.Name == nil {
			continue
		}
		info := common.BucketInfo{Name: *bucket.Name}
		if bucket.CreationDate != nil {
			info.CreationDate = *bucket.CreationDate
		}
		buckets = append(buckets, info)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(regionLookupConcurrency)
	for i := range buckets {
		group.Go(func() error {
			region, err := s.bucketRegion(groupCtx, buckets[i].Name)
			if err == nil {
				buckets[i].Region = region
			}
			return nil
		})
	}
	_ = group.Wait()

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Name < buckets[j].Name
	})
	return buckets, nil
}

func (s *S3) bucketRegion(ctx context.Context, bucket string) (string, error) {
	resp, err := s.svc.GetBucketLocation(ctx, &s3.GetBucketLocationInput{
		Bucket: aws.String(bucket),
	})
	if err != nil {
		return "", err
	}
	// An empty constraint means us-east-1; leave it blank the way the
	// API reports it.
	return string(resp.LocationConstraint), nil
}

// ListObjects returns the complete listing for a bucket in backend
// order, following continuation tokens to the end.
func (s *S3) ListObjects(ctx context.Context, bucket string) ([]*common.ObjectRecord, error) {
	if s.svc == nil {
		return nil, common.ErrNotConfigured
	}

	var records []*common.ObjectRecord
	now := time.Now()

	paginator := s3.NewListObjectsV2Paginator(s.svc, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, object := range page.Contents {
			if object.Key == nil {
				continue
			}
			record := &common.ObjectRecord{
				Bucket:        bucket,
				Key:           *object.Key,
				Size:          aws.ToInt64(object.Size),
				StorageClass:  classFromAPI(string(object.StorageClass)),
				RestoreState:  common.RestoreNone,
				LastRefreshed: now,
			}
			if object.LastModified != nil {
				record.LastModified = *object.LastModified
			}
			records = append(records, record)
		}
	}
	return records, nil
}

// HeadObject refreshes one object's metadata, including the parsed
// x-amz-restore status.
func (s *S3) HeadObject(ctx context.Context, bucket, key string) (*common.ObjectRecord, error) {
	if s.svc == nil {
		return nil, common.ErrNotConfigured
	}

	head, err := s.svc.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}

	record := &common.ObjectRecord{
		Bucket:        bucket,
		Key:           key,
		Size:          aws.ToInt64(head.ContentLength),
		StorageClass:  classFromAPI(string(head.StorageClass)),
		LastRefreshed: time.Now(),
	}
	if head.LastModified != nil {
		record.LastModified = *head.LastModified
	}
	record.RestoreState, record.RestoreExpiry = parseRestoreHeader(aws.ToString(head.Restore))
	return record, nil
}

// CopyObjectWithClassOverride rewrites the object onto itself with the
// destination storage class, preserving metadata.
func (s *S3) CopyObjectWithClassOverride(ctx context.Context, bucket, key string, class common.StorageClass) error {
	if s.svc == nil {
		return common.ErrNotConfigured
	}

	source := url.PathEscape(bucket + "/" + key)
	_, err := s.svc.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(bucket),
		Key:               aws.String(key),
		CopySource:        aws.String(source),
		StorageClass:      types.StorageClass(class),
		MetadataDirective: types.MetadataDirectiveCopy,
	})
	return err
}

// RequestRestore asks S3 to stage a temporary copy of an archived
// object for the given number of days. Completion is asynchronous;
// progress shows up in the x-amz-restore header on HeadObject.
func (s *S3) RequestRestore(ctx context.Context, bucket, key string, days int) error {
	if s.svc == nil {
		return common.ErrNotConfigured
	}
	if days <= 0 {
		days = common.DefaultRestoreDays
	}

	_, err := s.svc.RestoreObject(ctx, &s3.RestoreObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		RestoreRequest: &types.RestoreRequest{
			Days: aws.Int32(int32(days)),
		},
	})
	return err
}

// classFromAPI maps the API's storage class string onto the canonical
// set, defaulting to STANDARD when the API omits it.
func classFromAPI(raw string) common.StorageClass {
	if raw == "" {
		return common.ClassStandard
	}
	return common.StorageClass(raw)
}

// parseRestoreHeader decodes the x-amz-restore header, e.g.
//
//	ongoing-request="true"
//	ongoing-request="false", expiry-date="Fri, 21 Dec 2012 00:00:00 GMT"
//
// into a restore state and optional expiry.
func parseRestoreHeader(raw string) (common.RestoreState, time.Time) {
	if raw == "" {
		return common.RestoreNone, time.Time{}
	}

	lower := strings.ToLower(raw)
	if strings.Contains(lower, `ongoing-request="true"`) {
		return common.RestoreInProgress, time.Time{}
	}
	if strings.Contains(lower, `ongoing-request="false"`) {
		if expiry, ok := parseExpiryDate(raw); ok {
			return common.RestoreAvailable, expiry
		}
		return common.RestoreAvailable, time.Time{}
	}
	return common.RestoreNone, time.Time{}
}

func parseExpiryDate(raw string) (time.Time, bool) {
	const marker = `expiry-date="`
	start := strings.Index(raw, marker)
	if start < 0 {
		return time.Time{}, false
	}
	rest := raw[start+len(marker):]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return time.Time{}, false
	}
	expiry, err := time.Parse(time.RFC1123, rest[:end])
	if err != nil {
		return time.Time{}, false
	}
	return expiry, true
}
