package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/huggingface/videoset/blobstore"
)

// CommitStore implements blobstore.BlobStore backed by S3 with DynamoDB
// for atomic CURRENT updates. This makes dataset publication safe against
// concurrent publishers of the same handle.
//
// S3 lacks compare-and-swap, so flipping the CURRENT pointer through a
// plain PutObject can silently drop a concurrent publish. The commit
// store keeps all data blobs in S3 and records CURRENT pointer versions
// in a DynamoDB table using conditional writes. One row per dataset
// prefix, versions monotonically increasing.
//
// Table schema:
//   - Partition key: dataset_uri (string) - "bucket/prefix/namespace/name"
//   - Sort key: version (number) - monotonically increasing
//
// Create the table with:
//
//	aws dynamodb create-table \
//	  --table-name videoset-commits \
//	  --attribute-definitions AttributeName=dataset_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=dataset_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	s3Store   *Store
	ddbClient DDBClient
	tableName string
}

// DDBClient is the subset of the DynamoDB API the commit store uses.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// ErrConcurrentPublish is returned when another publisher committed the
// same dataset version first.
var ErrConcurrentPublish = errors.New("concurrent publish detected")

// NewCommitStore wraps an S3 store with DynamoDB-coordinated commits.
func NewCommitStore(s3Store *Store, ddbClient DDBClient, tableName string) *CommitStore {
	return &CommitStore{
		s3Store:   s3Store,
		ddbClient: ddbClient,
		tableName: tableName,
	}
}

// isCurrentPointer reports whether the blob name is a dataset CURRENT
// pointer ("namespace/name/CURRENT").
func isCurrentPointer(name string) bool {
	return path.Base(name) == "CURRENT"
}

// datasetURI is the DynamoDB partition key for a CURRENT pointer.
func (s *CommitStore) datasetURI(name string) string {
	return path.Join(s.s3Store.bucket, s.s3Store.prefix, path.Dir(name))
}

// Open opens a blob for reading. CURRENT pointers are resolved from
// DynamoDB; everything else comes from S3.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if !isCurrentPointer(name) {
		return s.s3Store.Open(ctx, name)
	}

	version, manifestName, err := s.latestVersion(ctx, s.datasetURI(name))
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, fmt.Errorf("blob %q: %w", name, blobstore.ErrNotFound)
	}
	return &pointerBlob{content: []byte(manifestName)}, nil
}

// Put writes a blob. CURRENT pointers go through a DynamoDB conditional
// write; everything else is a plain S3 put.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if !isCurrentPointer(name) {
		return s.s3Store.Put(ctx, name, data)
	}
	return s.commit(ctx, s.datasetURI(name), string(data))
}

// Create creates a streaming blob in S3.
func (s *CommitStore) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	return s.s3Store.Create(ctx, name)
}

// Delete removes a blob from S3. Commit history rows are retained as an
// audit trail.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	return s.s3Store.Delete(ctx, name)
}

// List lists S3 blobs under the prefix.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.s3Store.List(ctx, prefix)
}

// latestVersion queries DynamoDB for the newest committed pointer.
func (s *CommitStore) latestVersion(ctx context.Context, uri string) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("dataset_uri = :uri"),
		ExpressionAttributeValues: map[string]ddbtypes.AttributeValue{
			":uri": &ddbtypes.AttributeValueMemberS{Value: uri},
		},
		ScanIndexForward: aws.Bool(false), // newest first
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("query commit table: %w", err)
	}
	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*ddbtypes.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("commit table: invalid version attribute")
	}
	manifestAttr, ok := item["manifest"].(*ddbtypes.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("commit table: invalid manifest attribute")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("commit table: parse version: %w", err)
	}
	return version, manifestAttr.Value, nil
}

// commit writes version latest+1 with a condition that the row does not
// exist yet. A racing publisher loses with ErrConcurrentPublish.
func (s *CommitStore) commit(ctx context.Context, uri, manifestName string) error {
	latest, _, err := s.latestVersion(ctx, uri)
	if err != nil {
		return err
	}
	next := latest + 1

	_, err = s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]ddbtypes.AttributeValue{
			"dataset_uri": &ddbtypes.AttributeValueMemberS{Value: uri},
			"version":     &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(next, 10)},
			"manifest":    &ddbtypes.AttributeValueMemberS{Value: manifestName},
		},
		ConditionExpression: aws.String("attribute_not_exists(dataset_uri) AND attribute_not_exists(version)"),
	})
	if err != nil {
		var ccf *ddbtypes.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("%w: version %d already committed", ErrConcurrentPublish, next)
		}
		return fmt.Errorf("commit table: put version %d: %w", next, err)
	}
	return nil
}

// pointerBlob serves a resolved CURRENT pointer from memory.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *pointerBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	if off >= int64(len(b.content)) {
		return io.NopCloser(strings.NewReader("")), nil
	}
	end := min(off+length, int64(len(b.content)))
	return io.NopCloser(strings.NewReader(string(b.content[off:end]))), nil
}

func (b *pointerBlob) Size() int64 {
	return int64(len(b.content))
}

func (b *pointerBlob) Close() error {
	return nil
}
