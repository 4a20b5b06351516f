package s3

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"github.com/huggingface/videoset/blobstore"
)

// fakeDDB implements DDBClient with conditional-write semantics.
type fakeDDB struct {
	mu    sync.Mutex
	items map[string]map[uint64]string // dataset_uri -> version -> manifest

	// staleReads makes the next N queries report one version behind,
	// simulating a racing publisher committing between read and write.
	staleReads int
}

func newFakeDDB() *fakeDDB {
	return &fakeDDB{items: make(map[string]map[uint64]string)}
}

func (f *fakeDDB) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uri := in.Item["dataset_uri"].(*ddbtypes.AttributeValueMemberS).Value
	version, err := strconv.ParseUint(in.Item["version"].(*ddbtypes.AttributeValueMemberN).Value, 10, 64)
	if err != nil {
		return nil, err
	}
	manifest := in.Item["manifest"].(*ddbtypes.AttributeValueMemberS).Value

	if _, exists := f.items[uri][version]; exists {
		return nil, &ddbtypes.ConditionalCheckFailedException{}
	}
	if f.items[uri] == nil {
		f.items[uri] = make(map[uint64]string)
	}
	f.items[uri][version] = manifest
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDDB) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	uri := in.ExpressionAttributeValues[":uri"].(*ddbtypes.AttributeValueMemberS).Value
	versions := f.items[uri]
	if len(versions) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}

	var sorted []uint64
	for v := range versions {
		sorted = append(sorted, v)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] > sorted[j] })

	latest := sorted[0]
	if f.staleReads > 0 && latest > 0 {
		f.staleReads--
		latest--
		if latest == 0 {
			return &dynamodb.QueryOutput{}, nil
		}
	}
	return &dynamodb.QueryOutput{
		Items: []map[string]ddbtypes.AttributeValue{{
			"dataset_uri": &ddbtypes.AttributeValueMemberS{Value: uri},
			"version":     &ddbtypes.AttributeValueMemberN{Value: strconv.FormatUint(latest, 10)},
			"manifest":    &ddbtypes.AttributeValueMemberS{Value: versions[latest]},
		}},
	}, nil
}

func newTestCommitStore() (*CommitStore, *fakeClient, *fakeDDB) {
	s3Client := newFakeClient()
	ddb := newFakeDDB()
	store := NewCommitStore(NewStore(s3Client, "bucket"), ddb, "videoset-commits")
	return store, s3Client, ddb
}

func TestCommitStoreCurrentRoundTrip(t *testing.T) {
	store, _, _ := newTestCommitStore()
	ctx := context.Background()

	// No commit yet: CURRENT does not resolve.
	_, err := store.Open(ctx, "ns/ds/CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, store.Put(ctx, "ns/ds/CURRENT", []byte("MANIFEST-000001.json")))

	got, err := blobstore.ReadAll(ctx, store, "ns/ds/CURRENT")
	require.NoError(t, err)
	require.Equal(t, "MANIFEST-000001.json", string(got))

	// A second commit becomes the new CURRENT.
	require.NoError(t, store.Put(ctx, "ns/ds/CURRENT", []byte("MANIFEST-000002.json")))

	got, err = blobstore.ReadAll(ctx, store, "ns/ds/CURRENT")
	require.NoError(t, err)
	require.Equal(t, "MANIFEST-000002.json", string(got))
}

func TestCommitStoreIsolatesDatasets(t *testing.T) {
	store, _, _ := newTestCommitStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ns/one/CURRENT", []byte("MANIFEST-000001.json")))

	_, err := store.Open(ctx, "ns/two/CURRENT")
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestCommitStoreConcurrentPublish(t *testing.T) {
	store, _, ddb := newTestCommitStore()
	ctx := context.Background()

	// A racing publisher already committed version 1.
	require.NoError(t, store.Put(ctx, "ns/ds/CURRENT", []byte("MANIFEST-000001.json")))

	// Our publisher reads a stale snapshot (no commit visible yet) and
	// tries to claim version 1 too. The conditional write must reject it.
	ddb.staleReads = 1
	err := store.Put(ctx, "ns/ds/CURRENT", []byte("MANIFEST-000001b.json"))
	require.ErrorIs(t, err, ErrConcurrentPublish)

	// The winning commit stays CURRENT.
	got, err := blobstore.ReadAll(ctx, store, "ns/ds/CURRENT")
	require.NoError(t, err)
	require.Equal(t, "MANIFEST-000001.json", string(got))
}

func TestCommitStoreDataBlobsPassThrough(t *testing.T) {
	store, s3Client, _ := newTestCommitStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "ns/ds/0000/a.mp4", []byte("video")))
	require.Contains(t, s3Client.objects, "ns/ds/0000/a.mp4")

	got, err := blobstore.ReadAll(ctx, store, "ns/ds/0000/a.mp4")
	require.NoError(t, err)
	require.Equal(t, "video", string(got))
}
