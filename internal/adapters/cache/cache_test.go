package cache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conferencecentral/internal/domain"
)

// fakeDynamo keeps items in memory keyed by table and pk.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue
	err   error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	pk := in.Item["pk"].(*types.AttributeValueMemberS).Value
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[aws.ToString(in.TableName)+"/"+pk] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	pk := in.Key["pk"].(*types.AttributeValueMemberS).Value
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[aws.ToString(in.TableName)+"/"+pk]}, nil
}

// exerciseCache checks the behavior every domain.Cache must share.
func exerciseCache(t *testing.T, c domain.Cache) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "announcement", []byte("Last chance")))
	got, ok, err := c.Get(ctx, "announcement")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Last chance", string(got))

	require.NoError(t, c.Set(ctx, "announcement", []byte{}))
	got, ok, err = c.Get(ctx, "announcement")
	require.NoError(t, err)
	require.True(t, ok, "an empty value is a hit")
	assert.Empty(t, got)
}

func TestBadger(t *testing.T) {
	b, err := OpenBadger("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	exerciseCache(t, b)
}

func TestBadger_OnDisk(t *testing.T) {
	dir := t.TempDir()
	b, err := OpenBadger(dir)
	require.NoError(t, err)
	require.NoError(t, b.Set(context.Background(), "k", []byte("v")))
	require.NoError(t, b.Close())

	reopened, err := OpenBadger(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	got, ok, err := reopened.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v", string(got))
}

func TestDynamo(t *testing.T) {
	exerciseCache(t, NewDynamo(newFakeDynamo(), "cache"))
}

func TestDynamo_Error(t *testing.T) {
	client := newFakeDynamo()
	client.err = errors.New("throttled")
	c := NewDynamo(client, "cache")
	require.Error(t, c.Set(context.Background(), "k", []byte("v")))
	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
}
