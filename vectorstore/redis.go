package vectorstore

import (
	"context"
	"encoding/json"
	"path"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// The redis index keeps entries under the prefix:
// - `/<prefix>/vectorstore/entries` list of JSON encoded entries
// - `/<prefix>/vectorstore/hashes` set of content hashes

// RedisIndex is an Index backed by Redis.
type RedisIndex struct {
	client redis.UniversalClient
	prefix string
}

var _ Index = (*RedisIndex)(nil)

// NewRedisIndex returns an Index backed by Redis.
func NewRedisIndex(client redis.UniversalClient, prefix string) *RedisIndex {
	return &RedisIndex{
		client: client,
		prefix: prefix,
	}
}

func (r *RedisIndex) entriesKey() string {
	return path.Join(r.prefix, "vectorstore", "entries")
}

func (r *RedisIndex) hashesKey() string {
	return path.Join(r.prefix, "vectorstore", "hashes")
}

// Name returns the index name.
func (r *RedisIndex) Name() string {
	return "redis"
}

// Add stores the documents.
func (r *RedisIndex) Add(ctx context.Context, docs []Document, vectors [][]float32) error {
	if err := checkAdd(docs, vectors); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	entries := make([]any, 0, len(docs))
	hashes := make([]any, 0, len(docs))
	for i := range docs {
		js, err := json.Marshal(Entry{Document: docs[i], Vector: vectors[i]})
		if err != nil {
			return errors.Wrap(err, "failed to encode entry")
		}
		entries = append(entries, js)
		hashes = append(hashes, strconv.FormatUint(docs[i].Hash(), 16))
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, r.entriesKey(), entries...)
		pipe.SAdd(ctx, r.hashesKey(), hashes...)
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "failed to add entries to Redis")
	}
	return nil
}

// Search loads the entries and returns the k most similar documents.
func (r *RedisIndex) Search(ctx context.Context, vector []float32, k int) ([]Match, error) {
	data, err := r.client.LRange(ctx, r.entriesKey(), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get entries from Redis")
	}

	entries := make([]Entry, 0, len(data))
	for _, item := range data {
		var e Entry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			logger.ContextKV(ctx, xlog.ERROR, "reason", "unmarshal entry", "err", err.Error())
			continue
		}
		entries = append(entries, e)
	}
	return rank(entries, vector, k)
}

// Len returns the number of documents.
func (r *RedisIndex) Len(ctx context.Context) (int, error) {
	n, err := r.client.LLen(ctx, r.entriesKey()).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get index size from Redis")
	}
	return int(n), nil
}

// Contains reports if the content hash is indexed.
func (r *RedisIndex) Contains(ctx context.Context, hash uint64) (bool, error) {
	ok, err := r.client.SIsMember(ctx, r.hashesKey(), strconv.FormatUint(hash, 16)).Result()
	if err != nil {
		return false, errors.Wrap(err, "failed to check hash in Redis")
	}
	return ok, nil
}
