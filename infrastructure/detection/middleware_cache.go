package detection

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ahrav/go-vigil/internal/ports"
)

// cachedDetector serves repeated detection calls from a cache store.
// Re-running a test against the same frame and algorithm is the common
// editing loop, so hits skip the inference service entirely. Identical
// concurrent calls are collapsed into a single service invocation.
//
// The middleware owns the codec: responses are stored as JSON bytes so
// any CacheStore, including the Redis and SQLite ones, can hold them
// without knowing the type.
type cachedDetector struct {
	next  CoreDetector
	store ports.CacheStore
	ttl   time.Duration
	group singleflight.Group
}

// CacheMiddleware creates middleware that caches detection responses in
// the given store for the given TTL. A zero TTL caches without expiry.
func CacheMiddleware(store ports.CacheStore, ttl time.Duration) Middleware {
	return func(next CoreDetector) CoreDetector {
		return &cachedDetector{
			next:  next,
			store: store,
			ttl:   ttl,
		}
	}
}

// DoDetect returns a cached response when one exists, otherwise calls
// the backing service and caches the result. Cache failures never fail
// the request: a broken entry is dropped and the service is called.
func (c *cachedDetector) DoDetect(ctx context.Context, req ports.DetectionRequest) (*ports.DetectionResponse, error) {
	key := cacheKey(c.next.Provider(), req)

	if value, ok, err := c.store.Get(ctx, key); err == nil && ok {
		if resp, decodeErr := decodeCachedResponse(value); decodeErr == nil {
			return resp, nil
		}
		// The entry is unreadable; drop it and fall through to the service.
		_ = c.store.Delete(ctx, key)
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		resp, err := c.next.DoDetect(ctx, req)
		if err != nil {
			return nil, err
		}

		if encoded, encodeErr := json.Marshal(resp); encodeErr == nil {
			// Best effort: a failed write costs a future service call,
			// nothing more.
			_ = c.store.Set(ctx, key, encoded, c.ttl)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ports.DetectionResponse), nil
}

// Provider returns the provider name from the wrapped implementation.
func (c *cachedDetector) Provider() string { return c.next.Provider() }

// cacheKey derives a stable key from everything that determines the
// response: provider, algorithm, and the image by reference or content.
func cacheKey(provider string, req ports.DetectionRequest) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(req.AlgorithmID))
	h.Write([]byte{0})
	h.Write([]byte(req.ImageRef))
	h.Write([]byte{0})
	h.Write(req.ImageBytes)
	return "detection:" + hex.EncodeToString(h.Sum(nil))
}

// decodeCachedResponse turns a stored value back into a response.
// Stores return what the middleware wrote ([]byte) or its string form,
// depending on the backend.
func decodeCachedResponse(value any) (*ports.DetectionResponse, error) {
	var encoded []byte
	switch v := value.(type) {
	case []byte:
		encoded = v
	case string:
		encoded = []byte(v)
	default:
		return nil, fmt.Errorf("%w: unexpected cached type %T", ports.ErrCacheCorrupted, value)
	}

	var resp ports.DetectionResponse
	if err := json.Unmarshal(encoded, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrCacheCorrupted, err)
	}
	return &resp, nil
}
