package backend

import (
	"container/list"
	"context"
	"sync"

	"github.com/tOgg1/mosaic/internal/models"
)

// CachingClient remembers next/previous answers. Neighbor relations are
// stable for a browsing session, so repeated walks over the same stretch of
// the timeline cost no round trips. Reference-free and timestamp lookups are
// never cached.
type CachingClient struct {
	Client
	cache *neighborCache
}

// NewCachingClient wraps client with an LRU of the given capacity.
func NewCachingClient(client Client, capacity int) *CachingClient {
	return &CachingClient{Client: client, cache: newNeighborCache(capacity)}
}

// Navigate implements Navigator.
func (c *CachingClient) Navigate(ctx context.Context, req models.NavRequest) (*models.WireItem, error) {
	if req.Selector != models.SelectorNext && req.Selector != models.SelectorPrevious {
		return c.Client.Navigate(ctx, req)
	}
	key := string(req.Selector) + "\x00" + req.Key
	if item, ok := c.cache.get(key); ok {
		return item, nil
	}
	item, err := c.Client.Navigate(ctx, req)
	// An echoed reference marks the current end of data, which moves as
	// items are added.
	if err != nil || item == nil || item.Key == req.Key {
		return item, err
	}
	c.cache.put(key, *item)
	return item, nil
}

// Len returns the number of cached answers.
func (c *CachingClient) Len() int {
	return c.cache.len()
}

const defaultNeighborCacheSize = 4096

type neighborCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
}

type neighborCacheEntry struct {
	key  string
	item models.WireItem
}

func newNeighborCache(capacity int) *neighborCache {
	if capacity <= 0 {
		capacity = defaultNeighborCacheSize
	}
	return &neighborCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
	}
}

func (c *neighborCache) get(key string) (*models.WireItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(elem)
	item := cloneItem(elem.Value.(*neighborCacheEntry).item)
	return &item, true
}

func (c *neighborCache) put(key string, item models.WireItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*neighborCacheEntry).item = cloneItem(item)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&neighborCacheEntry{key: key, item: cloneItem(item)})
	c.entries[key] = elem

	for c.order.Len() > c.capacity {
		last := c.order.Back()
		if last == nil {
			break
		}
		c.order.Remove(last)
		delete(c.entries, last.Value.(*neighborCacheEntry).key)
	}
}

func (c *neighborCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func cloneItem(item models.WireItem) models.WireItem {
	if item.Metadata != nil {
		meta := *item.Metadata
		item.Metadata = &meta
	}
	return item
}
