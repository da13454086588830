// Package cache provides a weight bounded LRU cache whose entries expire.
package cache

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Cache stores values by key, evicting the least recently used entries once
// the total weight exceeds the budget.
type Cache interface {
	// Insert adds or replaces the value for key.
	Insert(key string, value interface{}, weight int)

	// Retrieve returns the value for key if it exists and hasn't expired.
	Retrieve(key string) (interface{}, bool)

	// Delete removes key from the cache.
	Delete(key string)

	// Clear removes all entries.
	Clear()

	// GetWeight returns the current total weight of entries.
	GetWeight() int

	// GetBudget returns the maximum total weight of entries.
	GetBudget() int
}

type cacheNode struct {
	next   *cacheNode
	prev   *cacheNode
	key    string
	value  interface{}
	weight int
	expiry time.Time
}

type cache struct {
	log *logrus.Entry
	now func() time.Time

	mu     sync.Mutex
	head   *cacheNode
	tail   *cacheNode
	lookup map[string]*cacheNode
	weight int
	budget int
	ttl    time.Duration
}

// New returns a cache holding up to budget total weight, with entries valid
// for ttl after insertion. A zero ttl never expires entries.
func New(budget int, ttl time.Duration) Cache {
	return newCache(budget, ttl, time.Now)
}

func newCache(budget int, ttl time.Duration, now func() time.Time) *cache {
	return &cache{
		log:    logrus.StandardLogger().WithField("type", "cache"),
		now:    now,
		lookup: make(map[string]*cacheNode),
		budget: budget,
		ttl:    ttl,
	}
}

func (c *cache) Insert(key string, value interface{}, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.lookup[key]; ok {
		c.remove(existing)
	}

	node := &cacheNode{
		key:    key,
		value:  value,
		weight: weight,
	}
	if c.ttl > 0 {
		node.expiry = c.now().Add(c.ttl)
	}

	c.pushFront(node)
	c.lookup[key] = node
	c.weight += weight

	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		c.remove(evicted)

		c.log.WithFields(logrus.Fields{
			"key":          evicted.key,
			"weight":       evicted.weight,
			"spare_weight": c.budget - c.weight,
		}).Trace("evicted entry")
	}
}

func (c *cache) Retrieve(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	node, ok := c.lookup[key]
	if !ok {
		return nil, false
	}

	if !node.expiry.IsZero() && !c.now().Before(node.expiry) {
		c.remove(node)
		return nil, false
	}

	if node != c.head {
		c.unlink(node)
		c.pushFront(node)
	}

	return node.value, true
}

func (c *cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if node, ok := c.lookup[key]; ok {
		c.remove(node)
	}
}

func (c *cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*cacheNode)
	c.weight = 0
}

func (c *cache) GetWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.weight
}

func (c *cache) GetBudget() int {
	return c.budget
}

func (c *cache) pushFront(node *cacheNode) {
	node.prev = nil
	node.next = c.head
	if c.head != nil {
		c.head.prev = node
	}
	c.head = node
	if c.tail == nil {
		c.tail = node
	}
}

func (c *cache) unlink(node *cacheNode) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		c.head = node.next
	}
	if node.next != nil {
		node.next.prev = node.prev
	} else {
		c.tail = node.prev
	}
	node.next = nil
	node.prev = nil
}

func (c *cache) remove(node *cacheNode) {
	c.unlink(node)
	delete(c.lookup, node.key)
	c.weight -= node.weight
}
