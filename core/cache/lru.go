package cache

import (
	"container/list"
	"sync"
	"time"
)

type LRUOpts struct {
	// Size is the maximum number of entries. Defaults to 128.
	Size int
	// Now is the clock used for TTL checks. Defaults to time.Now.
	Now func() time.Time
}

// Stats reports cache effectiveness since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Len       int
}

type entry struct {
	key     string
	val     any
	expires time.Time
}

func (e *entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

type getReq struct {
	key  string
	resp chan getResp
}

type getResp struct {
	val any
	ok  bool
}

type putReq struct {
	key  string
	val  any
	opts []PutOption
}

// LRU is a size-bounded cache whose state is owned by a single goroutine.
// Callers communicate with it over channels, so no locking is needed.
type LRU struct {
	getCh   chan getReq
	putCh   chan putReq
	statsCh chan chan Stats

	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

func NewLRU(opts LRUOpts) *LRU {
	if opts.Size <= 0 {
		opts.Size = 128
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	l := &LRU{
		getCh:   make(chan getReq),
		putCh:   make(chan putReq),
		statsCh: make(chan chan Stats),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}

	go l.run(opts)

	return l
}

// Get returns the value stored under key. Expired entries are evicted on
// access. After Close every lookup misses.
func (L *LRU) Get(key string) (any, bool) {
	resp := make(chan getResp, 1)
	select {
	case L.getCh <- getReq{key: key, resp: resp}:
	case <-L.done:
		return nil, false
	}
	r := <-resp
	return r.val, r.ok
}

func (L *LRU) Put(key string, val any, opts ...PutOption) {
	select {
	case L.putCh <- putReq{key: key, val: val, opts: opts}:
	case <-L.done:
	}
}

func (L *LRU) Stats() Stats {
	resp := make(chan Stats, 1)
	select {
	case L.statsCh <- resp:
	case <-L.done:
		return Stats{}
	}
	return <-resp
}

// Close stops the owning goroutine and waits for it to exit. It is safe to
// call more than once.
func (L *LRU) Close() {
	L.closeOnce.Do(func() { close(L.done) })
	<-L.stopped
}

func (L *LRU) run(opts LRUOpts) {
	defer close(L.stopped)
	ll := list.New()
	cache := make(map[string]*list.Element)
	var stats Stats

	remove := func(ele *list.Element) {
		ll.Remove(ele)
		delete(cache, ele.Value.(*entry).key)
	}

	for {
		select {
		case <-L.done:
			return

		case req := <-L.getCh:
			ele, ok := cache[req.key]
			if ok && ele.Value.(*entry).expired(opts.Now()) {
				remove(ele)
				ok = false
			}
			if !ok {
				stats.Misses++
				req.resp <- getResp{}
				continue
			}
			stats.Hits++
			ll.MoveToFront(ele)
			req.resp <- getResp{val: ele.Value.(*entry).val, ok: true}

		case req := <-L.putCh:
			var po PutOptions
			for _, o := range req.opts {
				o(&po)
			}
			var expires time.Time
			if po.TTL > 0 {
				expires = opts.Now().Add(po.TTL)
			}

			if ele, ok := cache[req.key]; ok {
				ll.MoveToFront(ele)
				e := ele.Value.(*entry)
				e.val, e.expires = req.val, expires
				continue
			}
			cache[req.key] = ll.PushFront(&entry{key: req.key, val: req.val, expires: expires})
			if ll.Len() > opts.Size {
				if last := ll.Back(); last != nil {
					remove(last)
					stats.Evictions++
				}
			}

		case resp := <-L.statsCh:
			s := stats
			s.Len = ll.Len()
			resp <- s
		}
	}
}

var _ Cache = (*LRU)(nil)
