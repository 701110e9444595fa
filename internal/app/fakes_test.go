package app_test

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/okian/crease/internal/adapters/httpclient"
)

type getFunc func(ctx context.Context) (json.RawMessage, error)

// fakeFetcher scripts store replies per path.
type fakeFetcher struct {
	mu    sync.Mutex
	gets  map[string][]getFunc
	calls map[string]int
	post  func(body any) (httpclient.Response, error)
	posts []any
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{gets: map[string][]getFunc{}, calls: map[string]int{}}
}

// onGet queues replies for path. The last reply repeats.
func (f *fakeFetcher) onGet(path string, replies ...getFunc) *fakeFetcher {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets[path] = append(f.gets[path], replies...)
	return f
}

func (f *fakeFetcher) GetJSON(ctx context.Context, path string) (json.RawMessage, error) {
	f.mu.Lock()
	replies := f.gets[path]
	n := f.calls[path]
	f.calls[path]++
	f.mu.Unlock()

	if len(replies) == 0 {
		return json.RawMessage(`[]`), nil
	}
	return replies[min(n, len(replies)-1)](ctx)
}

func (f *fakeFetcher) PostJSON(_ context.Context, _ string, body any) (httpclient.Response, error) {
	f.mu.Lock()
	f.posts = append(f.posts, body)
	post := f.post
	f.mu.Unlock()
	if post == nil {
		return httpclient.Response{StatusCode: 201, Body: json.RawMessage(`{"message":"Data added in-memory","alerts":[]}`)}, nil
	}
	return post(body)
}

func (f *fakeFetcher) callCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func reply(body string) getFunc {
	return func(context.Context) (json.RawMessage, error) { return json.RawMessage(body), nil }
}

func fail(err error) getFunc {
	return func(context.Context) (json.RawMessage, error) { return nil, err }
}

func statusError(path string, code int, status string) error {
	return &httpclient.TransportError{Method: "GET", Path: path, StatusCode: code, Status: status}
}

// fakeClock fires scheduled funcs only when told to.
type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []func()
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, f)
	return func() bool { return false }
}

func (c *fakeClock) fireOldest() {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	f := c.pending[0]
	c.pending = c.pending[1:]
	c.mu.Unlock()
	f()
}

func (c *fakeClock) fireAll() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()
	for _, f := range pending {
		f()
	}
}
