// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package http_client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/library"
)

const defaultTimeout = 30 * time.Second

// Library is one HttpClient instance. It owns a live *http.Client shared by
// all keywords of its scope.
type Library struct {
	*library.Static

	mu     sync.Mutex
	client *http.Client
	last   *Response
}

var _ library.Closer = (*Library)(nil)

// New creates a library instance with a pooled client.
func New(ctx context.Context, timeout time.Duration) (*Library, error) {
	l := &Library{
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	l.Static = library.NewStatic(LibraryName, l.keywords()...)
	ctxlog.FromContext(ctx).Debug("HTTP client created.", "timeout", timeout)
	return l, nil
}

// Close releases the idle connections of the client.
func (l *Library) Close(ctx context.Context) error {
	ctxlog.FromContext(ctx).Debug("Closing HTTP client idle connections.")
	l.client.CloseIdleConnections()
	return nil
}

func (l *Library) setTimeout(d time.Duration) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	old := l.client.Timeout
	l.client.Timeout = d
	return old
}

func (l *Library) remember(resp *Response) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = resp
}

func (l *Library) lastResponse() *Response {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}
