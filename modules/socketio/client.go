// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/vk/kwgrid/internal/ctxlog"
	"github.com/vk/kwgrid/internal/kwerrors"
	"github.com/vk/kwgrid/internal/library"
	"github.com/vk/kwgrid/internal/literal"
	"github.com/vk/kwgrid/internal/timestr"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Library is one SocketIO instance holding at most one connection.
type Library struct {
	*library.Static

	mu sync.Mutex
	io *socket.Socket
}

var _ library.Closer = (*Library)(nil)

// New returns a disconnected library instance.
func New() *Library {
	l := &Library{}
	l.Static = library.NewStatic(LibraryName, l.keywords()...)
	return l
}

// Close disconnects the client if it is connected.
func (l *Library) Close(ctx context.Context) error {
	l.mu.Lock()
	io := l.io
	l.io = nil
	l.mu.Unlock()
	if io != nil {
		ctxlog.FromContext(ctx).Info("Destroying socket.io client instance.", "sid", io.Id())
		io.Disconnect()
	}
	return nil
}

func (l *Library) keywords() []*library.Keyword {
	return []*library.Keyword{
		{
			Name:  "Connect",
			Args:  []string{"url", "namespace=/", "insecure_skip_verify=False", "timeout=15s"},
			Types: map[string]string{"insecure_skip_verify": "bool", "timeout": "timedelta"},
			Doc:   "Connects to a Socket.IO server. An existing connection is closed first.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				return nil, l.connect(ctx, literal.ToString(c.Arg(0)), literal.ToString(c.Arg(1)), c.Arg(2) == true, c.Arg(3).(time.Duration))
			},
		},
		{
			Name: "Emit",
			Args: []string{"event", "data=None"},
			Doc:  "Emits an event without waiting for anything.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				io, err := l.client()
				if err != nil {
					return nil, err
				}
				return nil, emit(ctx, io, literal.ToString(c.Arg(0)), c.Arg(1))
			},
		},
		{
			Name:  "Emit And Wait",
			Args:  []string{"emit_event", "on_event", "data=None", "timeout=10s"},
			Types: map[string]string{"timeout": "timedelta"},
			Doc:   "Emits an event and returns the data of the first on_event received afterwards.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				emitEvent := literal.ToString(c.Arg(0))
				data := c.Arg(2)
				return l.waitFor(ctx, literal.ToString(c.Arg(1)), c.Arg(3).(time.Duration), func(io *socket.Socket) error {
					return emit(ctx, io, emitEvent, data)
				})
			},
		},
		{
			Name:  "Wait For Event",
			Args:  []string{"event", "timeout=10s"},
			Types: map[string]string{"timeout": "timedelta"},
			Doc:   "Waits for an event and returns its data.",
			Run: func(ctx context.Context, c library.Call) (any, error) {
				return l.waitFor(ctx, literal.ToString(c.Arg(0)), c.Arg(1).(time.Duration), nil)
			},
		},
		{
			Name: "Disconnect",
			Doc:  "Closes the connection. Does nothing when not connected.",
			Run: func(ctx context.Context, _ library.Call) (any, error) {
				return nil, l.Close(ctx)
			},
		},
	}
}

func (l *Library) client() (*socket.Socket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.io == nil || !l.io.Connected() {
		return nil, kwerrors.Failf("Not connected. Use 'Connect' first.")
	}
	return l.io, nil
}

func (l *Library) connect(ctx context.Context, rawURL, namespace string, insecure bool, timeout time.Duration) error {
	if err := l.Close(ctx); err != nil {
		return err
	}
	logger := ctxlog.FromContext(ctx).With("url", rawURL, "namespace", namespace)
	logger.Info("Creating new client instance.")

	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" {
		return kwerrors.Failf("Invalid Socket.IO URL '%s'.", rawURL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if insecure {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Successfully connected.", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		logger.Debug("Connection error received.", "error", err)
		connected <- err
	})

	io.Connect()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return kwerrors.Failf("Connecting to '%s' failed: %s", rawURL, err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return context.Cause(ctx)
	case <-timer.C:
		io.Disconnect()
		return kwerrors.Failf("Connecting to '%s' timed out after %s.", rawURL, timestr.Format(timeout))
	}

	l.mu.Lock()
	l.io = io
	l.mu.Unlock()
	return nil
}

type opResult struct {
	value any
	err   error
}

// waitFor registers a one-shot handler for event, runs before and waits for
// the event.
func (l *Library) waitFor(ctx context.Context, event string, timeout time.Duration, before func(*socket.Socket) error) (any, error) {
	io, err := l.client()
	if err != nil {
		return nil, err
	}
	logger := ctxlog.FromContext(ctx).With("sid", io.Id(), "event", event)

	done := make(chan opResult, 1)
	io.Once(types.EventName(event), func(data ...any) {
		logger.Debug("Event received.")
		var payload any
		if len(data) > 0 {
			payload = data[0]
		}
		v, err := fromWire(payload)
		done <- opResult{value: v, err: err}
	})
	if before != nil {
		if err := before(io); err != nil {
			return nil, err
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-done:
		if res.err != nil {
			return nil, kwerrors.Failf("Converting data of event '%s' failed: %s", event, res.err)
		}
		logger.Info("Successfully received response event.")
		return res.value, nil
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	case <-timer.C:
		return nil, kwerrors.Failf("Timed out after %s waiting for event '%s'.", timestr.Format(timeout), event)
	}
}

func emit(ctx context.Context, io *socket.Socket, event string, data any) error {
	payload, err := toWire(data)
	if err != nil {
		return kwerrors.Failf("Converting data of event '%s' failed: %s", event, err)
	}
	ctxlog.FromContext(ctx).Info("Emitting event.", "event", event, "data", literal.Repr(data))
	if payload == nil {
		io.Emit(event)
		return nil
	}
	io.Emit(event, payload)
	return nil
}
