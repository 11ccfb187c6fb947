// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package socketio

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWire_Conversions(t *testing.T) {
	testCases := []struct {
		name string
		in   any
		out  any
	}{
		{"none string", "None", nil},
		{"text", "hello", "hello"},
		{"int", 3, int64(3)},
		{"float", 1.5, 1.5},
		{"nested", map[string]any{"a": []any{1, "x", true}}, map[string]any{"a": []any{int64(1), "x", true}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := toWire(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.out, got)
		})
	}
}

func TestWire_ReceivedDataBecomesEngineValues(t *testing.T) {
	got, err := fromWire(map[string]any{"count": float64(2), "ratio": 0.5, "tags": []any{"a"}, "none": nil})
	require.NoError(t, err)
	require.Equal(t, map[string]any{"count": 2, "ratio": 0.5, "tags": []any{"a"}, "none": nil}, got)

	_, err = fromWire(struct{}{})
	require.Error(t, err)
}

func TestLibrary_RequiresConnection(t *testing.T) {
	lib := New()

	_, err := lib.RunKeyword(context.Background(), "Emit", []any{"ping", nil}, nil)
	require.EqualError(t, err, "Not connected. Use 'Connect' first.")

	_, err = lib.RunKeyword(context.Background(), "Wait For Event", []any{"pong", time.Second}, nil)
	require.EqualError(t, err, "Not connected. Use 'Connect' first.")

	_, err = lib.RunKeyword(context.Background(), "Disconnect", nil, nil)
	require.NoError(t, err)
}

func TestLibrary_ConnectFailures(t *testing.T) {
	lib := New()

	_, err := lib.RunKeyword(context.Background(), "Connect", []any{"not a url", "/", false, time.Second}, nil)
	require.EqualError(t, err, "Invalid Socket.IO URL 'not a url'.")

	// A listener that is closed right away gives a port nothing listens on.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	_, err = lib.RunKeyword(context.Background(), "Connect", []any{"http://" + addr, "/", false, 2 * time.Second}, nil)
	require.Error(t, err)
	require.NoError(t, lib.Close(context.Background()))
}
