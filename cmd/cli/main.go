// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/kwgrid/internal/app"
	"github.com/vk/kwgrid/internal/cli"
	"github.com/vk/kwgrid/internal/exitcodes"
	"github.com/vk/kwgrid/internal/hcl_adapter"
)

// main is the entrypoint for the kwgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()

	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			fmt.Fprintln(os.Stderr, exitErr.Message)
		}
		os.Exit(exitErr.Code)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitcodes.InternalError)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling. Every outcome other than success is an *cli.ExitError carrying
// the exit code, including failed tests.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return &cli.ExitError{Code: exitcodes.Help}
	}

	// A library that fails validation panics; report it as an internal
	// error instead of crashing.
	defer func() {
		if r := recover(); r != nil {
			err = &cli.ExitError{
				Code:    exitcodes.InternalError,
				Message: fmt.Sprintf("application startup panicked: %v", r),
			}
		}
	}()

	kwgrid, err := app.NewApp(outW, cfg, hcl_adapter.NewLoader())
	if err != nil {
		return &cli.ExitError{Code: exitcodes.InvalidData, Message: err.Error()}
	}

	res, err := kwgrid.Run(ctx)
	if err != nil {
		return &cli.ExitError{Code: exitcodes.InvalidData, Message: err.Error()}
	}
	if code := app.ExitCode(ctx, res); code != exitcodes.Success {
		return &cli.ExitError{Code: code}
	}
	return nil
}
