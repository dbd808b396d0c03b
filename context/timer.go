// SPDX-FileCopyrightText: 2025 Intel Corporation
// Copyright 2019 free5GC.org
//
// SPDX-License-Identifier: Apache-2.0

package context

import (
	"context"
	"time"

	"github.com/omec-project/gnbrrc/logger"
)

// Timer wraps a periodic ticker and cancellation context
// for safe and efficient resource management.
type Timer struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPeriodicTimer calls fn every d until Stop is called or parent is done.
func NewPeriodicTimer(parent context.Context, d time.Duration, fn func()) *Timer {
	ctx, cancel := context.WithCancel(parent)
	t := &Timer{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(t.done)
		defer func() {
			if p := recover(); p != nil {
				logger.CtxLog.Errorf("periodic timer panic: %v", p)
			}
		}()
		ticker := time.NewTicker(d)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	return t
}

// Stop cancels the timer and waits for a running callback to return.
func (t *Timer) Stop() {
	if t.cancel != nil {
		t.cancel()
		<-t.done
	}
}
