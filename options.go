/*
 * Copyright 2022 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package jminus

import (
	"log/slog"
	"strconv"

	"github.com/cloudwego/jminus/internal/opts"
)

// Option is the property setter function for opts.Options.
type Option func(*opts.Options)

// WithRegisters sets the number of physical registers available to the
// allocator, it must be within 1 and 18.
//
// The default value of this option is "8".
func WithRegisters(n int) Option {
	return func(o *opts.Options) { o.Registers = n }
}

// WithStrategy selects the allocation strategy, one of "naive", "linear" or
// "graph".
//
// The default value of this option is "linear".
func WithStrategy(s string) Option {
	return func(o *opts.Options) { o.Strategy = s }
}

// WithMergeGap sets how many instruction slots may separate two live ranges
// of the same value before they are merged into one.
//
// Larger gaps give fewer ranges, at the cost of keeping values live across
// instructions where they are actually dead.
//
// The default value of this option is "5".
func WithMergeGap(n int) Option {
	return func(o *opts.Options) { o.MergeGap = n }
}

// WithVerify enables checking every allocation against an independently
// computed liveness before returning it.
func WithVerify(v bool) Option {
	return func(o *opts.Options) { o.Verify = v }
}

// WithLogger sets the logger used to trace allocation decisions.
func WithLogger(l *slog.Logger) Option {
	return func(o *opts.Options) { o.Logger = l }
}

// SetMaxRegisters sets the default number of physical registers for all
// procedures from now on.
//
// This value can also be configured with the `JMINUS_MAX_REGISTERS`
// environment variable.
//
// The default value of this option is "8".
//
// Returns the old opts.Registers value.
func SetMaxRegisters(n int) int {
	if n < opts.MinRegisters || n > opts.MaxRegisters {
		panic(ConfigError{Option: "registers", Value: strconv.Itoa(n), Reason: "out of range"})
	}
	n, opts.Registers = opts.Registers, n
	return n
}
