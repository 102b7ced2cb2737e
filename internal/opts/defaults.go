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

package opts

import (
	"os"
	"strconv"
)

const (
	MinRegisters = 1
	MaxRegisters = 18 // $t0-$t9, $s0-$s7
)

const (
	_DefaultRegisters = 8
	_DefaultMergeGap  = 5 // same as lir.IdStride
	_DefaultStrategy  = "linear"
)

var (
	Registers = parseOrDefault("JMINUS_MAX_REGISTERS", _DefaultRegisters, MinRegisters, MaxRegisters)
	MergeGap  = parseOrDefault("JMINUS_RANGE_MERGE_GAP", _DefaultMergeGap, 0, 1<<20)
	Strategy  = stringOrDefault("JMINUS_STRATEGY", _DefaultStrategy)
)

func parseOrDefault(key string, def int, min int, max int) int {
	if env := os.Getenv(key); env == "" {
		return def
	} else if val, err := strconv.ParseInt(env, 0, 64); err != nil {
		panic("jminus: invalid value for " + key)
	} else if ret := int(val); ret < min || ret > max {
		panic("jminus: value out of range for " + key)
	} else {
		return ret
	}
}

func stringOrDefault(key string, def string) string {
	if env := os.Getenv(key); env == "" {
		return def
	} else {
		return env
	}
}

// ClampRegisters forces n into the valid register budget range.
func ClampRegisters(n int) int {
	if n < MinRegisters {
		return MinRegisters
	} else if n > MaxRegisters {
		return MaxRegisters
	} else {
		return n
	}
}
