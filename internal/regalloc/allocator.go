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


package regalloc

import (
    `fmt`
)

// Strategy selects how the allocator resolves register pressure.
type Strategy uint8

const (
    Naive Strategy = iota
    Linear
    Graph
)

var _StrategyNames = map[Strategy]string {
    Naive  : "naive",
    Linear : "linear",
    Graph  : "graph",
}

func (self Strategy) String() string {
    if v, ok := _StrategyNames[self]; ok {
        return v
    } else {
        return fmt.Sprintf("Strategy(%d)", self)
    }
}

func ParseStrategy(s string) (Strategy, bool) {
    for k, v := range _StrategyNames {
        if v == s {
            return k, true
        }
    }
    return 0, false
}

// Allocator assigns every interval of a context either a physical register
// or a spill slot. It never fails, running out of registers degrades to
// spilling.
type Allocator interface {
    Allocate(ctx *Context)
}

func NewAllocator(s Strategy) Allocator {
    switch s {
        case Naive  : return new(NaiveAllocator)
        case Linear : return new(LinearAllocator)
        case Graph  : return new(GraphAllocator)
        default     : panic("regalloc: invalid strategy: " + s.String())
    }
}
