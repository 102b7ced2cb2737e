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

const (
    MinRegisters = 1
    MaxRegisters = len(_MIPSRegs)
)

var _MIPSRegs = [...]string {
    "$t0", "$t1", "$t2", "$t3", "$t4", "$t5", "$t6", "$t7", "$t8", "$t9",
    "$s0", "$s1", "$s2", "$s3", "$s4", "$s5", "$s6", "$s7",
}

// RegisterPool is the ordered set of physical registers available to the allocator.
type RegisterPool struct {
    names []string
}

func NewRegisterPool(n int) RegisterPool {
    if n < MinRegisters || n > MaxRegisters {
        panic(fmt.Sprintf("regalloc: invalid register count: %d", n))
    } else {
        return RegisterPool { names: _MIPSRegs[:n:n] }
    }
}

func (self RegisterPool) Size() int {
    return len(self.names)
}

func (self RegisterPool) Name(i int) string {
    return self.names[i]
}

func (self RegisterPool) Names() []string {
    return append([]string(nil), self.names...)
}
