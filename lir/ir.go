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


package lir

import (
    `fmt`
    `strings`
)

// IdStride is the distance between the ids of two consecutive instructions.
const IdStride = 5

// Reg is a virtual register.
type Reg int

func (self Reg) String() string {
    return fmt.Sprintf("%%%d", int(self))
}

type Kind uint8

const (
    Plain Kind = iota
    Branch
    Jump
    Return
)

var _KindNames = [...]string {
    Plain  : "plain",
    Branch : "branch",
    Jump   : "jump",
    Return : "return",
}

func (self Kind) String() string {
    if int(self) < len(_KindNames) {
        return _KindNames[self]
    } else {
        return fmt.Sprintf("kind(%d)", self)
    }
}

func parseKind(s string) (Kind, bool) {
    if s == "" {
        return Plain, true
    }

    /* linear search is fine for 4 entries */
    for i, v := range _KindNames {
        if v == s {
            return Kind(i), true
        }
    }

    /* not found */
    return 0, false
}

// Instr is a low-level instruction referencing virtual registers.
type Instr struct {
    Id     int
    Op     string
    Kind   Kind
    Defs   []Reg
    Uses   []Reg
    Imm    int64
    HasImm bool
    Target string
}

func (self *Instr) Reads(r Reg) bool {
    return regsliceHas(self.Uses, r)
}

func (self *Instr) Writes(r Reg) bool {
    return regsliceHas(self.Defs, r)
}

// IsTerminator returns true if the instruction ends a basic block.
func (self *Instr) IsTerminator() bool {
    return self.Kind != Plain
}

func (self *Instr) String() string {
    ops := make([]string, 0, len(self.Defs) + len(self.Uses) + 1)

    /* registers first, definitions before usages */
    for _, r := range self.Defs { ops = append(ops, r.String()) }
    for _, r := range self.Uses { ops = append(ops, r.String()) }

    /* immediate value and branch target */
    if self.HasImm { ops = append(ops, fmt.Sprint(self.Imm)) }
    if self.Target != "" { ops = append(ops, self.Target) }

    /* no operands */
    if len(ops) == 0 {
        return self.Op
    }

    /* join them together */
    return fmt.Sprintf(
        "%s %s",
        self.Op,
        strings.Join(ops, ", "),
    )
}

func regsliceHas(rr []Reg, r Reg) bool {
    for _, v := range rr {
        if v == r {
            return true
        }
    }
    return false
}
