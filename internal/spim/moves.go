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


package spim

import (
    `github.com/cloudwego/jminus/internal/regalloc`
)

const (
    _ScratchA = "$v1"
    _ScratchB = "$a3"
)

type _Move struct {
    src regalloc.Location
    dst regalloc.Location
}

func (self *CodeGen) move(src regalloc.Location, dst regalloc.Location) {
    switch {
        case src.InRegister() && dst.InRegister() : self.ins("move", dst.Reg, src.Reg)
        case src.InRegister()                     : self.ins("sw", src.Reg, dst.String())
        case dst.InRegister()                     : self.ins("lw", dst.Reg, src.String())
        default                                   : self.ins("lw", _ScratchB, src.String()); self.ins("sw", _ScratchB, dst.String())
    }
}

func blocking(mm []_Move, i int) bool {
    for j, m := range mm {
        if j != i && m.src == mm[i].dst {
            return true
        }
    }
    return false
}

// parallel emits a set of moves that happen simultaneously. Moves are ordered
// so that no source is overwritten before it is read, and cycles are broken
// with a scratch register.
func (self *CodeGen) parallel(mm []_Move) {
    var pending []_Move
    var scratch = regalloc.Location { Reg: _ScratchA }

    /* drop the moves that does nothing */
    for _, m := range mm {
        if m.src != m.dst {
            pending = append(pending, m)
        }
    }

    /* emit until nothing left */
    for len(pending) != 0 {
        i := 0
        nb := len(pending)

        /* find a move whose destination is not needed anymore */
        for i < nb && blocking(pending, i) {
            i++
        }

        /* found one, emit it */
        if i < nb {
            self.move(pending[i].src, pending[i].dst)
            pending = append(pending[:i], pending[i + 1:]...)
            continue
        }

        /* every move is part of a cycle, save one of the destinations */
        dst := pending[0].dst
        self.move(dst, scratch)

        /* and read it from the scratch register instead */
        for j := range pending {
            if pending[j].src == dst {
                pending[j].src = scratch
            }
        }
    }
}
