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
    `fmt`
    `strings`

    `github.com/cloudwego/jminus/internal/regalloc`
)

/** Frame Structure of the Generated Procedure
 *
 *                 (Previous Frame)
 *      size() ------------------------
 *                    Saved $fp             |
 *      offs() ------------------------     |
 *              Saved $s0 .. $s7 (used)     | (decrease)
 *      save() ------------------------     |
 *                   Spill Slots            ↓
 *      $sp, $fp ----------------------
 */

type _FrameInfo struct {
    spill int
    usefp bool
    saved []string
}

func newFrame(ctx *regalloc.Context) (ret _FrameInfo) {
    ret.spill = ctx.FrameSize()
    used := make([]bool, ctx.Pool.Size())

    /* find all the used registers, and check for frame-relative slots */
    for _, iv := range ctx.Intervals() {
        if iv.HasRegister() {
            used[iv.Phys] = true
        } else if iv.Spilled && iv.Base == regalloc.FramePointer {
            ret.usefp = true
        }
    }

    /* callee-saved registers must be preserved */
    for i, v := range used {
        if name := ctx.Pool.Name(i); v && strings.HasPrefix(name, "$s") {
            ret.saved = append(ret.saved, name)
        }
    }

    /* all done */
    return
}

func (self *_FrameInfo) save() int {
    return self.spill
}

func (self *_FrameInfo) offs() int {
    return self.save() + len(self.saved) * regalloc.WordSize
}

func (self *_FrameInfo) size() int {
    if self.usefp {
        return self.offs() + regalloc.WordSize
    } else {
        return self.offs()
    }
}

func (self *_FrameInfo) rslot(i int) string {
    return fmt.Sprintf("%d($sp)", self.save() + i * regalloc.WordSize)
}

func (self *_FrameInfo) fpslot() string {
    return fmt.Sprintf("%d($sp)", self.offs())
}
