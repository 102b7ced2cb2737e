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
    `github.com/oleiade/lane`
)

// unhandled intervals are ordered by start, ties broken by vreg so that a
// re-run on the same input makes the same decisions
const _VregBits = 24

type _BlockedFunc func(s *_Scanner, cur *Interval)

// _Scanner drives the unhandled / active / inactive / handled work lists.
// Fixed intervals hold a register chosen before the scan started, they never
// move between the lists but are still checked for conflicts.
type _Scanner struct {
    ctx       *Context
    pos       int
    fixed     []*Interval
    active    []*Interval
    inactive  []*Interval
    handled   []*Interval
    unhandled *lane.PQueue
    blocked   _BlockedFunc
}

func newScanner(ctx *Context, blocked _BlockedFunc) *_Scanner {
    return &_Scanner {
        ctx       : ctx,
        blocked   : blocked,
        unhandled : lane.NewPQueue(lane.MINPQ),
    }
}

func (self *_Scanner) push(iv *Interval) {
    self.unhandled.Push(iv, iv.Start() << _VregBits | int(iv.Vreg))
}

func (self *_Scanner) fix(iv *Interval) {
    self.fixed = append(self.fixed, iv)
}

func (self *_Scanner) retire(iv *Interval) {
    self.handled = append(self.handled, iv)
}

func (self *_Scanner) activate(iv *Interval) {
    self.active = append(self.active, iv)
}

// advance moves intervals between the active, inactive and handled lists
// according to their liveness at position i.
func (self *_Scanner) advance(i int) {
    var act []*Interval
    var ina []*Interval

    /* check for active intervals */
    for _, iv := range self.active {
        if iv.Stop() <= i {
            self.retire(iv)
        } else if !iv.IsLiveAt(i) {
            ina = append(ina, iv)
        } else {
            act = append(act, iv)
        }
    }

    /* check for inactive intervals */
    for _, iv := range self.inactive {
        if iv.Stop() <= i {
            self.retire(iv)
        } else if iv.IsLiveAt(i) {
            act = append(act, iv)
        } else {
            ina = append(ina, iv)
        }
    }

    /* update the lists */
    self.pos = i
    self.active = act
    self.inactive = ina
}

// holders calls fn for every interval holding a register which intersects cur.
func (self *_Scanner) holders(cur *Interval, fn func(iv *Interval, at int)) {
    for _, set := range [][]*Interval { self.active, self.inactive, self.fixed } {
        for _, iv := range set {
            if iv.HasRegister() {
                if at := iv.NextIntersection(cur); at != Never {
                    fn(iv, at)
                }
            }
        }
    }
}

// free returns the lowest register no intersecting holder uses, or NoReg.
func (self *_Scanner) free(cur *Interval) int {
    used := make([]bool, self.ctx.Pool.Size())
    self.holders(cur, func(iv *Interval, _ int) { used[iv.Phys] = true })

    /* find the first free one */
    for r, v := range used {
        if !v {
            return r
        }
    }

    /* all registers are taken */
    return NoReg
}

// evict removes iv from the active and inactive lists and retires it.
func (self *_Scanner) evict(iv *Interval) {
    self.active = remove(self.active, iv)
    self.inactive = remove(self.inactive, iv)
    self.retire(iv)
}

func remove(ivs []*Interval, iv *Interval) []*Interval {
    for i, v := range ivs {
        if v == iv {
            return append(ivs[:i], ivs[i + 1:]...)
        }
    }
    return ivs
}

// run processes every unhandled interval in order of its start position.
func (self *_Scanner) run() {
    for !self.unhandled.Empty() {
        v, _ := self.unhandled.Pop()
        cur := v.(*Interval)

        /* update the work lists */
        self.advance(cur.Start())

        /* take a free register if any */
        if r := self.free(cur); r != NoReg {
            self.ctx.Assign(cur, r)
            self.activate(cur)
            continue
        }

        /* every register is taken, let the strategy decide */
        self.ctx.Log.Debug("registers exhausted", "vreg", cur.Vreg, "at", self.pos)
        self.blocked(self, cur)
    }
}
