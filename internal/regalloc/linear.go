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

// LinearAllocator is the classic linear scan: intervals are visited in the
// order they start, conflicts are detected against the currently active and
// inactive intervals only.
type LinearAllocator struct{}

func (LinearAllocator) Allocate(ctx *Context) {
    s := newScanner(ctx, linearBlocked)

    /* all the roots are unhandled */
    for _, iv := range ctx.Roots() {
        s.push(iv)
    }

    /* run the scanner */
    s.run()
    ctx.Log.Debug("linear scan done", "spills", ctx.SpillCount(), "splits", ctx.SplitCount())
}

func linearBlocked(s *_Scanner, cur *Interval) {
    ctx := s.ctx
    pos := s.pos
    nbr := ctx.Pool.Size()
    use := make([]int, nbr)

    /* the next use of each register by its holders */
    for r := range use {
        use[r] = Never
    }

    /* the earliest use among all the holders intersecting cur */
    s.holders(cur, func(iv *Interval, _ int) {
        use[iv.Phys] = minint(use[iv.Phys], iv.NextUsageOverlapping(cur))
    })

    /* pick the register whose holders are needed last */
    reg := 0
    for r := 1; r < nbr; r++ {
        if use[r] > use[reg] {
            reg = r
        }
    }

    /* cur itself is needed even later, spill it */
    if cur.FirstUse() > use[reg] {
        ctx.Spill(cur)
        s.retire(cur)
        return
    }

    /* collect the victims first, since eviction modifies the lists */
    var victims []*Interval
    s.holders(cur, func(iv *Interval, _ int) {
        if iv.Phys == reg {
            victims = append(victims, iv)
        }
    })

    /* split each victim at the current position and spill the tail */
    for _, iv := range victims {
        s.evict(iv)

        /* started here, the victim is spilled entirely */
        if iv.Start() >= pos {
            ctx.Spill(iv)
            continue
        }

        /* the head keeps the register */
        tail := ctx.SplitAt(iv, pos)
        ctx.Spill(tail)
        s.retire(tail)
    }

    /* cur takes the register */
    ctx.Assign(cur, reg)
    s.activate(cur)
}
