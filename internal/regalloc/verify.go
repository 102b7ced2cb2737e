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
    `github.com/cloudwego/jminus/lir`
)

// liveAt computes, for every instruction, the set of virtual registers that
// must be covered by some interval: those live after the instruction, plus
// its own operands.
func liveAt(ctx *Context) map[int]RegSet {
    ret := make(map[int]RegSet)

    /* walk every block backwards from its live-out set */
    for _, bb := range ctx.CFG.Blocks {
        live := ctx.LiveOut[bb.Id].clone()

        /* process every instruction */
        for i := len(bb.Ins) - 1; i >= 0; i-- {
            p := bb.Ins[i]
            rs := live.clone()

            /* the operands themselves */
            for _, r := range p.Defs { rs.add(r) }
            for _, r := range p.Uses { rs.add(r) }

            /* kill the definitions, then generate the uses */
            for _, r := range p.Defs { delete(live, r) }
            for _, r := range p.Uses { live.add(r) }

            /* save the set */
            ret[p.Id] = rs
        }
    }

    /* all done */
    return ret
}

// Verify checks the result of an allocation, and returns an *InvariantError
// describing the first violation found.
func Verify(ctx *Context) error {
    proc := ctx.proc()
    ivs := ctx.Intervals()

    /* every interval is either in a register or in memory, never both */
    for _, iv := range ivs {
        if iv.HasRegister() == iv.Spilled {
            return invariantf(proc, "%s is not properly allocated: %s", iv.Vreg, iv)
        } else if iv.HasRegister() && iv.Phys >= ctx.Pool.Size() {
            return invariantf(proc, "%s exceeds the register budget: %s", iv.Vreg, iv)
        } else if iv.Spilled && !iv.HasSlot() {
            return invariantf(proc, "%s is spilled without a slot", iv.Vreg)
        }
    }

    /* every use position is covered by its own interval */
    for _, iv := range ivs {
        var err error
        iv.Uses.ForEach(func(u UsePosition) bool {
            if !iv.IsLiveAt(u.Pos) {
                err = invariantf(proc, "use of %s at %d is not covered", iv.Vreg, u.Pos)
            }
            return err == nil
        })
        if err != nil {
            return err
        }
    }

    /* spilled members of a family share the same slot */
    for _, root := range ctx.Roots() {
        var slot *Interval
        for _, m := range ctx.Family(root.Vreg) {
            if m.Spilled {
                if slot == nil {
                    slot = m
                } else if slot.Offset != m.Offset || slot.Base != m.Base {
                    return invariantf(proc, "%s and %s are spilled into different slots", slot.Vreg, m.Vreg)
                }
            }
        }
    }

    /* no two intervals share a register while both are live */
    for i, p := range ivs {
        for _, q := range ivs[i + 1:] {
            if p.HasRegister() && p.Phys == q.Phys {
                if at := p.NextIntersection(q); at != Never {
                    return invariantf(proc, "%s and %s both occupy %s at %d", p.Vreg, q.Vreg, ctx.Pool.Name(p.Phys), at)
                }
            }
        }
    }

    /* coverage must exactly match the liveness */
    if ctx.CFG != nil {
        return verifyCoverage(ctx, liveAt(ctx))
    } else {
        return nil
    }
}

func verifyCoverage(ctx *Context, live map[int]RegSet) error {
    proc := ctx.proc()
    regs := make([]lir.Reg, 0, ctx.CFG.NumRegs)

    /* the original virtual registers */
    for r := 0; r < ctx.CFG.NumRegs; r++ {
        regs = append(regs, lir.Reg(r))
    }

    /* ranges stop right after an instruction and start on one, so a merge
     * gap spanning a whole instruction slot may cover dead instructions */
    exact := ctx.MergeGap < 2 * lir.IdStride - 1

    /* check every instruction */
    for _, bb := range ctx.CFG.Blocks {
        for _, p := range bb.Ins {
            for _, r := range regs {
                n := 0
                for _, m := range ctx.Family(r) {
                    if m.IsLiveAt(p.Id) {
                        n++
                    }
                }

                /* check against the liveness */
                if exp := live[p.Id].has(r); exp && n == 0 {
                    return invariantf(proc, "%s is live at %d but not covered", r, p.Id)
                } else if exact && !exp && n != 0 {
                    return invariantf(proc, "%s is not live at %d but covered", r, p.Id)
                } else if n > 1 {
                    return invariantf(proc, "%d pieces of %s are live at %d", n, r, p.Id)
                }
            }
        }
    }

    /* all done */
    return nil
}
