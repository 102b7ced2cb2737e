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
    `github.com/cloudwego/jminus/lir`
)

type _BlockSets struct {
    gen  RegSet
    kill RegSet
}

func blocksets(bb *lir.BasicBlock) _BlockSets {
    ret := _BlockSets {
        gen  : make(RegSet),
        kill : make(RegSet),
    }

    /* an operand read before any write in this block is upward exposed */
    for _, p := range bb.Ins {
        for _, r := range p.Uses {
            if !ret.kill.has(r) {
                ret.gen.add(r)
            }
        }
        for _, r := range p.Defs {
            ret.kill.add(r)
        }
    }

    /* all done */
    return ret
}

func (self *Context) computeLiveness() {
    cfg := self.CFG
    nb := len(cfg.Blocks)
    sets := make([]_BlockSets, nb)

    /* initialize the sets */
    self.LiveIn = make(map[int]RegSet, nb)
    self.LiveOut = make(map[int]RegSet, nb)

    /* compute the per-block sets */
    for i, bb := range cfg.Blocks {
        sets[i] = blocksets(bb)
        self.LiveIn[bb.Id] = sets[i].gen.clone()
        self.LiveOut[bb.Id] = make(RegSet)
    }

    /* seed the work list in reverse layout order, it converges faster */
    q := lane.NewQueue()
    queued := make(map[int]bool, nb)

    /* add all the blocks */
    for i := nb - 1; i >= 0; i-- {
        q.Enqueue(cfg.Blocks[i])
        queued[cfg.Blocks[i].Id] = true
    }

    /* iterate until nothing changes */
    for !q.Empty() {
        bb := q.Dequeue().(*lir.BasicBlock)
        out := self.LiveOut[bb.Id]
        queued[bb.Id] = false

        /* liveOut = ∪ liveIn(succ) */
        for _, s := range bb.Succ {
            out.union(self.LiveIn[s.Id])
        }

        /* liveIn = gen ∪ (liveOut - kill) */
        in := out.clone()
        in.subtract(sets[bb.Id].kill)
        in.union(sets[bb.Id].gen)

        /* nothing changed */
        if in.equals(self.LiveIn[bb.Id]) {
            continue
        }

        /* update the live-in set and revisit the predecessors */
        self.LiveIn[bb.Id] = in
        for _, p := range bb.Pred {
            if !queued[p.Id] {
                q.Enqueue(p)
                queued[p.Id] = true
            }
        }
    }
}

// BuildIntervals computes the liveness of every virtual register in the CFG
// of ctx and populates one interval for each of them.
func BuildIntervals(ctx *Context) {
    cfg := ctx.CFG
    gap := ctx.MergeGap

    /* global liveness first */
    if cfg == nil {
        panic(invariantf("", "no CFG to build intervals from"))
    } else {
        ctx.computeLiveness()
    }

    /* walk the blocks backwards, so ranges are mostly prepended */
    for i := len(cfg.Blocks) - 1; i >= 0; i-- {
        bb := cfg.Blocks[i]
        first := bb.First()

        /* values live at the end of the block span the whole block */
        for _, r := range ctx.LiveOut[bb.Id].toslice() {
            ctx.Interval(r).AddOrExtendRange(Range { first, bb.Last() + 1 }, gap)
        }

        /* walk the instructions backwards */
        for j := len(bb.Ins) - 1; j >= 0; j-- {
            p := bb.Ins[j]
            k := p.Id

            /* a definition ends the liveness here, or creates a dead value */
            for _, r := range p.Defs {
                iv := ctx.Interval(r)
                iv.AddUse(k, false, true)

                /* shorten the live range if the value is used later */
                if !iv.shortenTo(k) {
                    iv.AddOrExtendRange(Range { k, k + 1 }, gap)
                }
            }

            /* a use makes the value live from the block start */
            for _, r := range p.Uses {
                iv := ctx.Interval(r)
                iv.AddUse(k, true, false)
                iv.AddOrExtendRange(Range { first, k + 1 }, gap)
            }
        }
    }

    /* every use position must be covered by a live range */
    for _, iv := range ctx.Intervals() {
        iv.Uses.ForEach(func(u UsePosition) bool {
            if !iv.IsLiveAt(u.Pos) {
                panic(invariantf(cfg.Name, "use of %s at %d is not covered by any range", iv.Vreg, u.Pos))
            }
            return true
        })
    }

    /* log the result */
    ctx.Log.Debug("intervals built", "count", len(ctx.Intervals()), "blocks", len(cfg.Blocks))
}
