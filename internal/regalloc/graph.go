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
    `sort`

    `github.com/oleiade/lane`
    `github.com/cloudwego/jminus/lir`
    `gonum.org/v1/gonum/graph`
    `gonum.org/v1/gonum/graph/simple`
)

// GraphAllocator colors an interference graph of the root intervals with the
// simplify / spill / select discipline. Nodes that could not be colored are
// scanned again against the colored ones, and are split or spilled there.
type GraphAllocator struct{}

type _Interference struct {
    g   *simple.UndirectedGraph
    ivs map[int64]*Interval
    adj map[int64][]int64
}

func interference(roots []*Interval) *_Interference {
    nb := len(roots)
    ret := &_Interference {
        g   : simple.NewUndirectedGraph(),
        ivs : make(map[int64]*Interval, nb),
        adj : make(map[int64][]int64, nb),
    }

    /* one node per root interval */
    for _, iv := range roots {
        ret.g.AddNode(simple.Node(iv.Vreg))
        ret.ivs[int64(iv.Vreg)] = iv
    }

    /* connect every pair that is live at the same time */
    for i, p := range roots {
        for _, q := range roots[i + 1:] {
            if p.NextIntersection(q) != Never {
                ret.g.SetEdge(simple.Edge { F: simple.Node(p.Vreg), T: simple.Node(q.Vreg) })
                ret.adj[int64(p.Vreg)] = append(ret.adj[int64(p.Vreg)], int64(q.Vreg))
                ret.adj[int64(q.Vreg)] = append(ret.adj[int64(q.Vreg)], int64(p.Vreg))
            }
        }
    }

    /* all done */
    return ret
}

func nodeids(it graph.Nodes) []int64 {
    ret := make([]int64, 0, it.Len())
    for it.Next() {
        ret = append(ret, it.Node().ID())
    }
    sort.Slice(ret, func(i int, j int) bool { return ret[i] < ret[j] })
    return ret
}

// spillScore is the earliest point any remaining neighbour needs this node to
// step aside, the later the better to spill.
func (self *_Interference) spillScore(id int64) int {
    iv := self.ivs[id]
    ret := Never

    /* find the minimum next use */
    for _, n := range nodeids(self.g.From(id)) {
        ret = minint(ret, iv.NextUsageOverlapping(self.ivs[n]))
    }

    /* all done */
    return ret
}

func (GraphAllocator) Allocate(ctx *Context) {
    k := ctx.Pool.Size()
    ig := interference(ctx.Roots())
    stack := lane.NewStack()

    /* nodes optimistically pulled out of the graph */
    var spills []*Interval
    var colored []*Interval

    /* simplify until the graph is empty */
    for ig.g.Nodes().Len() != 0 {
        ids := nodeids(ig.g.Nodes())
        pick := int64(-1)

        /* find the first node with insignificant degree */
        for _, id := range ids {
            if ig.g.From(id).Len() < k {
                pick = id
                break
            }
        }

        /* found one, push it onto the stack */
        if pick >= 0 {
            stack.Push(pick)
            ig.g.RemoveNode(pick)
            continue
        }

        /* every node is significant, choose a spill candidate */
        best := -1
        for _, id := range ids {
            if sc := ig.spillScore(id); sc > best {
                best, pick = sc, id
            }
        }

        /* remove the candidate from the graph */
        ig.g.RemoveNode(pick)
        spills = append(spills, ig.ivs[pick])
        ctx.Log.Debug("graph spill candidate", "vreg", lir.Reg(pick), "score", best)
    }

    /* select colors in the reverse order of removal */
    for !stack.Empty() {
        id := stack.Pop().(int64)
        iv := ig.ivs[id]
        used := make([]bool, k)

        /* mark the colors of all the neighbours */
        for _, n := range ig.adj[id] {
            if c := ig.ivs[n]; c.HasRegister() {
                used[c.Phys] = true
            }
        }

        /* find the first free color */
        r := NoReg
        for i, v := range used {
            if !v {
                r = i
                break
            }
        }

        /* no color is available, treat it as a spill candidate */
        if r == NoReg {
            spills = append(spills, iv)
            continue
        }

        /* assign the color */
        ctx.Assign(iv, r)
        colored = append(colored, iv)
    }

    /* re-process the spill candidates against the colored nodes */
    if len(spills) != 0 {
        s := newScanner(ctx, graphBlocked)

        /* colored nodes are fixed */
        for _, iv := range colored {
            s.fix(iv)
        }

        /* spill candidates are unhandled */
        for _, iv := range spills {
            s.push(iv)
        }

        /* run the scanner */
        s.run()
    }

    /* log the result */
    ctx.Log.Debug("graph coloring done", "colored", len(colored), "spills", ctx.SpillCount(), "splits", ctx.SplitCount())
}

// graphBlocked keeps the head of cur in the color that conflicts the latest,
// and spills the tail. Without a usable head, cur is spilled whole.
func graphBlocked(s *_Scanner, cur *Interval) {
    ctx := s.ctx
    nbr := ctx.Pool.Size()
    conflict := make([]int, nbr)

    /* initialize the conflict points */
    for r := range conflict {
        conflict[r] = Never
    }

    /* the first conflict of every color */
    s.holders(cur, func(iv *Interval, at int) {
        conflict[iv.Phys] = minint(conflict[iv.Phys], at)
    })

    /* find the color that conflicts the latest */
    reg := 0
    for r := 1; r < nbr; r++ {
        if conflict[r] > conflict[reg] {
            reg = r
        }
    }

    /* the head must hold at least one use to be worth a register */
    at := conflict[reg]
    u, ok := cur.Uses.First()

    /* no such head, spill the entire interval */
    if at <= cur.Start() || !ok || u.Pos >= at {
        ctx.Spill(cur)
        s.retire(cur)
        return
    }

    /* the tail lives in memory, the head takes the color */
    tail := ctx.SplitAt(cur, at)
    ctx.Spill(tail)
    ctx.Assign(cur, reg)
    s.retire(tail)
    s.activate(cur)
}
