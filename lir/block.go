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

    `github.com/oleiade/lane`
)

type BasicBlock struct {
    Id    int
    Label string
    Ins   []*Instr
    Succ  []*BasicBlock
    Pred  []*BasicBlock
}

// First returns the id of the first instruction in this block.
func (self *BasicBlock) First() int {
    return self.Ins[0].Id
}

// Last returns the id of the last instruction in this block.
func (self *BasicBlock) Last() int {
    return self.Ins[len(self.Ins) - 1].Id
}

// Contains checks whether instruction id i lies within this block.
func (self *BasicBlock) Contains(i int) bool {
    return i >= self.First() && i <= self.Last()
}

// Terminator returns the last instruction if it ends the block, nil otherwise.
func (self *BasicBlock) Terminator() *Instr {
    if p := self.Ins[len(self.Ins) - 1]; p.IsTerminator() {
        return p
    } else {
        return nil
    }
}

func (self *BasicBlock) String() string {
    return fmt.Sprintf("bb_%d", self.Id)
}

// CFG is the control-flow graph of a single procedure.
type CFG struct {
    Name    string
    Root    *BasicBlock
    Blocks  []*BasicBlock
    NumRegs int
}

// Block returns the block containing instruction id i.
func (self *CFG) Block(i int) *BasicBlock {
    lo, hi := 0, len(self.Blocks)

    /* blocks are laid out in increasing id order */
    for lo < hi {
        mid := (lo + hi) / 2
        bb := self.Blocks[mid]

        /* search the half that may contain i */
        if i < bb.First() {
            hi = mid
        } else if i > bb.Last() {
            lo = mid + 1
        } else {
            return bb
        }
    }

    /* not found */
    return nil
}

// Instr returns the instruction with id i.
func (self *CFG) Instr(i int) *Instr {
    if bb := self.Block(i); bb == nil {
        return nil
    } else if (i - bb.First()) % IdStride != 0 {
        return nil
    } else {
        return bb.Ins[(i - bb.First()) / IdStride]
    }
}

// ReversePostOrder returns all the reachable blocks in reverse post-order.
func (self *CFG) ReversePostOrder() []*BasicBlock {
    st := lane.NewStack()
    vis := make(map[int]bool, len(self.Blocks))
    ret := make([]*BasicBlock, 0, len(self.Blocks))

    /* iterative DFS, a block is emitted after all its successors are visited */
    vis[self.Root.Id] = true
    for st.Push(self.Root); !st.Empty(); {
        tail := true
        this := st.Head().(*BasicBlock)

        /* descend into the first unvisited successor */
        for _, p := range this.Succ {
            if !vis[p.Id] {
                tail = false
                vis[p.Id] = true
                st.Push(p)
                break
            }
        }

        /* all the successors are visited, pop the current node */
        if tail {
            ret = append(ret, st.Pop().(*BasicBlock))
        }
    }

    /* reverse the order */
    for i, j := 0, len(ret) - 1; i < j; i, j = i + 1, j - 1 {
        ret[i], ret[j] = ret[j], ret[i]
    }

    /* all done */
    return ret
}

// ForEach visits every reachable block in breadth-first order.
func (self *CFG) ForEach(action func(bb *BasicBlock)) {
    q := lane.NewQueue()
    m := make(map[int]bool, len(self.Blocks))

    /* traverse the graph with BFS */
    m[self.Root.Id] = true
    for q.Enqueue(self.Root); !q.Empty(); {
        p := q.Dequeue().(*BasicBlock)
        action(p)

        /* add all successors into queue */
        for _, r := range p.Succ {
            if !m[r.Id] {
                m[r.Id] = true
                q.Enqueue(r)
            }
        }
    }
}
