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
    `log/slog`
    `sort`

    `github.com/cloudwego/jminus/lir`
)

// WordSize is the size of a spill slot.
const WordSize = 4

// Location is where a value lives at some program point.
type Location struct {
    Reg    string
    Offset int
    Base   Base
}

func (self Location) InRegister() bool {
    return self.Reg != ""
}

func (self Location) IsValid() bool {
    return self.Reg != "" || self.Base != NoSlot
}

func (self Location) String() string {
    if self.Reg != "" {
        return self.Reg
    } else if self.Base != NoSlot {
        return fmt.Sprintf("%d(%s)", self.Offset, self.Base)
    } else {
        return "<invalid>"
    }
}

// Context holds everything private to a single allocation of one procedure:
// the interval arena indexed by virtual register id, the register pool, and
// the spill slot counter.
type Context struct {
    CFG      *lir.CFG
    Pool     RegisterPool
    MergeGap int
    LiveIn   map[int]RegSet
    LiveOut  map[int]RegSet
    Log      *slog.Logger

    frame     int
    splits    int
    intervals []*Interval
}

func NewContext(cfg *lir.CFG, pool RegisterPool, gap int, log *slog.Logger) *Context {
    nb := 0
    name := ""

    /* the CFG might be absent when intervals are constructed by hand */
    if cfg != nil {
        nb = cfg.NumRegs
        name = cfg.Name
    }

    /* use the default logger if not specified */
    if log == nil {
        log = slog.Default()
    }

    /* construct the context */
    return &Context {
        CFG       : cfg,
        Pool      : pool,
        MergeGap  : gap,
        Log       : log.With("proc", name),
        intervals : make([]*Interval, nb),
    }
}

func (self *Context) proc() string {
    if self.CFG == nil {
        return ""
    } else {
        return self.CFG.Name
    }
}

// Interval returns the interval of v, creating it if needed.
func (self *Context) Interval(v lir.Reg) *Interval {
    if v < 0 {
        panic(invariantf(self.proc(), "negative virtual register %d", int(v)))
    }

    /* grow the table as needed */
    for int(v) >= len(self.intervals) {
        self.intervals = append(self.intervals, nil)
    }

    /* create a new interval if not exists */
    if self.intervals[v] == nil {
        self.intervals[v] = newInterval(v)
    }

    /* all done */
    return self.intervals[v]
}

// Lookup returns the interval of v, or nil if it does not exist.
func (self *Context) Lookup(v lir.Reg) *Interval {
    if v < 0 || int(v) >= len(self.intervals) {
        return nil
    } else {
        return self.intervals[v]
    }
}

// NumRegs is the size of the virtual register table, including split children.
func (self *Context) NumRegs() int {
    return len(self.intervals)
}

// Intervals returns every non-empty interval, including split children.
func (self *Context) Intervals() []*Interval {
    ret := make([]*Interval, 0, len(self.intervals))
    for _, iv := range self.intervals {
        if iv != nil && !iv.IsEmpty() {
            ret = append(ret, iv)
        }
    }
    return ret
}

// Roots returns every non-empty interval that was not split from another one.
func (self *Context) Roots() []*Interval {
    ret := make([]*Interval, 0, len(self.intervals))
    for _, iv := range self.intervals {
        if iv != nil && iv.IsRoot() && !iv.IsEmpty() {
            ret = append(ret, iv)
        }
    }
    return ret
}

// Root returns the root of the split family of iv.
func (self *Context) Root(iv *Interval) *Interval {
    return self.intervals[iv.Parent]
}

// Family returns the root of v followed by all its split children, ordered by start.
func (self *Context) Family(v lir.Reg) []*Interval {
    iv := self.Lookup(v)
    if iv == nil {
        return nil
    }

    /* start from the root */
    root := self.Root(iv)
    ret := make([]*Interval, 0, len(root.Children) + 1)
    ret = append(ret, root)

    /* add all the children */
    for _, c := range root.Children {
        ret = append(ret, self.intervals[c])
    }
    return ret
}

func (self *Context) newVreg() lir.Reg {
    self.intervals = append(self.intervals, nil)
    return lir.Reg(len(self.intervals) - 1)
}

// SplitAt splits iv at position i. The returned child holds every range and
// use position at or after i, iv keeps the rest.
func (self *Context) SplitAt(iv *Interval, i int) *Interval {
    if i <= iv.Start() || i >= iv.Stop() {
        panic(invariantf(self.proc(), "cannot split %s at %d", iv.Vreg, i))
    }

    /* allocate a new virtual register for the child */
    root := self.Root(iv)
    child := newInterval(self.newVreg())
    child.Parent = root.Vreg
    self.intervals[child.Vreg] = child

    /* find the first range that ends after i */
    nb := len(iv.Ranges)
    k := sort.Search(nb, func(k int) bool { return iv.Ranges[k].Stop > i })

    /* the range straddles the split point, cut it into two halves */
    if r := iv.Ranges[k]; r.Start < i {
        child.Ranges = append(child.Ranges, Range { i, r.Stop })
        child.Ranges = append(child.Ranges, iv.Ranges[k + 1:]...)
        iv.Ranges[k].Stop = i
        iv.Ranges = iv.Ranges[:k + 1]
    } else {
        child.Ranges = append(child.Ranges, iv.Ranges[k:]...)
        iv.Ranges = iv.Ranges[:k]
    }

    /* transfer the use positions, and share the spill slot if any */
    child.Uses = iv.Uses.splitFrom(i)
    child.Offset, child.Base = iv.Offset, iv.Base

    /* register in the root, ordered by start */
    p := sort.Search(len(root.Children), func(p int) bool {
        return self.intervals[root.Children[p]].Start() > child.Start()
    })

    /* insert the child */
    root.Children = append(root.Children, 0)
    copy(root.Children[p + 1:], root.Children[p:])
    root.Children[p] = child.Vreg

    /* update the statistics */
    self.splits++
    self.Log.Debug("split interval", "vreg", iv.Vreg, "at", i, "child", child.Vreg)
    return child
}

func (self *Context) allocSlot() int {
    off := self.frame
    self.frame += WordSize
    return off
}

func (self *Context) spillTo(iv *Interval, base Base) {
    iv.Phys = NoReg
    iv.Spilled = true

    /* reuse the slot of the family, if any */
    if !iv.HasSlot() {
        for _, m := range self.Family(iv.Vreg) {
            if m.HasSlot() {
                iv.Offset, iv.Base = m.Offset, m.Base
                break
            }
        }
    }

    /* allocate a new slot */
    if !iv.HasSlot() {
        iv.Offset = self.allocSlot()
        iv.Base = base
    }

    /* every piece of the family shares the same slot */
    for _, m := range self.Family(iv.Vreg) {
        if !m.HasSlot() {
            m.Offset, m.Base = iv.Offset, iv.Base
        }
    }

    /* log the spill */
    self.Log.Debug("spill interval", "vreg", iv.Vreg, "offset", iv.Offset, "base", iv.Base.String())
}

// Spill moves iv into a stack-pointer relative slot.
func (self *Context) Spill(iv *Interval) {
    self.spillTo(iv, StackPointer)
}

// SpillFrame moves iv into a frame-pointer relative slot.
func (self *Context) SpillFrame(iv *Interval) {
    self.spillTo(iv, FramePointer)
}

// Assign gives the physical register r to iv.
func (self *Context) Assign(iv *Interval, r int) {
    iv.Phys = r
    iv.Spilled = false
    self.Log.Debug("assign register", "vreg", iv.Vreg, "reg", self.Pool.Name(r))
}

func distance(iv *Interval, i int) int {
    d := Never
    for _, r := range iv.Ranges {
        if i < r.Start {
            d = minint(d, r.Start - i)
        } else if i >= r.Stop {
            d = minint(d, i - r.Stop + 1)
        } else {
            return 0
        }
    }
    return d
}

// ChildAt returns the piece of v live at i, or the nearest one if none is.
func (self *Context) ChildAt(v lir.Reg, i int) *Interval {
    var ret *Interval
    var min = Never

    /* exact match first, otherwise the closest one */
    for _, m := range self.Family(v) {
        if d := distance(m, i); d == 0 {
            return m
        } else if d < min {
            ret, min = m, d
        }
    }

    /* may be nil if v does not exist */
    return ret
}

// ChildAtOrEndingBefore returns the piece of v that holds the value at the
// end of block bb.
func (self *Context) ChildAtOrEndingBefore(v lir.Reg, bb *lir.BasicBlock) *Interval {
    var ret *Interval
    var end = -1
    var last = bb.Last()

    /* find the piece whose range ends closest before the block end */
    for _, m := range self.Family(v) {
        if m.IsLiveAt(last) {
            return m
        }
        for _, r := range m.Ranges {
            if r.Stop <= last + 1 && r.Stop > end {
                ret, end = m, r.Stop
            }
        }
    }

    /* nothing ends before, fallback to the nearest one */
    if ret == nil {
        ret = self.ChildAt(v, last)
    }
    return ret
}

// ChildAtOrStartingAfter returns the piece of v that holds the value at the
// start of block bb.
func (self *Context) ChildAtOrStartingAfter(v lir.Reg, bb *lir.BasicBlock) *Interval {
    var ret *Interval
    var start = Never
    var first = bb.First()

    /* find the piece whose range starts closest after the block start */
    for _, m := range self.Family(v) {
        if m.IsLiveAt(first) {
            return m
        }
        for _, r := range m.Ranges {
            if r.Start >= first && r.Start < start {
                ret, start = m, r.Start
            }
        }
    }

    /* nothing starts after, fallback to the nearest one */
    if ret == nil {
        ret = self.ChildAt(v, first)
    }
    return ret
}

// Location returns where iv lives.
func (self *Context) Location(iv *Interval) Location {
    if iv == nil {
        return Location{}
    } else if iv.HasRegister() {
        return Location { Reg: self.Pool.Name(iv.Phys) }
    } else if iv.Spilled {
        return Location { Offset: iv.Offset, Base: iv.Base }
    } else {
        return Location{}
    }
}

// LocationAt returns where v lives at position i.
func (self *Context) LocationAt(v lir.Reg, i int) Location {
    return self.Location(self.ChildAt(v, i))
}

// FrameSize is the number of bytes needed for all the spill slots.
func (self *Context) FrameSize() int {
    return self.frame
}

func (self *Context) SplitCount() int {
    return self.splits
}

// SpillCount is the number of intervals living in memory.
func (self *Context) SpillCount() int {
    n := 0
    for _, iv := range self.Intervals() {
        if iv.Spilled {
            n++
        }
    }
    return n
}

// RegistersUsed is the number of distinct physical registers assigned.
func (self *Context) RegistersUsed() int {
    m := make(map[int]bool, self.Pool.Size())
    for _, iv := range self.Intervals() {
        if iv.HasRegister() {
            m[iv.Phys] = true
        }
    }
    return len(m)
}
