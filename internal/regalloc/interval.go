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
    `math`
    `sort`
    `strings`

    `github.com/cloudwego/jminus/lir`
)

const (
    NoReg = -1
    Never = math.MaxInt32
)

// Base tells which register a spill slot offset is relative to.
type Base uint8

const (
    NoSlot Base = iota
    StackPointer
    FramePointer
)

func (self Base) String() string {
    switch self {
        case StackPointer : return "$sp"
        case FramePointer : return "$fp"
        default           : return "-"
    }
}

// Interval is the liveness record of one virtual register, or of one split
// piece of it. A root interval is its own parent, and owns the list of all
// the pieces split from it.
type Interval struct {
    Vreg     lir.Reg
    Ranges   []Range
    Uses     *UsePositions
    Phys     int
    Spilled  bool
    Offset   int
    Base     Base
    Parent   lir.Reg
    Children []lir.Reg
}

func newInterval(v lir.Reg) *Interval {
    return &Interval {
        Vreg   : v,
        Uses   : newUsePositions(),
        Phys   : NoReg,
        Parent : v,
    }
}

func (self *Interval) IsRoot() bool {
    return self.Parent == self.Vreg
}

func (self *Interval) IsEmpty() bool {
    return len(self.Ranges) == 0
}

func (self *Interval) HasRegister() bool {
    return self.Phys != NoReg
}

func (self *Interval) HasSlot() bool {
    return self.Base != NoSlot
}

// Start returns the first live position, or Never for an empty interval.
func (self *Interval) Start() int {
    if len(self.Ranges) == 0 {
        return Never
    } else {
        return self.Ranges[0].Start
    }
}

// Stop returns the position right after the last live position.
func (self *Interval) Stop() int {
    if len(self.Ranges) == 0 {
        return Never
    } else {
        return self.Ranges[len(self.Ranges) - 1].Stop
    }
}

// IsLiveAt checks whether some range contains i.
func (self *Interval) IsLiveAt(i int) bool {
    nb := len(self.Ranges)
    k := sort.Search(nb, func(k int) bool { return self.Ranges[k].Stop > i })
    return k < nb && self.Ranges[k].Start <= i
}

// AddOrExtendRange adds r to the range list. Ranges are normally added in
// decreasing order, so r is first compared with the earliest range, and is
// merged into it when they overlap or are at most gap slots apart.
func (self *Interval) AddOrExtendRange(r Range, gap int) {
    if r.Start >= r.Stop {
        panic(invariantf("", "empty range %s added to %s", r, self.Vreg))
    }

    /* first range of this interval */
    if len(self.Ranges) == 0 {
        self.Ranges = append(self.Ranges, r)
        return
    }

    /* overlaps or nearly abuts the earliest range, extend it */
    if f := &self.Ranges[0]; r.Stop + gap >= f.Start && r.Start <= f.Stop + gap {
        f.Start = minint(f.Start, r.Start)
        f.Stop = maxint(f.Stop, r.Stop)
        self.coalesce(gap)
        return
    }

    /* entirely before the earliest range, prepend it */
    if r.Stop < self.Ranges[0].Start {
        self.Ranges = append(self.Ranges, Range{})
        copy(self.Ranges[1:], self.Ranges)
        self.Ranges[0] = r
        return
    }

    /* out of order, insert it at the right place */
    nb := len(self.Ranges)
    i := sort.Search(nb, func(i int) bool { return self.Ranges[i].Start > r.Start })
    self.Ranges = append(self.Ranges, Range{})
    copy(self.Ranges[i + 1:], self.Ranges[i:])
    self.Ranges[i] = r
    self.coalesce(gap)
}

func (self *Interval) coalesce(gap int) {
    for i := 0; i < len(self.Ranges) - 1; {
        p := &self.Ranges[i]
        q := self.Ranges[i + 1]

        /* not close enough, move on */
        if q.Start > p.Stop + gap {
            i++
            continue
        }

        /* merge the two ranges */
        p.Stop = maxint(p.Stop, q.Stop)
        self.Ranges = append(self.Ranges[:i + 1], self.Ranges[i + 2:]...)
    }
}

// shortenTo moves the start of the earliest range to i, when i lies within it.
func (self *Interval) shortenTo(i int) bool {
    if len(self.Ranges) == 0 || !self.Ranges[0].Contains(i) {
        return false
    } else {
        self.Ranges[0].Start = i
        return true
    }
}

func (self *Interval) AddUse(pos int, read bool, write bool) {
    self.Uses.Add(pos, read, write)
}

// FirstUse returns the first use position, or Never without any.
func (self *Interval) FirstUse() int {
    if u, ok := self.Uses.First(); ok {
        return u.Pos
    } else {
        return Never
    }
}

// NextIntersection returns the smallest position at which both intervals are
// live, or Never if they do not intersect.
func (self *Interval) NextIntersection(other *Interval) int {
    i, j := 0, 0
    p, q := self.Ranges, other.Ranges

    /* walk both range lists in order */
    for i < len(p) && j < len(q) {
        if s := maxint(p[i].Start, q[j].Start); s < minint(p[i].Stop, q[j].Stop) {
            return s
        } else if p[i].Stop <= q[j].Stop {
            i++
        } else {
            j++
        }
    }

    /* no intersection */
    return Never
}

// NextUsageOverlapping returns the earliest use of this interval at or after
// the start of other. Without such a use, the very first use is returned,
// since a loop may reach a textually earlier use again.
func (self *Interval) NextUsageOverlapping(other *Interval) int {
    if !other.IsEmpty() {
        if u, ok := self.Uses.AtOrAfter(other.Start()); ok {
            return u.Pos
        }
    }
    return self.FirstUse()
}

func (self *Interval) String() string {
    rs := make([]string, 0, len(self.Ranges))
    for _, r := range self.Ranges {
        rs = append(rs, r.String())
    }

    /* where the value lives */
    loc := "unassigned"
    if self.HasRegister() {
        loc = fmt.Sprintf("reg #%d", self.Phys)
    } else if self.Spilled {
        loc = fmt.Sprintf("slot %d(%s)", self.Offset, self.Base)
    }

    /* join them together */
    return fmt.Sprintf(
        "%s <- %s: %s uses %s, %s",
        self.Vreg,
        self.Parent,
        strings.Join(rs, " "),
        self.Uses,
        loc,
    )
}

func minint(a int, b int) int {
    if a < b {
        return a
    } else {
        return b
    }
}

func maxint(a int, b int) int {
    if a > b {
        return a
    } else {
        return b
    }
}
