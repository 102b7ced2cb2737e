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
    `sort`
    `strings`

    `github.com/cloudwego/jminus/lir`
    `github.com/google/btree`
)

// Range is a half-open span [Start, Stop) of instruction ids.
type Range struct {
    Start int
    Stop  int
}

func (self Range) Contains(i int) bool {
    return i >= self.Start && i < self.Stop
}

func (self Range) String() string {
    return fmt.Sprintf("[%d, %d)", self.Start, self.Stop)
}

// UsePosition records whether a register is read or written at Pos.
type UsePosition struct {
    Pos   int
    Read  bool
    Write bool
}

func (self UsePosition) String() string {
    switch {
        case self.Read && self.Write : return fmt.Sprintf("%d:rw", self.Pos)
        case self.Write              : return fmt.Sprintf("%d:w", self.Pos)
        default                      : return fmt.Sprintf("%d:r", self.Pos)
    }
}

// UsePositions is an ordered map from instruction id to UsePosition.
type UsePositions struct {
    t *btree.BTreeG[UsePosition]
}

func uselessthan(a UsePosition, b UsePosition) bool {
    return a.Pos < b.Pos
}

func newUsePositions() *UsePositions {
    return &UsePositions { t: btree.NewG[UsePosition](8, uselessthan) }
}

// Add records a use at pos, merging the read/write flags of an existing entry.
func (self *UsePositions) Add(pos int, read bool, write bool) {
    if u, ok := self.t.Get(UsePosition { Pos: pos }); ok {
        read = read || u.Read
        write = write || u.Write
    }
    self.t.ReplaceOrInsert(UsePosition {
        Pos   : pos,
        Read  : read,
        Write : write,
    })
}

func (self *UsePositions) Get(pos int) (UsePosition, bool) {
    return self.t.Get(UsePosition { Pos: pos })
}

func (self *UsePositions) Len() int {
    return self.t.Len()
}

func (self *UsePositions) First() (UsePosition, bool) {
    return self.t.Min()
}

func (self *UsePositions) Last() (UsePosition, bool) {
    return self.t.Max()
}

// AtOrAfter returns the nearest use position at or after pos.
func (self *UsePositions) AtOrAfter(pos int) (ret UsePosition, ok bool) {
    self.t.AscendGreaterOrEqual(UsePosition { Pos: pos }, func(u UsePosition) bool {
        ret, ok = u, true
        return false
    })
    return
}

// AtOrBefore returns the nearest use position at or before pos.
func (self *UsePositions) AtOrBefore(pos int) (ret UsePosition, ok bool) {
    self.t.DescendLessOrEqual(UsePosition { Pos: pos }, func(u UsePosition) bool {
        ret, ok = u, true
        return false
    })
    return
}

// ForEach visits every use position in increasing order until fn returns false.
func (self *UsePositions) ForEach(fn func(u UsePosition) bool) {
    self.t.Ascend(fn)
}

func (self *UsePositions) splitFrom(pos int) *UsePositions {
    ret := newUsePositions()
    buf := make([]UsePosition, 0, 4)

    /* collect everything at or after pos */
    self.t.AscendGreaterOrEqual(UsePosition { Pos: pos }, func(u UsePosition) bool {
        buf = append(buf, u)
        return true
    })

    /* move them to the new set */
    for _, u := range buf {
        self.t.Delete(u)
        ret.t.ReplaceOrInsert(u)
    }

    /* all done */
    return ret
}

func (self *UsePositions) String() string {
    buf := make([]string, 0, self.t.Len())

    /* add every position */
    self.ForEach(func(u UsePosition) bool {
        buf = append(buf, u.String())
        return true
    })

    /* join them together */
    return fmt.Sprintf(
        "{%s}",
        strings.Join(buf, ", "),
    )
}

type RegSet map[lir.Reg]struct{}

func regset(rr ...lir.Reg) (rs RegSet) {
    rs = make(RegSet, len(rr))
    for _, r := range rr { rs.add(r) }
    return
}

func (self RegSet) add(r lir.Reg) {
    self[r] = struct{}{}
}

func (self RegSet) has(r lir.Reg) bool {
    _, ok := self[r]
    return ok
}

func (self RegSet) union(rs RegSet) {
    for r := range rs {
        self.add(r)
    }
}

func (self RegSet) subtract(rs RegSet) {
    for r := range rs {
        delete(self, r)
    }
}

func (self RegSet) clone() (rs RegSet) {
    rs = make(RegSet, len(self))
    for r := range self { rs.add(r) }
    return
}

func (self RegSet) equals(rs RegSet) bool {
    if len(self) != len(rs) {
        return false
    }
    for r := range self {
        if !rs.has(r) {
            return false
        }
    }
    return true
}

func (self RegSet) toslice() []lir.Reg {
    nb := len(self)
    rr := make([]lir.Reg, 0, nb)

    /* extract all registers */
    for r := range self {
        rr = append(rr, r)
    }

    /* sort by register ID */
    sort.Slice(rr, func(i int, j int) bool { return rr[i] < rr[j] })
    return rr
}

func (self RegSet) String() string {
    nb := len(self)
    rs := make([]string, 0, nb)

    /* convert every register */
    for _, r := range self.toslice() {
        rs = append(rs, r.String())
    }

    /* join them together */
    return fmt.Sprintf(
        "{%s}",
        strings.Join(rs, ", "),
    )
}
