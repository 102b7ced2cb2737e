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
    `testing`

    `github.com/cloudwego/jminus/lir`
    `github.com/stretchr/testify/require`
)

func mkinterval(v int, ranges ...Range) *Interval {
    iv := newInterval(lir.Reg(v))
    for i := len(ranges) - 1; i >= 0; i-- {
        iv.AddOrExtendRange(ranges[i], 0)
    }
    return iv
}

func TestInterval_AddOrExtendRange(t *testing.T) {
    iv := newInterval(0)
    iv.AddOrExtendRange(Range { 40, 46 }, 5)
    iv.AddOrExtendRange(Range { 20, 26 }, 5)
    require.Equal(t, []Range {{ 20, 26 }, { 40, 46 }}, iv.Ranges)

    /* nearly abutting, within the gap */
    iv.AddOrExtendRange(Range { 10, 16 }, 5)
    require.Equal(t, []Range {{ 10, 26 }, { 40, 46 }}, iv.Ranges)

    /* overlapping */
    iv.AddOrExtendRange(Range { 5, 12 }, 5)
    require.Equal(t, []Range {{ 5, 26 }, { 40, 46 }}, iv.Ranges)

    /* out of order, bridges the two ranges */
    iv.AddOrExtendRange(Range { 26, 40 }, 5)
    require.Equal(t, []Range {{ 5, 46 }}, iv.Ranges)

    /* out of order, after everything */
    iv.AddOrExtendRange(Range { 60, 61 }, 5)
    require.Equal(t, []Range {{ 5, 46 }, { 60, 61 }}, iv.Ranges)
    require.Equal(t, 5, iv.Start())
    require.Equal(t, 61, iv.Stop())
}

func TestInterval_AddOrExtendRangeGap(t *testing.T) {
    iv := newInterval(0)
    iv.AddOrExtendRange(Range { 10, 11 }, 0)
    iv.AddOrExtendRange(Range { 0, 6 }, 0)
    require.Equal(t, []Range {{ 0, 6 }, { 10, 11 }}, iv.Ranges)
    iv.AddOrExtendRange(Range { 6, 8 }, 0)
    require.Equal(t, []Range {{ 0, 8 }, { 10, 11 }}, iv.Ranges)
    require.Panics(t, func() { iv.AddOrExtendRange(Range { 3, 3 }, 0) })
}

func TestInterval_IsLiveAt(t *testing.T) {
    iv := mkinterval(0, Range { 0, 10 }, Range { 20, 30 })
    require.True(t, iv.IsLiveAt(0))
    require.True(t, iv.IsLiveAt(9))
    require.False(t, iv.IsLiveAt(10))
    require.False(t, iv.IsLiveAt(15))
    require.True(t, iv.IsLiveAt(20))
    require.False(t, iv.IsLiveAt(30))
    require.False(t, newInterval(1).IsLiveAt(0))
    require.Equal(t, Never, newInterval(1).Stop())
}

func TestInterval_NextIntersection(t *testing.T) {
    a := mkinterval(0, Range { 0, 10 }, Range { 20, 30 })
    b := mkinterval(1, Range { 10, 20 }, Range { 25, 40 })
    c := mkinterval(2, Range { 30, 40 })
    require.Equal(t, 25, a.NextIntersection(b))
    require.Equal(t, 25, b.NextIntersection(a))
    require.Equal(t, Never, a.NextIntersection(c))
    require.Equal(t, 30, b.NextIntersection(c))
    require.Equal(t, 0, a.NextIntersection(a))
}

func TestInterval_NextUsageOverlapping(t *testing.T) {
    a := mkinterval(0, Range { 0, 50 })
    a.AddUse(0, false, true)
    a.AddUse(15, true, false)
    a.AddUse(45, true, false)
    b := mkinterval(1, Range { 10, 20 })
    c := mkinterval(2, Range { 46, 60 })
    require.Equal(t, 15, a.NextUsageOverlapping(b))

    /* no use after the start of c, fall back to the first use */
    require.Equal(t, 0, a.NextUsageOverlapping(c))
    require.Equal(t, 0, a.FirstUse())
    require.Equal(t, Never, b.FirstUse())
}

func TestUsePositions_Queries(t *testing.T) {
    up := newUsePositions()
    up.Add(10, true, false)
    up.Add(20, false, true)
    up.Add(10, false, true)
    require.Equal(t, 2, up.Len())

    /* flags are merged */
    u, ok := up.Get(10)
    require.True(t, ok)
    require.True(t, u.Read)
    require.True(t, u.Write)

    /* nearest queries */
    u, ok = up.AtOrAfter(11)
    require.True(t, ok)
    require.Equal(t, 20, u.Pos)
    u, ok = up.AtOrBefore(19)
    require.True(t, ok)
    require.Equal(t, 10, u.Pos)
    _, ok = up.AtOrAfter(21)
    require.False(t, ok)
    _, ok = up.AtOrBefore(9)
    require.False(t, ok)

    /* splitting moves the tail */
    tail := up.splitFrom(15)
    require.Equal(t, 1, up.Len())
    require.Equal(t, 1, tail.Len())
    u, _ = tail.First()
    require.Equal(t, 20, u.Pos)
}

func TestRegSet_Operations(t *testing.T) {
    a := regset(3, 1, 2)
    b := regset(2, 4)
    c := a.clone()
    c.union(b)
    require.Equal(t, "{%1, %2, %3, %4}", c.String())
    c.subtract(regset(1, 4))
    require.True(t, c.equals(regset(2, 3)))
    require.False(t, c.equals(a))
    require.True(t, a.has(1))
    require.False(t, b.has(1))
}
