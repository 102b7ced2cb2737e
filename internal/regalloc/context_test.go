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

func newTestContext(n int) *Context {
    return NewContext(nil, NewRegisterPool(n), 5, nil)
}

func addInterval(ctx *Context, v int, r Range, uses ...int) *Interval {
    iv := ctx.Interval(lir.Reg(v))
    iv.AddOrExtendRange(r, ctx.MergeGap)
    for i, u := range uses {
        iv.AddUse(u, i != 0, i == 0)
    }
    return iv
}

func splitFamily(t *testing.T) (*Context, *Interval, *Interval, *Interval) {
    ctx := newTestContext(4)
    iv := ctx.Interval(0)
    iv.AddOrExtendRange(Range { 20, 30 }, 0)
    iv.AddOrExtendRange(Range { 0, 10 }, 0)
    iv.AddUse(0, false, true)
    iv.AddUse(8, true, false)
    iv.AddUse(22, true, false)
    iv.AddUse(28, true, false)

    /* split inside a range, then inside a hole */
    c1 := ctx.SplitAt(iv, 5)
    c2 := ctx.SplitAt(c1, 15)
    require.Equal(t, 2, ctx.SplitCount())
    return ctx, iv, c1, c2
}

func TestRegisterPool_Names(t *testing.T) {
    p := NewRegisterPool(3)
    require.Equal(t, 3, p.Size())
    require.Equal(t, []string { "$t0", "$t1", "$t2" }, p.Names())
    require.Equal(t, "$s7", NewRegisterPool(MaxRegisters).Name(17))
    require.Equal(t, 18, MaxRegisters)
    require.Panics(t, func() { NewRegisterPool(0) })
    require.Panics(t, func() { NewRegisterPool(19) })
}

func TestContext_SplitAt(t *testing.T) {
    ctx, iv, c1, c2 := splitFamily(t)
    require.Equal(t, []Range {{ 0, 5 }}, iv.Ranges)
    require.Equal(t, []Range {{ 5, 10 }}, c1.Ranges)
    require.Equal(t, []Range {{ 20, 30 }}, c2.Ranges)

    /* use positions follow the ranges */
    require.Equal(t, 1, iv.Uses.Len())
    require.Equal(t, 1, c1.Uses.Len())
    require.Equal(t, 2, c2.Uses.Len())
    require.Equal(t, 8, c1.FirstUse())
    require.Equal(t, 22, c2.FirstUse())

    /* every child belongs to the root */
    require.Equal(t, lir.Reg(1), c1.Vreg)
    require.Equal(t, lir.Reg(2), c2.Vreg)
    require.Equal(t, lir.Reg(0), c1.Parent)
    require.Equal(t, lir.Reg(0), c2.Parent)
    require.Equal(t, []lir.Reg { 1, 2 }, iv.Children)
    require.Equal(t, []*Interval { iv, c1, c2 }, ctx.Family(2))
    require.Equal(t, []*Interval { iv }, ctx.Roots())
    require.Len(t, ctx.Intervals(), 3)
    require.Equal(t, iv, ctx.Root(c2))

    /* invalid split points */
    require.Panics(t, func() { ctx.SplitAt(c2, 20) })
    require.Panics(t, func() { ctx.SplitAt(c2, 30) })
}

func TestContext_Spill(t *testing.T) {
    ctx, iv, c1, c2 := splitFamily(t)
    ctx.Assign(iv, 1)
    ctx.Spill(c2)
    require.True(t, c2.Spilled)
    require.Equal(t, 0, c2.Offset)
    require.Equal(t, StackPointer, c2.Base)

    /* the slot is shared with the rest of the family */
    require.Equal(t, StackPointer, c1.Base)
    require.Equal(t, StackPointer, iv.Base)
    ctx.Spill(c1)
    require.Equal(t, 0, c1.Offset)
    require.Equal(t, WordSize, ctx.FrameSize())

    /* another value gets another slot */
    other := addInterval(ctx, 3, Range { 0, 5 }, 0)
    ctx.SpillFrame(other)
    require.Equal(t, 4, other.Offset)
    require.Equal(t, FramePointer, other.Base)
    require.Equal(t, 8, ctx.FrameSize())
    require.Equal(t, 3, ctx.SpillCount())
    require.Equal(t, 1, ctx.RegistersUsed())
    require.True(t, iv.HasRegister())
}

func TestContext_ChildAt(t *testing.T) {
    ctx, iv, c1, c2 := splitFamily(t)
    require.Equal(t, iv, ctx.ChildAt(0, 3))
    require.Equal(t, c1, ctx.ChildAt(0, 7))
    require.Equal(t, c2, ctx.ChildAt(2, 25))
    require.Equal(t, c2, ctx.ChildAt(0, 15))
    require.Equal(t, c2, ctx.ChildAt(0, 100))
    require.Nil(t, ctx.ChildAt(10, 0))

    /* block boundaries */
    bb := &lir.BasicBlock { Ins: []*lir.Instr {{ Id: 10 }, { Id: 15 }} }
    require.Equal(t, c1, ctx.ChildAtOrEndingBefore(0, bb))
    require.Equal(t, c2, ctx.ChildAtOrStartingAfter(0, bb))

    /* a block in the middle of a piece */
    bb = &lir.BasicBlock { Ins: []*lir.Instr {{ Id: 20 }, { Id: 25 }} }
    require.Equal(t, c2, ctx.ChildAtOrEndingBefore(0, bb))
    require.Equal(t, c2, ctx.ChildAtOrStartingAfter(0, bb))
}

func TestContext_Location(t *testing.T) {
    ctx, iv, _, c2 := splitFamily(t)
    ctx.Assign(iv, 2)
    ctx.Spill(c2)
    require.Equal(t, "$t2", ctx.LocationAt(0, 0).String())
    require.True(t, ctx.LocationAt(0, 0).InRegister())
    require.Equal(t, "0($sp)", ctx.LocationAt(0, 25).String())
    require.False(t, ctx.LocationAt(0, 25).InRegister())
    require.False(t, ctx.LocationAt(0, 7).IsValid())
    require.False(t, ctx.LocationAt(9, 7).IsValid())
}
