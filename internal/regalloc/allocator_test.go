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
    `testing`

    `github.com/brianvoe/gofakeit/v6`
    `github.com/cloudwego/jminus/lir`
    `github.com/davecgh/go-spew/spew`
    `github.com/stretchr/testify/require`
)

// four mutually overlapping values, three registers
func overlapping() *Context {
    ctx := newTestContext(3)
    addInterval(ctx, 0, Range { 0, 10 }, 0, 9)
    addInterval(ctx, 1, Range { 2, 12 }, 2, 11)
    addInterval(ctx, 2, Range { 4, 14 }, 4, 13)
    addInterval(ctx, 3, Range { 6, 8 }, 6, 7)
    return ctx
}

// two values live across the entire procedure, one register
func interleaved() *Context {
    ctx := newTestContext(1)
    addInterval(ctx, 0, Range { 0, 20 }, 0, 10)
    addInterval(ctx, 1, Range { 0, 20 }, 5, 15)
    return ctx
}

func TestStrategy_Parse(t *testing.T) {
    for _, s := range []Strategy { Naive, Linear, Graph } {
        v, ok := ParseStrategy(s.String())
        require.True(t, ok)
        require.Equal(t, s, v)
    }
    _, ok := ParseStrategy("optimal")
    require.False(t, ok)
    require.Panics(t, func() { NewAllocator(Strategy(42)) })
}

func TestLinear_Overlapping(t *testing.T) {
    ctx := overlapping()
    NewAllocator(Linear).Allocate(ctx)
    require.NoError(t, Verify(ctx))

    /* a, b and c get distinct registers */
    a, b, c, d := ctx.Lookup(0), ctx.Lookup(1), ctx.Lookup(2), ctx.Lookup(3)
    require.Equal(t, 0, a.Phys)
    require.Equal(t, 1, b.Phys)
    require.Equal(t, 2, c.Phys)

    /* c is needed last, so it is split and d takes its register */
    require.Equal(t, c.Phys, d.Phys)
    require.Equal(t, []Range {{ 4, 6 }}, c.Ranges)
    require.Len(t, c.Children, 1)
    tail := ctx.Lookup(c.Children[0])
    require.True(t, tail.Spilled)
    require.Equal(t, []Range {{ 6, 14 }}, tail.Ranges)
    require.Equal(t, "0($sp)", ctx.LocationAt(2, 13).String())

    /* exactly one spill */
    require.Equal(t, 1, ctx.SpillCount())
    require.Equal(t, 1, ctx.SplitCount())
    require.Equal(t, 3, ctx.RegistersUsed())
}

func TestLinear_Interleaved(t *testing.T) {
    ctx := interleaved()
    NewAllocator(Linear).Allocate(ctx)
    require.NoError(t, Verify(ctx))
    require.Equal(t, 1, ctx.SpillCount())
    require.Equal(t, 0, ctx.SplitCount())

    /* the survivor keeps the register for its entire liveness */
    x, y := ctx.Lookup(0), ctx.Lookup(1)
    require.Equal(t, 0, x.Phys)
    require.Empty(t, x.Children)
    require.Equal(t, []Range {{ 0, 20 }}, x.Ranges)
    require.True(t, y.Spilled)
}

func TestGraph_Overlapping(t *testing.T) {
    ctx := overlapping()
    NewAllocator(Graph).Allocate(ctx)
    require.NoError(t, Verify(ctx))

    /* a is needed last, its tail is spilled */
    a := ctx.Lookup(0)
    require.Equal(t, []Range {{ 0, 6 }}, a.Ranges)
    require.True(t, a.HasRegister())
    require.Equal(t, ctx.Lookup(3).Phys, a.Phys)
    require.Equal(t, 1, ctx.SpillCount())
    require.Equal(t, 1, ctx.SplitCount())
    require.Equal(t, 3, ctx.RegistersUsed())
}

func TestGraph_Interleaved(t *testing.T) {
    ctx := interleaved()
    NewAllocator(Graph).Allocate(ctx)
    require.NoError(t, Verify(ctx))
    require.Equal(t, 1, ctx.SpillCount())
    require.Equal(t, 0, ctx.Lookup(0).Phys)
    require.True(t, ctx.Lookup(1).Spilled)
}

func TestGraph_Colorable(t *testing.T) {
    ctx := newTestContext(2)
    addInterval(ctx, 0, Range { 0, 10 }, 0, 5)
    addInterval(ctx, 1, Range { 5, 20 }, 5, 15)
    addInterval(ctx, 2, Range { 10, 30 }, 10, 25)
    NewAllocator(Graph).Allocate(ctx)
    require.NoError(t, Verify(ctx))
    require.Equal(t, 0, ctx.SpillCount())
    require.Equal(t, ctx.Lookup(0).Phys, ctx.Lookup(2).Phys)
    require.NotEqual(t, ctx.Lookup(0).Phys, ctx.Lookup(1).Phys)
}

func TestNaive_Allocate(t *testing.T) {
    ctx := overlapping()
    NewAllocator(Naive).Allocate(ctx)
    require.NoError(t, Verify(ctx))
    require.Equal(t, 4, ctx.SpillCount())
    require.Equal(t, 0, ctx.RegistersUsed())
    require.Equal(t, 16, ctx.FrameSize())
    for i := 0; i < 4; i++ {
        require.Equal(t, fmt.Sprintf("%d($fp)", i * WordSize), ctx.LocationAt(lir.Reg(i), 0).String())
    }
}

// randomProc generates a procedure with random control flow and operands.
func randomProc(f *gofakeit.Faker, name string) *lir.CFG {
    p := lir.CreateBuilder(name)
    nb := f.Number(1, 6)
    nr := f.Number(1, 10)

    /* pick a random register */
    reg := func() lir.Reg {
        return lir.Reg(f.Number(0, nr - 1))
    }

    /* generate every block */
    for i := 0; i < nb; i++ {
        p.Label(fmt.Sprintf("L%d", i))

        /* block body */
        for n := f.Number(1, 5); n > 0; n-- {
            var defs []lir.Reg
            var uses []lir.Reg
            for m := f.Number(0, 2); m > 0; m-- { uses = append(uses, reg()) }
            if f.Bool() { defs = append(defs, reg()) }
            p.Ins("op", defs, uses)
        }

        /* block terminator */
        if i == nb - 1 {
            p.Return(reg())
        } else {
            switch f.Number(0, 3) {
                case 1: p.Branch("bnez", fmt.Sprintf("L%d", f.Number(0, nb - 1)), reg())
                case 2: p.Jump(fmt.Sprintf("L%d", f.Number(0, nb - 1)))
                case 3: p.Return(reg())
            }
        }
    }

    /* build the CFG */
    cfg, err := p.Build()
    if err != nil {
        panic(err)
    }
    return cfg
}

func allocate(cfg *lir.CFG, s Strategy, n int) *Context {
    ctx := NewContext(cfg, NewRegisterPool(n), 5, nil)
    BuildIntervals(ctx)
    NewAllocator(s).Allocate(ctx)
    return ctx
}

func TestAllocator_RandomProcedures(t *testing.T) {
    f := gofakeit.New(20221021)
    for i := 0; i < 200; i++ {
        cfg := randomProc(f, fmt.Sprintf("rand_%d", i))
        for _, s := range []Strategy { Naive, Linear, Graph } {
            n := f.Number(MinRegisters, 6)
            ctx := allocate(cfg, s, n)
            if err := Verify(ctx); err != nil {
                t.Log(cfg.Dot())
                t.Log(spew.Sdump(ctx.Intervals()))
                require.NoError(t, err, "strategy %s with %d registers", s, n)
            }
            require.LessOrEqual(t, ctx.RegistersUsed(), n)
        }
    }
}

func TestAllocator_Idempotent(t *testing.T) {
    f := gofakeit.New(7)
    for i := 0; i < 50; i++ {
        cfg := randomProc(f, fmt.Sprintf("rerun_%d", i))
        for _, s := range []Strategy { Linear, Graph } {
            c1 := allocate(cfg, s, 3)
            c2 := allocate(cfg, s, 3)
            require.Equal(t, c1.SpillCount(), c2.SpillCount())
            require.Equal(t, c1.RegistersUsed(), c2.RegistersUsed())
            require.Equal(t, c1.FrameSize(), c2.FrameSize())
        }
    }
}
