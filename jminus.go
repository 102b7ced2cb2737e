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


package jminus

import (
    `fmt`
    `io`
    `log/slog`
    `strconv`

    `github.com/cloudwego/jminus/internal/opts`
    `github.com/cloudwego/jminus/internal/regalloc`
    `github.com/cloudwego/jminus/internal/spim`
    `github.com/cloudwego/jminus/lir`
)

// Location is where a virtual register lives at some program point: either
// a physical register, or a word in the stack frame.
type Location struct {
    Register string
    Offset   int
    Base     string
}

func (self Location) InMemory() bool {
    return self.Register == "" && self.Base != ""
}

func (self Location) String() string {
    if self.Register != "" {
        return self.Register
    } else if self.Base != "" {
        return fmt.Sprintf("%d(%s)", self.Offset, self.Base)
    } else {
        return "<nowhere>"
    }
}

func location(v regalloc.Location) Location {
    if v.InRegister() {
        return Location { Register: v.Reg }
    } else if v.IsValid() {
        return Location { Offset: v.Offset, Base: v.Base.String() }
    } else {
        return Location{}
    }
}

// Assignment is the home of one interval, a virtual register or a piece of
// it split by the allocator.
type Assignment struct {
    Vreg     lir.Reg
    Parent   lir.Reg
    Start    int
    Stop     int
    Location Location
}

// Result is the allocation of one procedure.
type Result struct {
    ctx      *regalloc.Context
    strategy regalloc.Strategy
}

func (self *Result) Name() string {
    return self.ctx.CFG.Name
}

func (self *Result) Strategy() string {
    return self.strategy.String()
}

// Location returns where v lives at instruction id i.
func (self *Result) Location(v lir.Reg, i int) Location {
    return location(self.ctx.LocationAt(v, i))
}

// Assignments lists the home of every interval, including the split pieces,
// ordered by virtual register.
func (self *Result) Assignments() []Assignment {
    ivs := self.ctx.Intervals()
    ret := make([]Assignment, 0, len(ivs))

    /* convert every interval */
    for _, iv := range ivs {
        ret = append(ret, Assignment {
            Vreg     : iv.Vreg,
            Parent   : iv.Parent,
            Start    : iv.Start(),
            Stop     : iv.Stop(),
            Location : location(self.ctx.Location(iv)),
        })
    }

    /* all done */
    return ret
}

func (self *Result) Intervals() int     { return len(self.ctx.Intervals()) }
func (self *Result) SpillCount() int    { return self.ctx.SpillCount() }
func (self *Result) SplitCount() int    { return self.ctx.SplitCount() }
func (self *Result) RegistersUsed() int { return self.ctx.RegistersUsed() }
func (self *Result) FrameSize() int     { return self.ctx.FrameSize() }

// Verify checks the allocation against the liveness of the procedure.
func (self *Result) Verify() error {
    if err := regalloc.Verify(self.ctx); err != nil {
        return internalError(self.ctx.CFG.Name, err)
    } else {
        return nil
    }
}

// EmitSPIM rewrites the procedure into SPIM assembly.
func (self *Result) EmitSPIM() (string, error) {
    return spim.Emit(self.ctx)
}

// DrawSVG renders the intervals and their assignments as an SVG image.
func (self *Result) DrawSVG(w io.Writer) {
    regalloc.DrawIntervals(w, self.ctx)
}

func internalError(proc string, err error) error {
    if e, ok := err.(*regalloc.InvariantError); !ok {
        return err
    } else if e.Proc != "" {
        return InternalError { Proc: e.Proc, Reason: e.Reason }
    } else {
        return InternalError { Proc: proc, Reason: e.Reason }
    }
}

func options(vv []Option) (opts.Options, regalloc.Strategy, error) {
    o := opts.GetDefaultOptions()
    for _, fn := range vv {
        fn(&o)
    }

    /* use the default logger if not specified */
    if o.Logger == nil {
        o.Logger = slog.Default()
    }

    /* check the register count */
    if !o.ValidRegisters() {
        return o, 0, ConfigError {
            Option : "registers",
            Value  : strconv.Itoa(o.Registers),
            Reason : fmt.Sprintf("must be within %d and %d", opts.MinRegisters, opts.MaxRegisters),
        }
    }

    /* check the merge gap */
    if o.MergeGap < 0 {
        return o, 0, ConfigError {
            Option : "merge-gap",
            Value  : strconv.Itoa(o.MergeGap),
            Reason : "must not be negative",
        }
    }

    /* parse the strategy */
    s, ok := regalloc.ParseStrategy(o.Strategy)
    if !ok {
        return o, 0, ConfigError {
            Option : "strategy",
            Value  : o.Strategy,
            Reason : "must be one of naive, linear or graph",
        }
    }

    /* all done */
    return o, s, nil
}

// Allocate assigns a physical register or a stack slot to every virtual
// register of the procedure. Running out of registers is never an error, it
// only results in more spills.
func Allocate(cfg *lir.CFG, opts ...Option) (ret *Result, err error) {
    o, s, err := options(opts)
    if err != nil {
        return nil, err
    }

    /* must have a procedure */
    if cfg == nil {
        return nil, InternalError { Reason: "nil CFG" }
    }

    /* invariant violations are reported as errors, anything else is a real panic */
    defer func() {
        if v := recover(); v != nil {
            if e, ok := v.(*regalloc.InvariantError); ok {
                ret, err = nil, internalError(cfg.Name, e)
            } else {
                panic(v)
            }
        }
    }()

    /* build the intervals, then allocate */
    ctx := regalloc.NewContext(cfg, regalloc.NewRegisterPool(o.Registers), o.MergeGap, o.Logger)
    regalloc.BuildIntervals(ctx)
    regalloc.NewAllocator(s).Allocate(ctx)
    ret = &Result { ctx: ctx, strategy: s }

    /* verify the allocation if needed */
    if o.Verify {
        if err = ret.Verify(); err != nil {
            return nil, err
        }
    }

    /* all done */
    o.Logger.Debug("procedure allocated",
        "proc", cfg.Name,
        "strategy", s.String(),
        "spills", ret.SpillCount(),
        "splits", ret.SplitCount(),
        "registers", ret.RegistersUsed(),
    )
    return ret, nil
}

// AllocateAll allocates every procedure with the same options, and stops at
// the first failure.
func AllocateAll(cfgs []*lir.CFG, opts ...Option) ([]*Result, error) {
    ret := make([]*Result, 0, len(cfgs))
    for _, cfg := range cfgs {
        if res, err := Allocate(cfg, opts...); err != nil {
            return nil, err
        } else {
            ret = append(ret, res)
        }
    }
    return ret, nil
}
