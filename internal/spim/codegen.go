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


package spim

import (
    `fmt`
    `sort`
    `strconv`
    `strings`

    `github.com/cloudwego/jminus/internal/regalloc`
    `github.com/cloudwego/jminus/lir`
)

type _DeferBlock struct {
    ref string
    def func()
}

// CodeGen rewrites one allocated procedure into SPIM assembly.
type CodeGen struct {
    ctx   *regalloc.Context
    buf   strings.Builder
    frame _FrameInfo
    defs  []_DeferBlock
}

func CreateCodeGen(ctx *regalloc.Context) *CodeGen {
    return &CodeGen {
        ctx   : ctx,
        frame : newFrame(ctx),
    }
}

// Emit generates the SPIM assembly for an allocated procedure.
func Emit(ctx *regalloc.Context) (string, error) {
    return CreateCodeGen(ctx).Generate()
}

func (self *CodeGen) label(name string) {
    self.buf.WriteString(name)
    self.buf.WriteString(":\n")
}

func (self *CodeGen) ins(op string, args ...string) {
    self.buf.WriteByte('\t')
    self.buf.WriteString(op)

    /* add the operands */
    if len(args) != 0 {
        self.buf.WriteByte(' ')
        self.buf.WriteString(strings.Join(args, ", "))
    }

    /* end of line */
    self.buf.WriteByte('\n')
}

func (self *CodeGen) later(ref string, def func()) {
    self.defs = append(self.defs, _DeferBlock { ref, def })
}

// Generate emits the prologue, every block in layout order, then the edge
// stubs of conditional branches.
func (self *CodeGen) Generate() (string, error) {
    cfg := self.ctx.CFG
    self.label(cfg.Name)
    self.prologue()

    /* translate every block */
    for _, bb := range cfg.Blocks {
        if err := self.block(bb); err != nil {
            return "", err
        }
    }

    /* the deferred blocks */
    for _, v := range self.defs {
        self.label(v.ref)
        v.def()
    }

    /* all done */
    return self.buf.String(), nil
}

func (self *CodeGen) prologue() {
    if n := self.frame.size(); n != 0 {
        self.ins("subu", "$sp", "$sp", strconv.Itoa(n))
    }
    for i, r := range self.frame.saved {
        self.ins("sw", r, self.frame.rslot(i))
    }
    if self.frame.usefp {
        self.ins("sw", "$fp", self.frame.fpslot())
        self.ins("move", "$fp", "$sp")
    }
}

func (self *CodeGen) epilogue() {
    for i, r := range self.frame.saved {
        self.ins("lw", r, self.frame.rslot(i))
    }
    if self.frame.usefp {
        self.ins("lw", "$fp", self.frame.fpslot())
    }
    if n := self.frame.size(); n != 0 {
        self.ins("addu", "$sp", "$sp", strconv.Itoa(n))
    }
    self.ins("jr", "$ra")
}

func (self *CodeGen) next(bb *lir.BasicBlock) *lir.BasicBlock {
    if blocks := self.ctx.CFG.Blocks; bb.Id + 1 < len(blocks) {
        return blocks[bb.Id + 1]
    } else {
        return nil
    }
}

func (self *CodeGen) target(p *lir.Instr) *lir.BasicBlock {
    for _, bb := range self.ctx.CFG.Blocks {
        if bb.Label == p.Target {
            return bb
        }
    }
    panic(fmt.Sprintf("spim: undefined label %q in %s", p.Target, self.ctx.CFG.Name))
}

func (self *CodeGen) block(bb *lir.BasicBlock) error {
    nb := len(bb.Ins)
    self.label(bb.Label)

    /* translate every instruction */
    for i, p := range bb.Ins {
        if i != 0 {
            self.parallel(self.transitions(bb.Ins[i - 1].Id, p.Id))
        }

        /* terminators may need edge moves */
        switch p.Kind {
            case lir.Plain: {
                if err := self.translate(p); err != nil {
                    return err
                }
            }

            /* moves go before the jump */
            case lir.Jump: {
                self.parallel(self.edge(bb, self.target(p)))
                self.ins("j", p.Target)
            }

            /* taken edge goes through a stub, fall-through edge right after */
            case lir.Branch: {
                if err := self.branch(bb, p); err != nil {
                    return err
                }
            }

            /* function return */
            case lir.Return: {
                if err := self.ret(p); err != nil {
                    return err
                }
            }
        }
    }

    /* plain fall-through */
    if next := self.next(bb); next != nil && bb.Ins[nb - 1].Kind == lir.Plain {
        self.parallel(self.edge(bb, next))
    }
    return nil
}

func (self *CodeGen) location(v lir.Reg, i int) (regalloc.Location, error) {
    if loc := self.ctx.LocationAt(v, i); loc.IsValid() {
        return loc, nil
    } else {
        return loc, fmt.Errorf("spim: %s has no location at %d in %s", v, i, self.ctx.CFG.Name)
    }
}

// sources loads the spilled operands of p into scratch registers.
func (self *CodeGen) sources(p *lir.Instr) ([]string, error) {
    ns := 0
    ret := make([]string, 0, len(p.Uses))
    regs := make(map[lir.Reg]string, len(p.Uses))

    /* rewrite every source operand */
    for _, r := range p.Uses {
        loc, err := self.location(r, p.Id)
        if err != nil {
            return nil, err
        }

        /* in a register, or already loaded */
        if loc.InRegister() {
            ret = append(ret, loc.Reg)
            continue
        } else if v, ok := regs[r]; ok {
            ret = append(ret, v)
            continue
        }

        /* load into a scratch register */
        sr, err := scratch(p, ns)
        if err != nil {
            return nil, err
        }

        /* emit the reload */
        ns++
        regs[r] = sr
        ret = append(ret, sr)
        self.ins("lw", sr, loc.String())
    }

    /* all done */
    return ret, nil
}

func scratch(p *lir.Instr, i int) (string, error) {
    switch i {
        case 0  : return _ScratchA, nil
        case 1  : return _ScratchB, nil
        default : return "", fmt.Errorf("spim: too many spilled operands in %q", p.String())
    }
}

func (self *CodeGen) translate(p *lir.Instr) error {
    var err error
    var args []string
    var srcs []string
    var stores []_Move

    /* load the sources */
    if srcs, err = self.sources(p); err != nil {
        return err
    }

    /* rewrite the destinations */
    for i, r := range p.Defs {
        loc, err := self.location(r, p.Id)
        if err != nil {
            return err
        }

        /* in a register */
        if loc.InRegister() {
            args = append(args, loc.Reg)
            continue
        }

        /* goes through a scratch register */
        sr, err := scratch(p, i)
        if err != nil {
            return err
        }

        /* store after the instruction */
        args = append(args, sr)
        stores = append(stores, _Move { src: regalloc.Location { Reg: sr }, dst: loc })
    }

    /* emit the instruction */
    if args = append(args, srcs...); p.HasImm {
        args = append(args, strconv.FormatInt(p.Imm, 10))
    }

    /* spill the results */
    self.ins(p.Op, args...)
    for _, m := range stores {
        self.move(m.src, m.dst)
    }
    return nil
}

func (self *CodeGen) branch(bb *lir.BasicBlock, p *lir.Instr) error {
    to := self.target(p)
    args, err := self.sources(p)
    if err != nil {
        return err
    }

    /* immediate operand */
    if p.HasImm {
        args = append(args, strconv.FormatInt(p.Imm, 10))
    }

    /* moves on the taken edge go into a stub */
    lb := to.Label
    mm := self.edge(bb, to)

    /* redirect the branch to the stub */
    if len(mm) != 0 {
        lb = fmt.Sprintf("%s_%s", bb.Label, to.Label)
        self.later(lb, func() {
            self.parallel(mm)
            self.ins("j", to.Label)
        })
    }

    /* emit the branch, then the moves of the fall-through edge */
    if self.ins(p.Op, append(args, lb)...); self.next(bb) != nil {
        self.parallel(self.edge(bb, self.next(bb)))
    }
    return nil
}

func (self *CodeGen) ret(p *lir.Instr) error {
    if len(p.Uses) != 0 {
        loc, err := self.location(p.Uses[0], p.Id)
        if err != nil {
            return err
        }
        self.move(loc, regalloc.Location { Reg: "$v0" })
    }
    self.epilogue()
    return nil
}

func member(ctx *regalloc.Context, v lir.Reg, i int) *regalloc.Interval {
    for _, m := range ctx.Family(v) {
        if m.IsLiveAt(i) {
            return m
        }
    }
    return nil
}

// transitions returns the moves needed between two consecutive instructions
// of a block, where a split family changes its live member.
func (self *CodeGen) transitions(prev int, next int) []_Move {
    var ret []_Move
    for _, iv := range self.ctx.Roots() {
        p := member(self.ctx, iv.Vreg, prev)
        q := member(self.ctx, iv.Vreg, next)

        /* same piece, or not live across */
        if p == nil || q == nil || p == q {
            continue
        }

        /* transfer the value */
        ret = append(ret, _Move {
            src: self.ctx.Location(p),
            dst: self.ctx.Location(q),
        })
    }
    return ret
}

func sortedRegs(rs regalloc.RegSet) []lir.Reg {
    ret := make([]lir.Reg, 0, len(rs))
    for r := range rs {
        ret = append(ret, r)
    }
    sort.Slice(ret, func(i int, j int) bool { return ret[i] < ret[j] })
    return ret
}

// edge returns the moves needed on the control flow edge from -> to, for
// every value live into the successor.
func (self *CodeGen) edge(from *lir.BasicBlock, to *lir.BasicBlock) []_Move {
    var ret []_Move
    for _, v := range sortedRegs(self.ctx.LiveIn[to.Id]) {
        src := self.ctx.Location(self.ctx.ChildAtOrEndingBefore(v, from))
        dst := self.ctx.Location(self.ctx.ChildAtOrStartingAfter(v, to))

        /* only moves between valid and different locations */
        if src.IsValid() && dst.IsValid() && src != dst {
            ret = append(ret, _Move { src, dst })
        }
    }
    return ret
}
