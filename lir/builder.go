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
)

type _Item struct {
    label string
    instr *Instr
}

// Builder assembles a procedure from a flat list of labels and instructions.
type Builder struct {
    name  string
    items []_Item
}

func CreateBuilder(name string) *Builder {
    return &Builder { name: name }
}

func (self *Builder) add(p *Instr) *Instr {
    self.items = append(self.items, _Item { instr: p })
    return p
}

// Label marks the start of a new basic block.
func (self *Builder) Label(name string) {
    self.items = append(self.items, _Item { label: name })
}

// Append adds a pre-constructed instruction, its Id is re-assigned on Build.
func (self *Builder) Append(p *Instr) *Instr {
    return self.add(p)
}

// Ins adds a plain instruction.
func (self *Builder) Ins(op string, defs []Reg, uses []Reg) *Instr {
    return self.add(&Instr { Op: op, Defs: defs, Uses: uses })
}

// Imm adds a plain instruction with an immediate operand.
func (self *Builder) Imm(op string, imm int64, defs []Reg, uses []Reg) *Instr {
    return self.add(&Instr { Op: op, Defs: defs, Uses: uses, Imm: imm, HasImm: true })
}

// Branch adds a conditional branch to label `to`, falling through otherwise.
func (self *Builder) Branch(op string, to string, uses ...Reg) *Instr {
    return self.add(&Instr { Op: op, Kind: Branch, Uses: uses, Target: to })
}

// Jump adds an unconditional jump to label `to`.
func (self *Builder) Jump(to string) *Instr {
    return self.add(&Instr { Op: "j", Kind: Jump, Target: to })
}

// Return adds a procedure return, rr are the values returned.
func (self *Builder) Return(rr ...Reg) *Instr {
    return self.add(&Instr { Op: "ret", Kind: Return, Uses: rr })
}

func (self *Builder) segment() []*BasicBlock {
    var bb *BasicBlock
    var ret []*BasicBlock

    /* close the current block, empty blocks get a placeholder */
    flush := func() {
        if bb != nil {
            if len(bb.Ins) == 0 {
                bb.Ins = append(bb.Ins, &Instr { Op: "nop" })
            }
            ret = append(ret, bb)
            bb = nil
        }
    }

    /* split at labels and after terminators */
    for _, v := range self.items {
        if v.instr == nil {
            flush()
            bb = &BasicBlock { Label: v.label }
        } else {
            if bb == nil { bb = new(BasicBlock) }
            if bb.Ins = append(bb.Ins, v.instr); v.instr.IsTerminator() { flush() }
        }
    }

    /* the trailing block */
    flush()
    return ret
}

// Build constructs the CFG, assigning instruction ids and linking the blocks.
func (self *Builder) Build() (*CFG, error) {
    id := 0
    nr := Reg(-1)
    bbs := self.segment()
    labels := make(map[string]*BasicBlock, len(bbs))

    /* must have at least one block */
    if len(bbs) == 0 {
        return nil, fmt.Errorf("lir: empty procedure %q", self.name)
    }

    /* number all the blocks and instructions */
    for i, bb := range bbs {
        bb.Id = i

        /* synthesize a label if needed */
        if bb.Label == "" {
            bb.Label = fmt.Sprintf("%s_bb_%d", self.name, i)
        }

        /* check for duplicated labels */
        if _, ok := labels[bb.Label]; ok {
            return nil, fmt.Errorf("lir: duplicated label %q in %q", bb.Label, self.name)
        }

        /* assign instruction IDs */
        for _, p := range bb.Ins {
            p.Id = id
            id += IdStride

            /* find the maximum register */
            for _, r := range p.Defs { if r > nr { nr = r } }
            for _, r := range p.Uses { if r > nr { nr = r } }
        }

        /* add to label map */
        labels[bb.Label] = bb
    }

    /* link the successors */
    for i, bb := range bbs {
        var next *BasicBlock
        var term = bb.Ins[len(bb.Ins) - 1]

        /* the fall-through block */
        if i != len(bbs) - 1 {
            next = bbs[i + 1]
        }

        /* check for branch targets */
        switch term.Kind {
            case Plain: {
                if next != nil {
                    link(bb, next)
                }
            }

            /* conditional branch, taken edge comes first */
            case Branch: {
                to, err := resolve(labels, term, self.name)
                if err != nil {
                    return nil, err
                }
                if link(bb, to); next != nil {
                    link(bb, next)
                }
            }

            /* unconditional jump */
            case Jump: {
                to, err := resolve(labels, term, self.name)
                if err != nil {
                    return nil, err
                }
                link(bb, to)
            }
        }
    }

    /* construct the CFG */
    return &CFG {
        Name    : self.name,
        Root    : bbs[0],
        Blocks  : bbs,
        NumRegs : int(nr + 1),
    }, nil
}

func resolve(labels map[string]*BasicBlock, p *Instr, name string) (*BasicBlock, error) {
    if bb, ok := labels[p.Target]; ok {
        return bb, nil
    } else {
        return nil, fmt.Errorf("lir: undefined label %q in %q", p.Target, name)
    }
}

func link(from *BasicBlock, to *BasicBlock) {
    for _, p := range from.Succ {
        if p == to {
            return
        }
    }
    from.Succ = append(from.Succ, to)
    to.Pred = append(to.Pred, from)
}
