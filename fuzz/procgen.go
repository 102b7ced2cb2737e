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


package fuzz

import (
	"bytes"
	"fmt"

	gofakeit "github.com/brianvoe/gofakeit/v6"
	"github.com/cloudwego/jminus/lir"
	"gopkg.in/yaml.v3"
)

// Item is one line of a procedure fixture, a label or an instruction.
type Item struct {
	Label  string `yaml:"label,omitempty"`
	Op     string `yaml:"op,omitempty"`
	Kind   string `yaml:"kind,omitempty"`
	Defs   []int  `yaml:"defs,omitempty,flow"`
	Uses   []int  `yaml:"uses,omitempty,flow"`
	Imm    *int64 `yaml:"imm,omitempty"`
	Target string `yaml:"target,omitempty"`
}

type Proc struct {
	Name string `yaml:"name"`
	Code []Item `yaml:"code"`
}

type Document struct {
	Procedures []Proc `yaml:"procedures"`
}

var (
	PlainOps  = []string{"addu", "subu", "mul", "and", "or", "slt", "move"}
	BranchOps = []string{"beqz", "bnez", "bgez", "bltz"}
)

// Limits bounds the shape of the generated procedures.
type Limits struct {
	Blocks    int
	Registers int
	BlockSize int
}

var DefaultLimits = Limits{
	Blocks:    6,
	Registers: 10,
	BlockSize: 5,
}

// Generate builds a random procedure with random control flow and operands.
func Generate(f *gofakeit.Faker, name string, lim Limits) Proc {
	nb := f.Number(1, lim.Blocks)
	nr := f.Number(1, lim.Registers)
	ret := Proc{Name: name}
	reg := func() int { return f.Number(0, nr-1) }
	label := func(i int) string { return fmt.Sprintf("%s_L%d", name, i) }

	for i := 0; i < nb; i++ {
		ret.Code = append(ret.Code, Item{Label: label(i)})

		// block body, at most two sources and one destination
		for n := f.Number(1, lim.BlockSize); n > 0; n-- {
			it := Item{Op: f.RandomString(PlainOps)}
			for m := f.Number(0, 2); m > 0; m-- {
				it.Uses = append(it.Uses, reg())
			}
			if f.Bool() {
				it.Defs = append(it.Defs, reg())
			}
			if f.Bool() {
				imm := int64(f.Number(-100, 100))
				it.Imm = &imm
			}
			ret.Code = append(ret.Code, it)
		}

		// the last block always returns
		if i == nb-1 {
			ret.Code = append(ret.Code, Item{Op: "ret", Kind: "return", Uses: []int{reg()}})
			continue
		}

		// block terminator
		switch f.Number(0, 3) {
		case 1:
			ret.Code = append(ret.Code, Item{Op: f.RandomString(BranchOps), Kind: "branch", Uses: []int{reg()}, Target: label(f.Number(0, nb-1))})
		case 2:
			ret.Code = append(ret.Code, Item{Op: "j", Kind: "jump", Target: label(f.Number(0, nb-1))})
		case 3:
			ret.Code = append(ret.Code, Item{Op: "ret", Kind: "return", Uses: []int{reg()}})
		}
	}
	return ret
}

// Marshal encodes procedures in the fixture format read by lir.Load.
func Marshal(procs ...Proc) ([]byte, error) {
	return yaml.Marshal(Document{Procedures: procs})
}

// Build encodes then loads the procedures, so the result goes through the
// same path as a fixture file.
func Build(procs ...Proc) ([]*lir.CFG, error) {
	buf, err := Marshal(procs...)
	if err != nil {
		return nil, err
	}
	return lir.Load(bytes.NewReader(buf))
}
