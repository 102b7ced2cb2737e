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
    `strings`
    `testing`

    `github.com/stretchr/testify/require`
)

func buildLoop(t *testing.T) *CFG {
    p := CreateBuilder("loop")
    p.Imm("li", 0, []Reg{0}, nil)
    p.Imm("li", 10, []Reg{1}, nil)
    p.Label("head")
    p.Branch("bge", "exit", 0, 1)
    p.Ins("addu", []Reg{2}, []Reg{2, 0})
    p.Imm("addiu", 1, []Reg{0}, []Reg{0})
    p.Jump("head")
    p.Label("exit")
    p.Return(2)
    cfg, err := p.Build()
    require.NoError(t, err)
    return cfg
}

func TestBuilder_Blocks(t *testing.T) {
    cfg := buildLoop(t)
    require.Equal(t, "loop", cfg.Name)
    require.Equal(t, 3, cfg.NumRegs)
    require.Len(t, cfg.Blocks, 4)
    require.Equal(t, cfg.Blocks[0], cfg.Root)

    /* entry: 2 instructions, falls through into head */
    entry, head, body, exit := cfg.Blocks[0], cfg.Blocks[1], cfg.Blocks[2], cfg.Blocks[3]
    require.Equal(t, 0, entry.First())
    require.Equal(t, 5, entry.Last())
    require.Equal(t, []*BasicBlock{head}, entry.Succ)

    /* head: a single branch, taken edge first */
    require.Equal(t, "head", head.Label)
    require.Equal(t, 10, head.First())
    require.Equal(t, []*BasicBlock{exit, body}, head.Succ)
    require.ElementsMatch(t, []*BasicBlock{entry, body}, head.Pred)

    /* body: jumps back */
    require.True(t, strings.HasPrefix(body.Label, "loop_bb_"))
    require.Equal(t, []*BasicBlock{head}, body.Succ)
    require.Equal(t, 25, body.Last())
    require.Equal(t, Jump, body.Terminator().Kind)

    /* exit: returns */
    require.Empty(t, exit.Succ)
    require.Equal(t, 30, exit.First())
    require.Equal(t, Return, exit.Terminator().Kind)
}

func TestBuilder_Lookup(t *testing.T) {
    cfg := buildLoop(t)
    require.Equal(t, cfg.Blocks[2], cfg.Block(20))
    require.Equal(t, cfg.Blocks[0], cfg.Block(0))
    require.Nil(t, cfg.Block(31))
    require.Equal(t, "addiu", cfg.Instr(20).Op)
    require.Nil(t, cfg.Instr(21))
    require.True(t, cfg.Instr(15).Reads(2))
    require.True(t, cfg.Instr(15).Writes(2))
    require.False(t, cfg.Instr(15).Writes(0))
}

func TestBuilder_EmptyLabel(t *testing.T) {
    p := CreateBuilder("empty")
    p.Label("a")
    p.Label("b")
    p.Return()
    cfg, err := p.Build()
    require.NoError(t, err)
    require.Len(t, cfg.Blocks, 2)
    require.Equal(t, "nop", cfg.Blocks[0].Ins[0].Op)
    require.Equal(t, []*BasicBlock{cfg.Blocks[1]}, cfg.Blocks[0].Succ)
}

func TestBuilder_Errors(t *testing.T) {
    _, err := CreateBuilder("none").Build()
    require.Error(t, err)

    p := CreateBuilder("bad")
    p.Jump("nowhere")
    _, err = p.Build()
    require.ErrorContains(t, err, "nowhere")

    p = CreateBuilder("dup")
    p.Label("x")
    p.Return()
    p.Label("x")
    p.Return()
    _, err = p.Build()
    require.ErrorContains(t, err, "duplicated")
}

func TestCFG_ReversePostOrder(t *testing.T) {
    cfg := buildLoop(t)
    rpo := cfg.ReversePostOrder()
    require.Len(t, rpo, 4)
    require.Equal(t, cfg.Root, rpo[0])
    require.Equal(t, cfg.Blocks[1], rpo[1])
}

func TestCFG_Dot(t *testing.T) {
    cfg := buildLoop(t)
    dot := cfg.Dot()
    require.True(t, strings.HasPrefix(dot, "digraph CFG {"))
    require.Contains(t, dot, `bb_1 -> bb_3 [ label = "bge" ]`)
    require.Contains(t, dot, `bb_1 -> bb_2 [ label = "otherwise" ]`)
    require.Contains(t, dot, `bb_2 -> bb_1 [ label = "goto" ]`)
}
