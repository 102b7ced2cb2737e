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
    `io`
    `strings`

    `github.com/ajstarks/svgo`
)

const (
    _RowHeight   = 24
    _ColumnWidth = 8
)

// DrawIntervals renders the instructions of the procedure together with every
// interval as a vertical bar, use positions as dots (hollow for writes), and
// the assigned location on top of each bar.
func DrawIntervals(w io.Writer, ctx *Context) {
    ivs := ctx.Intervals()
    row := make(map[int]int)
    insw, regw, nrow := 0, 0, 0

    /* measure the instruction column */
    for _, bb := range ctx.CFG.Blocks {
        for _, p := range bb.Ins {
            if n := len(p.String()); n > insw {
                insw = n
            }
        }
    }

    /* measure the register columns */
    for _, iv := range ivs {
        if n := len(iv.Vreg.String() + ctx.Location(iv).String()) + 1; n > regw {
            regw = n
        }
    }

    /* convert to pixels */
    insw = insw * 9 + 120
    regw = regw * _ColumnWidth + 16

    /* count the rows */
    for _, bb := range ctx.CFG.Blocks {
        nrow += len(bb.Ins) + 1
    }

    /* start the drawing */
    p := svg.New(w)
    p.Start(len(ivs) * regw + insw + 100, nrow * _RowHeight + 100)
    p.Rect(0, 0, len(ivs) * regw + insw + 100, nrow * _RowHeight + 100, "fill:white")

    /* draw the instructions */
    i := 0
    for _, bb := range ctx.CFG.Blocks {
        p.Text(16, 100 + i * _RowHeight, bb.Label + ":", "fill:gray;font-size:16px;font-family:monospace")
        p.Line(10, 84 + i * _RowHeight, insw + 5, 84 + i * _RowHeight, "stroke:lightgray")
        i++

        /* one row per instruction */
        for _, ins := range bb.Ins {
            h := 95 + i * _RowHeight
            row[ins.Id] = h
            p.Text(insw, 100 + i * _RowHeight, strings.TrimSpace(ins.String()), "fill:black;font-size:16px;font-family:monospace;text-anchor:end")
            p.Line(insw + 10, h, len(ivs) * regw + insw + 50, h, "stroke:gray")
            i++
        }
    }

    /* draw the intervals */
    for j, iv := range ivs {
        x := insw + j * regw + 50
        style := "stroke:black;stroke-width:3"

        /* spilled intervals are dashed */
        if iv.Spilled {
            style += ";stroke-dasharray:4"
        }

        /* header */
        p.Text(x, 50, iv.Vreg.String(), "fill:black;font-size:16px;font-family:monospace;text-anchor:middle")
        p.Text(x, 70, ctx.Location(iv).String(), "fill:gray;font-size:12px;font-family:monospace;text-anchor:middle")

        /* one bar per range */
        for _, r := range iv.Ranges {
            if y0, y1, ok := rangerows(row, r); ok {
                p.Line(x, y0, x, y1, style)
            }
        }

        /* use positions */
        iv.Uses.ForEach(func(u UsePosition) bool {
            if u.Write {
                p.Circle(x, row[u.Pos], 4, "fill:white;stroke:black;stroke-width:2")
            } else {
                p.Circle(x, row[u.Pos], 4, "fill:black;stroke:black;stroke-width:2")
            }
            return true
        })
    }

    /* all done */
    p.End()
}

func rangerows(row map[int]int, r Range) (int, int, bool) {
    y0, y1 := -1, -1
    for id, y := range row {
        if r.Contains(id) {
            if y0 < 0 || y < y0 { y0 = y }
            if y1 < 0 || y > y1 { y1 = y }
        }
    }
    return y0, y1, y0 >= 0
}
