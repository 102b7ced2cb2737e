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
    `html`
    `strings`
)

func dumpbb(bb *BasicBlock) string {
    var w int
    var ins []string

    /* escape every instruction */
    for _, v := range bb.Ins {
        ss := fmt.Sprintf("%4d: %s", v.Id, v)
        vv := strings.ReplaceAll(html.EscapeString(ss), " ", "&nbsp;")
        ins = append(ins, fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", vv))
        if len(ss) > w {
            w = len(ss)
        }
    }

    /* predecessor list */
    pred := make([]string, 0, len(bb.Pred))
    for _, d := range bb.Pred {
        pred = append(pred, d.String())
    }

    /* block metadata */
    meta := fmt.Sprintf("# pred = {%s}", strings.Join(pred, ", "))
    if len(meta) > w {
        w = len(meta)
    }

    /* build the table */
    buf := []string {
        "<table border=\"1\" cellborder=\"0\" cellspacing=\"0\">\n",
        fmt.Sprintf("<tr><td width=\"%d\">%s (%s)</td></tr>\n", w * 10 + 5, bb, html.EscapeString(bb.Label)),
        "<hr/>\n",
        fmt.Sprintf("<tr><td align=\"left\">%s</td></tr>\n", meta),
        "<hr/>\n",
    }

    /* join them together */
    buf = append(buf, ins...)
    buf = append(buf, "</table>")
    return strings.Join(buf, "")
}

// Dot renders the CFG in Graphviz DOT format.
func (self *CFG) Dot() string {
    buf := []string {
        "digraph CFG {",
        `    graph [ fontname = "Fira Code" ]`,
        `    node [ fontname = "Fira Code" fontsize="16" shape = "plaintext" ]`,
        `    edge [ fontname = "Fira Code" ]`,
        `    START [ shape = "circle" ]`,
        fmt.Sprintf(`    START -> %s`, self.Root),
    }

    /* add every reachable block */
    self.ForEach(func(p *BasicBlock) {
        buf = append(buf, fmt.Sprintf(`    %s [ label = < %s > ]`, p, dumpbb(p)))

        /* the taken edge of a conditional branch comes first */
        for i, ln := range p.Succ {
            if t := p.Terminator(); t != nil && t.Kind == Branch && len(p.Succ) > 1 {
                if i == 0 {
                    buf = append(buf, fmt.Sprintf(`    %s -> %s [ label = "%s" ]`, p, ln, t.Op))
                } else {
                    buf = append(buf, fmt.Sprintf(`    %s -> %s [ label = "otherwise" ]`, p, ln))
                }
            } else {
                buf = append(buf, fmt.Sprintf(`    %s -> %s [ label = "goto" ]`, p, ln))
            }
        }
    })

    /* join them together */
    buf = append(buf, "}")
    return strings.Join(buf, "\n")
}
