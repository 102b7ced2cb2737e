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
    `io`

    `gopkg.in/yaml.v3`
)

type _YamlInstr struct {
    Label  string `yaml:"label"`
    Op     string `yaml:"op"`
    Kind   string `yaml:"kind"`
    Defs   []Reg  `yaml:"defs"`
    Uses   []Reg  `yaml:"uses"`
    Imm    *int64 `yaml:"imm"`
    Target string `yaml:"target"`
}

type _YamlProc struct {
    Name string       `yaml:"name"`
    Code []_YamlInstr `yaml:"code"`
}

type _YamlFile struct {
    Procedures []_YamlProc `yaml:"procedures"`
}

// Load reads procedures described in YAML and builds a CFG for each of them.
func Load(r io.Reader) ([]*CFG, error) {
    var err error
    var doc _YamlFile

    /* decode the document */
    dec := yaml.NewDecoder(r)
    dec.KnownFields(true)

    /* an empty document is an error */
    if err = dec.Decode(&doc); err != nil {
        return nil, fmt.Errorf("lir: cannot decode procedures: %w", err)
    }

    /* build every procedure */
    ret := make([]*CFG, 0, len(doc.Procedures))
    for i, p := range doc.Procedures {
        var cfg *CFG
        if p.Name == "" { p.Name = fmt.Sprintf("proc_%d", i) }
        if cfg, err = p.build(); err != nil { return nil, err }
        ret = append(ret, cfg)
    }

    /* all done */
    return ret, nil
}

func (self *_YamlProc) build() (*CFG, error) {
    p := CreateBuilder(self.Name)

    /* add every item */
    for i, v := range self.Code {
        if v.Label != "" {
            if v.Op != "" {
                return nil, fmt.Errorf("lir: %s: item %d has both a label and an instruction", self.Name, i)
            }
            p.Label(v.Label)
            continue
        }

        /* parse the instruction kind */
        kind, ok := parseKind(v.Kind)
        if !ok {
            return nil, fmt.Errorf("lir: %s: item %d has invalid kind %q", self.Name, i, v.Kind)
        }

        /* validate the instruction */
        if v.Op == "" {
            return nil, fmt.Errorf("lir: %s: item %d has no opcode", self.Name, i)
        } else if (kind == Branch || kind == Jump) && v.Target == "" {
            return nil, fmt.Errorf("lir: %s: item %d (%s) has no target", self.Name, i, v.Op)
        } else if err := checkRegs(v.Defs, v.Uses); err != nil {
            return nil, fmt.Errorf("lir: %s: item %d: %w", self.Name, i, err)
        }

        /* construct the instruction */
        ins := &Instr {
            Op     : v.Op,
            Kind   : kind,
            Defs   : v.Defs,
            Uses   : v.Uses,
            Target : v.Target,
        }

        /* optional immediate value */
        if v.Imm != nil {
            ins.Imm = *v.Imm
            ins.HasImm = true
        }

        /* add to builder */
        p.Append(ins)
    }

    /* build the graph */
    return p.Build()
}

func checkRegs(rr ...[]Reg) error {
    for _, v := range rr {
        for _, r := range v {
            if r < 0 {
                return fmt.Errorf("negative register %d", int(r))
            }
        }
    }
    return nil
}
