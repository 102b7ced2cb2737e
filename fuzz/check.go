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

	"github.com/cloudwego/jminus/lir"
)

const (
	MaxRegisters    = 256
	MaxInstructions = 4096
)

// Check checks if buf holds procedures the code generator can handle, and
// returns them.
func Check(buf []byte) ([]*lir.CFG, error) {
	cfgs, err := lir.Load(bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	for _, cfg := range cfgs {
		if err = checkProc(cfg); err != nil {
			return nil, err
		}
	}
	return cfgs, nil
}

func checkProc(cfg *lir.CFG) error {
	n := 0
	if cfg.NumRegs > MaxRegisters {
		return fmt.Errorf("%s: too many registers: %d", cfg.Name, cfg.NumRegs)
	}
	for _, bb := range cfg.Blocks {
		for _, p := range bb.Ins {
			if n++; n > MaxInstructions {
				return fmt.Errorf("%s: too many instructions", cfg.Name)
			}
			if len(p.Uses) > 2 || len(p.Defs) > 2 {
				return fmt.Errorf("%s: too many operands: %s", cfg.Name, p)
			}
		}
	}
	return nil
}
