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


package debug

import (
	"io"

	"github.com/cloudwego/jminus"
)

// A Stats records statistics about the allocation of one procedure.
type Stats struct {
	Name     string
	Strategy string
	Frame    FrameStats
	Alloc    AllocStats
}

// A FrameStats records statistics about the stack frame of a procedure.
type FrameStats struct {
	Size  int
	Slots int
}

// An AllocStats records statistics about the intervals of a procedure.
type AllocStats struct {
	Intervals int
	Splits    int
	Spills    int
	Registers int
}

// GetStats returns statistics of an allocated procedure.
func GetStats(res *jminus.Result) Stats {
	return Stats{
		Name:     res.Name(),
		Strategy: res.Strategy(),
		Frame: FrameStats{
			Size:  res.FrameSize(),
			Slots: res.FrameSize() / 4,
		},
		Alloc: AllocStats{
			Intervals: res.Intervals(),
			Splits:    res.SplitCount(),
			Spills:    res.SpillCount(),
			Registers: res.RegistersUsed(),
		},
	}
}

// DrawIntervals renders the intervals of an allocated procedure as SVG.
func DrawIntervals(w io.Writer, res *jminus.Result) {
	res.DrawSVG(w)
}
