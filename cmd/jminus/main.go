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


package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cloudwego/jminus"
	"github.com/cloudwego/jminus/debug"
	"github.com/cloudwego/jminus/internal/opts"
	"github.com/cloudwego/jminus/lir"
	"github.com/davecgh/go-spew/spew"
)

var (
	Strategy  string
	Registers int
	OutputFn  string
	SvgDir    string
	Dump      bool
	Verify    bool
	Verbose   bool
)

func init() {
	flag.StringVar(&Strategy, "s", "", "register allocation strategy (naive, linear or graph), enables SPIM output")
	flag.IntVar(&Registers, "r", opts.Registers, "number of physical registers, clamped into [1, 18]")
	flag.StringVar(&OutputFn, "o", "", "output file for the SPIM program, stdout if empty")
	flag.StringVar(&SvgDir, "svg", "", "directory to draw the intervals of every procedure into")
	flag.BoolVar(&Dump, "dump", false, "dump the allocation of every procedure")
	flag.BoolVar(&Verify, "verify", false, "verify every allocation against the liveness")
	flag.BoolVar(&Verbose, "v", false, "log allocation decisions")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <procedures.yaml>\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func checkArgs() {
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "jminus:", err)
	if _, ok := err.(jminus.ConfigError); ok {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(1)
}

func load(fn string) ([]*lir.CFG, error) {
	fp, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer fp.Close()
	return lir.Load(fp)
}

func emit(w io.Writer, res []*jminus.Result) error {
	if _, err := fmt.Fprintln(w, "\t.text"); err != nil {
		return err
	}
	for _, r := range res {
		asm, err := r.EmitSPIM()
		if err != nil {
			return err
		}
		if _, err = fmt.Fprintf(w, "\t.globl %s\n%s\n", r.Name(), asm); err != nil {
			return err
		}
	}
	return nil
}

func draw(dir string, res []*jminus.Result) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, r := range res {
		fp, err := os.Create(filepath.Join(dir, r.Name()+".svg"))
		if err != nil {
			return err
		}
		debug.DrawIntervals(fp, r)
		if err = fp.Close(); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	flag.Parse()
	checkArgs()

	/* logs go to stderr */
	level := slog.LevelWarn
	if Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	/* build the options */
	options := []jminus.Option{
		jminus.WithRegisters(opts.ClampRegisters(Registers)),
		jminus.WithVerify(Verify),
		jminus.WithLogger(log),
	}
	if Strategy != "" {
		options = append(options, jminus.WithStrategy(Strategy))
	}

	/* load and allocate every procedure */
	cfgs, err := load(flag.Arg(0))
	if err != nil {
		fatal(err)
	}
	res, err := jminus.AllocateAll(cfgs, options...)
	if err != nil {
		fatal(err)
	}

	/* debugging outputs */
	for _, r := range res {
		if Dump {
			spew.Fdump(os.Stderr, r.Assignments())
		}
		log.Info("procedure allocated", "stats", debug.GetStats(r))
	}
	if SvgDir != "" {
		if err = draw(SvgDir, res); err != nil {
			fatal(err)
		}
	}

	/* SPIM output is only produced with an explicit strategy */
	if Strategy == "" {
		for _, r := range res {
			st := debug.GetStats(r)
			fmt.Printf("%s: %d intervals, %d splits, %d spills, %d registers, %d bytes of frame\n",
				st.Name, st.Alloc.Intervals, st.Alloc.Splits, st.Alloc.Spills, st.Alloc.Registers, st.Frame.Size)
		}
		return
	}

	/* write the program */
	out := io.Writer(os.Stdout)
	if OutputFn != "" {
		fp, err := os.Create(OutputFn)
		if err != nil {
			fatal(err)
		}
		defer fp.Close()
		out = fp
	}
	if err = emit(out, res); err != nil {
		fatal(err)
	}
}
