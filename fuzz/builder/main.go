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
	"log"
	"os"
	"path/filepath"
	"strconv"

	gofakeit "github.com/brianvoe/gofakeit/v6"
	"github.com/cloudwego/jminus/fuzz"
)

var (
	OutputDir  string
	MaxFileNum int64
	Seed       int64
	Corpus     bool
	Limits     = fuzz.DefaultLimits
)

func init() {
	flag.StringVar(&OutputDir, "out", "testdata", "output directory")
	flag.Int64Var(&MaxFileNum, "max-file-num", 100, "max number of files to generate")
	flag.Int64Var(&Seed, "seed", 0, "random seed, 0 picks one")
	flag.BoolVar(&Corpus, "corpus", false, "write files in the go fuzzing corpus format")
	flag.IntVar(&Limits.Blocks, "blocks", Limits.Blocks, "max number of blocks per procedure")
	flag.IntVar(&Limits.Registers, "regs", Limits.Registers, "max number of virtual registers per procedure")
	flag.IntVar(&Limits.BlockSize, "block-size", Limits.BlockSize, "max number of instructions per block")
}

func checkArgs() {
	if OutputDir == "" || MaxFileNum <= 0 || Limits.Blocks <= 0 || Limits.Registers <= 0 || Limits.BlockSize <= 0 {
		flag.Usage()
		os.Exit(1)
	}
}

// corpus wraps buf as a FuzzMain input.
func corpus(buf []byte, nreg int) []byte {
	return []byte(fmt.Sprintf("go test fuzz v1\n[]byte(%q)\nuint8(%d)\n", buf, nreg))
}

func main() {
	flag.Parse()
	checkArgs()
	f := gofakeit.New(Seed)
	if err := os.MkdirAll(OutputDir, 0o755); err != nil {
		log.Fatal(fmt.Errorf("create directory %s failed: %w", OutputDir, err))
	}
	for no := int64(1); no <= MaxFileNum; no++ {
		name := "gen_" + strconv.FormatInt(no, 10)
		buf, err := fuzz.Marshal(fuzz.Generate(f, name, Limits))
		if err != nil {
			log.Fatal(fmt.Errorf("encode procedure %s failed: %w", name, err))
		}
		fn := filepath.Join(OutputDir, name+".yaml")
		if Corpus {
			buf = corpus(buf, f.Number(1, 18))
			fn = filepath.Join(OutputDir, name)
		}
		if err = os.WriteFile(fn, buf, 0o644); err != nil {
			log.Fatal(fmt.Errorf("write procedure %s failed: %w", name, err))
		}
	}
	log.Printf("generated %d procedures in %s\n", MaxFileNum, OutputDir)
}
