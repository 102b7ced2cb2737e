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
	"log"
	"os"
	"runtime"
	"strconv"
	"testing"

	gofakeit "github.com/brianvoe/gofakeit/v6"
	"github.com/bytedance/gopkg/util/gctuner"
	"github.com/cloudwego/jminus"
	"github.com/stretchr/testify/require"
)

const (
	MemoryLimitEnv        = "MemLimit"
	KB             uint64 = 1024
	MB             uint64 = 1024 * KB
	GB             uint64 = 1024 * MB
)

func TestGenerate_Load(t *testing.T) {
	f := gofakeit.New(1)
	for i := 0; i < 100; i++ {
		p := Generate(f, "gen"+strconv.Itoa(i), DefaultLimits)
		buf, err := Marshal(p)
		require.NoError(t, err)
		cfgs, err := Check(buf)
		require.NoError(t, err)
		require.Len(t, cfgs, 1)
		require.Equal(t, p.Name, cfgs[0].Name)
	}
}

func TestBuild_Allocate(t *testing.T) {
	f := gofakeit.New(7)
	procs := make([]Proc, 20)
	for i := range procs {
		procs[i] = Generate(f, "build"+strconv.Itoa(i), DefaultLimits)
	}
	cfgs, err := Build(procs...)
	require.NoError(t, err)
	require.Len(t, cfgs, len(procs))
	res, err := jminus.AllocateAll(cfgs, jminus.WithStrategy("graph"), jminus.WithRegisters(2), jminus.WithVerify(true))
	require.NoError(t, err)
	for _, r := range res {
		_, err = r.EmitSPIM()
		require.NoError(t, err)
	}
}

func TestCheck_Rejects(t *testing.T) {
	_, err := Check([]byte("procedures:\n  - code:\n      - {op: addu, uses: [0, 1, 2]}\n      - {op: ret, kind: return}\n"))
	require.ErrorContains(t, err, "too many operands")
	_, err = Check([]byte("procedures:\n  - code:\n      - {op: li, defs: [300]}\n"))
	require.ErrorContains(t, err, "too many registers")
	_, err = Check([]byte("nope: 1\n"))
	require.Error(t, err)
}

func FuzzMain(f *testing.F) {
	// avoid OOM
	var limit uint64 = 4 * GB
	if os.Getenv(MemoryLimitEnv) != "" {
		if memGB, err := strconv.ParseUint(os.Getenv(MemoryLimitEnv), 10, 64); err == nil {
			limit = memGB * GB
		}
	}
	threshold := uint64(float64(limit) * 0.7)
	numWorker := uint64(runtime.GOMAXPROCS(0))
	gctuner.Tuning(threshold / numWorker)
	log.Printf("[%d] Memory Limit: %d GB, Memory Threshold: %d MB\n", os.Getpid(), limit/GB, threshold/MB)

	// seed the corpus with generated procedures
	fk := gofakeit.New(20221019)
	for i := 0; i < 16; i++ {
		buf, err := Marshal(Generate(fk, "seed"+strconv.Itoa(i), DefaultLimits))
		if err != nil {
			f.Fatal(err)
		}
		f.Add(buf, uint8(fk.Number(1, 18)))
	}

	f.Fuzz(func(t *testing.T, data []byte, nreg uint8) {
		cfgs, err := Check(data)
		if err != nil {
			return
		}
		for _, s := range []string{"naive", "linear", "graph"} {
			res, err := jminus.AllocateAll(cfgs,
				jminus.WithStrategy(s),
				jminus.WithRegisters(int(nreg)%18+1),
				jminus.WithVerify(true),
			)
			if err != nil {
				t.Fatalf("%s: %v\n%s", s, err, data)
			}
			for _, r := range res {
				if _, err = r.EmitSPIM(); err != nil {
					t.Fatalf("%s: %v\n%s", s, err, data)
				}
			}
		}
	})
}
