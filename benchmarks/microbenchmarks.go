package benchmarks

import (
	"fmt"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/insts"
	"github.com/sarchlab/ternsim/trit"
)

// GetMicrobenchmarks returns the standard scenario set: matrix-vector
// products at three array sizes, a branch-heavy countdown, and a register
// working set that overflows the inner tier.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		matvecBenchmark(1),
		matvecBenchmark(3),
		matvecBenchmark(9),
		branchMix(),
		tierPressure(),
	}
}

// matvecBenchmark streams one activation vector through an NxN array with a
// fixed weight pattern and pins the exact product.
func matvecBenchmark(n int) Benchmark {
	cfg := config.DefaultConfig()
	cfg.Rows = n
	cfg.Cols = n

	weight := func(r, c int) int { return (r+c)%3 - 1 }
	activation := func(c int) int { return c%3 - 1 }

	input := make([]trit.Word, 0, n+1)
	for r := 0; r < n; r++ {
		var w trit.Word
		for c := 0; c < n; c++ {
			w = w.WithTrit(c, trit.Trit(weight(r, c)))
		}
		input = append(input, w)
	}
	var x trit.Word
	for c := 0; c < n; c++ {
		x = x.WithTrit(c, trit.Trit(activation(c)))
	}
	input = append(input, x)

	expected := make([]string, n)
	for r := 0; r < n; r++ {
		var sum int64
		for c := 0; c < n; c++ {
			sum += int64(weight(r, c)) * int64(activation(c))
		}
		expected[r] = trit.FromInt64(sum).String()
	}

	return Benchmark{
		Name:        fmt.Sprintf("matvec_%d", n),
		Description: fmt.Sprintf("%dx%d weight-stationary matrix-vector product", n, n),
		Config:      cfg,
		Program: []*insts.Instruction{
			insts.NewInst(insts.OpLDW).WithLane(0).Build(),
			insts.NewInst(insts.OpSTRM).WithLane(0).Build(),
			insts.NewInst(insts.OpDRN).WithLane(0).Build(),
			insts.NewInst(insts.OpHALT).Build(),
		},
		Input:           input,
		ExpectedOutputs: expected,
	}
}

// branchMix counts ACC down from nine through the three-way branch, training
// the predictor on a strongly biased back edge.
func branchMix() Benchmark {
	return Benchmark{
		Name:        "branch_mix",
		Description: "countdown loop dominated by a sign-biased BR3 back edge",
		Program: []*insts.Instruction{
			insts.NewInst(insts.OpLDI).WithDst(insts.RegACC).WithImm(9).Build(),
			insts.NewInst(insts.OpLDI).WithDst(insts.RegB).WithImm(1).Build(),
			insts.NewInst(insts.OpSUB).
				WithSrcs(insts.RegACC, insts.RegB).
				WithDst(insts.RegACC).Build(),
			insts.NewInst(insts.OpBR3).
				WithCond(insts.RegACC).
				WithTargets(4, 4, 2).Build(),
			insts.NewInst(insts.OpST1).WithDst(insts.RegACC).Build(),
			insts.NewInst(insts.OpHALT).Build(),
		},
		ExpectedOutputs: []string{"0"},
	}
}

// tierPressure touches more registers than the inner tier holds, forcing LRU
// spills, then stores the first victim from its demoted home.
func tierPressure() Benchmark {
	program := make([]*insts.Instruction, 0, 10)
	for i := 0; i < 8; i++ {
		program = append(program, insts.NewInst(insts.OpLDI).
			WithDst(insts.R(i)).WithImm(int64(i+1)).Build())
	}
	program = append(program,
		insts.NewInst(insts.OpST1).WithDst(insts.R(0)).Build(),
		insts.NewInst(insts.OpHALT).Build(),
	)

	return Benchmark{
		Name:            "tier_pressure",
		Description:     "working set overflowing tier 1, store pays the outer tier",
		Program:         program,
		ExpectedOutputs: []string{trit.FromInt64(1).String()},
	}
}
