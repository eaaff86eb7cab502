package systolic_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ternsim/config"
	"github.com/sarchlab/ternsim/systolic"
	"github.com/sarchlab/ternsim/trit"
)

func randTrits(rng *rand.Rand, n int) []trit.Trit {
	out := make([]trit.Trit, n)
	for i := range out {
		out[i] = trit.Trit(rng.Intn(3) - 1)
	}
	return out
}

func randMatrix(rng *rand.Rand, rows, cols int) [][]trit.Trit {
	m := make([][]trit.Trit, rows)
	for r := range m {
		m[r] = randTrits(rng, cols)
	}
	return m
}

// matVec computes the reference product in exact integer arithmetic.
func matVec(w [][]trit.Trit, x []trit.Trit) []int64 {
	out := make([]int64, len(w))
	for r, row := range w {
		for c, t := range row {
			out[r] += int64(t) * int64(x[c])
		}
	}
	return out
}

var _ = Describe("Array", func() {
	newArray := func(rows, cols int, lanes ...int) *systolic.Array {
		if len(lanes) == 0 {
			lanes = []int{0}
		}
		a, err := systolic.NewArray(rows, cols, lanes, 1)
		Expect(err).NotTo(HaveOccurred())
		return a
	}

	Describe("matrix-vector products", func() {
		It("should match exact arithmetic for R,C in {1,3,9}", func() {
			rng := rand.New(rand.NewSource(17))
			for _, rows := range []int{1, 3, 9} {
				for _, cols := range []int{1, 3, 9} {
					a := newArray(rows, cols)
					w := randMatrix(rng, rows, cols)
					x := randTrits(rng, cols)

					_, err := a.LoadWeights(0, w, 0)
					Expect(err).NotTo(HaveOccurred())
					_, err = a.Stream(0, [][]trit.Trit{x}, 0)
					Expect(err).NotTo(HaveOccurred())
					out, _, err := a.Drain(0, 0)
					Expect(err).NotTo(HaveOccurred())

					want := matVec(w, x)
					for r := range want {
						got, ok := out[r].Int64()
						Expect(ok).To(BeTrue())
						Expect(got).To(Equal(want[r]),
							"%dx%d row %d", rows, cols, r)
					}
				}
			}
		})

		It("should accumulate multiple vectors until drained", func() {
			a := newArray(3, 3)
			w := [][]trit.Trit{
				{trit.Pos, trit.Zero, trit.Neg},
				{trit.Zero, trit.Pos, trit.Zero},
				{trit.Neg, trit.Neg, trit.Pos},
			}
			x1 := []trit.Trit{trit.Pos, trit.Pos, trit.Zero}
			x2 := []trit.Trit{trit.Neg, trit.Zero, trit.Pos}

			_, err := a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(0, [][]trit.Trit{x1, x2}, 0)
			Expect(err).NotTo(HaveOccurred())
			out, _, err := a.Drain(0, 0)
			Expect(err).NotTo(HaveOccurred())

			y1 := matVec(w, x1)
			y2 := matVec(w, x2)
			for r := range y1 {
				got, _ := out[r].Int64()
				Expect(got).To(Equal(y1[r] + y2[r]))
			}
		})
	})

	Describe("load/stream pipelining", func() {
		It("should never accumulate a row before its weights are written", func() {
			a, err := systolic.NewArray(9, 9, []int{0}, 10)
			Expect(err).NotTo(HaveOccurred())
			rng := rand.New(rand.NewSource(3))
			w := randMatrix(rng, 9, 9)
			x := randTrits(rng, 9)

			cycles, err := a.LoadWeights(0, w, 100)
			Expect(err).NotTo(HaveOccurred())
			// The load call itself occupies one weight-write cycle.
			Expect(cycles).To(Equal(uint64(10)))

			// Stream immediately: rows still loading must stall the
			// wavefront, not consume half-written weights.
			_, err = a.Stream(0, [][]trit.Trit{x}, 110)
			Expect(err).NotTo(HaveOccurred())
			for r := 0; r < 9; r++ {
				Expect(a.FirstAccumTick(0, r)).To(
					BeNumerically(">=", a.RowReadyTick(0, r)),
					"row %d", r)
			}

			// The stalled pass still produces the exact product.
			out, _, err := a.Drain(0, 0)
			Expect(err).NotTo(HaveOccurred())
			want := matVec(w, x)
			for r := range want {
				got, _ := out[r].Int64()
				Expect(got).To(Equal(want[r]))
			}
		})

		It("should let early rows accumulate while later rows load", func() {
			a, err := systolic.NewArray(9, 3, []int{0}, 10)
			Expect(err).NotTo(HaveOccurred())
			rng := rand.New(rand.NewSource(4))
			w := randMatrix(rng, 9, 3)
			x := randTrits(rng, 3)

			_, err = a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(0, [][]trit.Trit{x}, 10)
			Expect(err).NotTo(HaveOccurred())

			// Row 0 accumulates at its ready tick while row 8's
			// weights are still being written.
			Expect(a.FirstAccumTick(0, 0)).To(
				BeNumerically("<", a.RowReadyTick(0, 8)))
		})

		It("should keep row-to-row flow monotone", func() {
			a := newArray(9, 3)
			rng := rand.New(rand.NewSource(5))
			_, err := a.LoadWeights(0, randMatrix(rng, 9, 3), 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(0, [][]trit.Trit{randTrits(rng, 3)}, 20)
			Expect(err).NotTo(HaveOccurred())

			for r := 1; r < 9; r++ {
				Expect(a.FirstAccumTick(0, r)).To(
					BeNumerically(">", a.FirstAccumTick(0, r-1)))
			}
		})
	})

	Describe("PE lifecycle", func() {
		It("should expose every state across a load-stream-drain pass", func() {
			a, err := systolic.NewArray(3, 3, []int{0}, 10)
			Expect(err).NotTo(HaveOccurred())
			rng := rand.New(rand.NewSource(21))
			w := randMatrix(rng, 3, 3)
			x := randTrits(rng, 3)

			Expect(a.PEState(0, 0, 0, 0)).To(Equal(systolic.StateIdle))

			_, err = a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())

			// Row 0 finishes writing at tick 10, row 2 at tick 30: in
			// between, early rows are ready while late rows still load.
			Expect(a.PEState(0, 0, 0, 5)).To(Equal(systolic.StateLoading))
			Expect(a.PEState(0, 0, 0, 15)).To(Equal(systolic.StateReady))
			Expect(a.PEState(0, 2, 0, 15)).To(Equal(systolic.StateLoading))

			_, err = a.Stream(0, [][]trit.Trit{x}, 30)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.PEState(0, 1, 1, 40)).To(Equal(systolic.StateAccumulating))

			// The drain shifts one row sum out per tick.
			_, cycles, err := a.Drain(0, 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(cycles).To(Equal(uint64(3)))
			Expect(a.PEState(0, 1, 1, 51)).To(Equal(systolic.StateDraining))
			Expect(a.PEState(0, 1, 1, 53)).To(Equal(systolic.StateReady))
		})
	})

	Describe("protocol violations", func() {
		var a *systolic.Array
		w := [][]trit.Trit{{trit.Pos}}
		x := [][]trit.Trit{{trit.Pos}}

		BeforeEach(func() {
			a = newArray(1, 1)
		})

		expectStateError := func(err error) {
			Expect(err).To(HaveOccurred())
			var stateErr *systolic.StateError
			Expect(err).To(BeAssignableToTypeOf(stateErr))
		}

		It("should reject streaming before any weights are loaded", func() {
			_, err := a.Stream(0, x, 0)
			expectStateError(err)
		})

		It("should reject streaming on top of an undrained pass", func() {
			_, err := a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(0, x, 0)
			Expect(err).NotTo(HaveOccurred())

			_, err = a.Stream(0, x, 5)
			expectStateError(err)
		})

		It("should reject a reload over an undrained pass", func() {
			_, err := a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(0, x, 0)
			Expect(err).NotTo(HaveOccurred())

			_, err = a.LoadWeights(0, w, 5)
			expectStateError(err)
		})

		It("should reject draining with no completed pass", func() {
			_, _, err := a.Drain(0, 0)
			expectStateError(err)

			_, err = a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())
			_, _, err = a.Drain(0, 0)
			expectStateError(err)
		})

		It("should allow load-stream-drain cycles to repeat", func() {
			_, err := a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 3; i++ {
				_, err := a.Stream(0, x, uint64(i*10))
				Expect(err).NotTo(HaveOccurred())
				out, _, err := a.Drain(0, uint64(i*10))
				Expect(err).NotTo(HaveOccurred())
				v, _ := out[0].Int64()
				Expect(v).To(Equal(int64(1)))
			}
		})

		It("should reject mis-sized inputs", func() {
			_, err := a.LoadWeights(0, [][]trit.Trit{{trit.Pos, trit.Pos}}, 0)
			Expect(err).To(HaveOccurred())

			_, err = a.LoadWeights(0, w, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(0, [][]trit.Trit{{trit.Pos, trit.Neg}}, 0)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("lane isolation", func() {
		It("should keep each lane's output a pure function of its own inputs", func() {
			a := newArray(3, 3, 0, 1)
			rng := rand.New(rand.NewSource(9))
			w0 := randMatrix(rng, 3, 3)
			w1 := randMatrix(rng, 3, 3)
			x0 := randTrits(rng, 3)
			x1 := randTrits(rng, 3)

			_, err := a.LoadWeights(0, w0, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.LoadWeights(1, w1, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(0, [][]trit.Trit{x0}, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = a.Stream(1, [][]trit.Trit{x1}, 0)
			Expect(err).NotTo(HaveOccurred())

			out0, _, err := a.Drain(0, 0)
			Expect(err).NotTo(HaveOccurred())
			out1, _, err := a.Drain(1, 0)
			Expect(err).NotTo(HaveOccurred())

			// Each lane matches the product of its own operands.
			want0 := matVec(w0, x0)
			want1 := matVec(w1, x1)
			for r := 0; r < 3; r++ {
				g0, _ := out0[r].Int64()
				g1, _ := out1[r].Int64()
				Expect(g0).To(Equal(want0[r]))
				Expect(g1).To(Equal(want1[r]))
			}

			// And a lone lane run with the same inputs reproduces
			// lane 0's output exactly.
			solo := newArray(3, 3, 0)
			_, err = solo.LoadWeights(0, w0, 0)
			Expect(err).NotTo(HaveOccurred())
			_, err = solo.Stream(0, [][]trit.Trit{x0}, 0)
			Expect(err).NotTo(HaveOccurred())
			outSolo, _, err := solo.Drain(0, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(outSolo).To(Equal(out0))
		})
	})

	Describe("NewArray", func() {
		It("should reject degenerate geometries", func() {
			_, err := systolic.NewArray(0, 3, []int{0}, 1)
			Expect(err).To(HaveOccurred())
			var cfgErr *config.ConfigurationError
			Expect(err).To(BeAssignableToTypeOf(cfgErr))

			_, err = systolic.NewArray(3, 3, nil, 1)
			Expect(err).To(HaveOccurred())
		})
	})
})
