package report_test

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ternsim/report"
	"github.com/sarchlab/ternsim/timing/clock"
	"github.com/sarchlab/ternsim/timing/predictor"
)

func sampleReport() *report.Report {
	return &report.Report{
		TotalCycles:  8,
		Instructions: 4,
		Halted:       true,
		Registers:    map[string]string{"ACC": "++0", "A": "+--"},
		Tiers:        map[string]int{"ACC": 1, "A": 1},
		Outputs:      []string{"++0"},
		Skew: clock.SkewResult{
			PEs: 486, Skew: 0.0225, Threshold: 0.05, Pass: true,
		},
		EffectiveChannels: 18,
		Lanes: []report.LaneThroughput{
			{Lane: 0, SubChannels: 3, Words: 3},
		},
		Branch:             predictor.Stats{Predictions: 2, Correct: 1, Mispredictions: 1},
		AddSubOps:          1,
		EffectiveAddSubOps: 1,
	}
}

var _ = Describe("Report", func() {
	It("should round-trip through JSON", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run.json")

		r := sampleReport()
		Expect(r.Save(path)).To(Succeed())

		loaded, err := report.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.TotalCycles).To(Equal(r.TotalCycles))
		Expect(loaded.Registers).To(Equal(r.Registers))
		Expect(loaded.Outputs).To(Equal(r.Outputs))
		Expect(loaded.Skew).To(Equal(r.Skew))
		Expect(loaded.Lanes).To(Equal(r.Lanes))
		Expect(loaded.Branch).To(Equal(r.Branch))
	})

	It("should fail to load a missing or malformed file", func() {
		_, err := report.Load("/nonexistent/run.json")
		Expect(err).To(HaveOccurred())
	})

	Describe("Compare", func() {
		It("should report no mismatches against itself", func() {
			r := sampleReport()
			Expect(r.Compare(sampleReport())).To(BeEmpty())
		})

		It("should flag cycle and register divergence", func() {
			r := sampleReport()
			r.TotalCycles = 9
			r.Registers["ACC"] = "+++"

			mismatches := r.Compare(sampleReport())
			Expect(mismatches).To(HaveLen(2))
			Expect(mismatches[0]).To(ContainSubstring("total cycles"))
			Expect(mismatches[1]).To(ContainSubstring("register ACC"))
		})

		It("should flag registers missing from either side", func() {
			r := sampleReport()
			delete(r.Registers, "A")
			r.Registers["B"] = "0"

			mismatches := r.Compare(sampleReport())
			Expect(mismatches).To(ContainElement(ContainSubstring("register A: absent")))
			Expect(mismatches).To(ContainElement(ContainSubstring("register B: present")))
		})

		It("should flag tier moves and tiers missing from either side", func() {
			r := sampleReport()
			r.Tiers["ACC"] = 2
			delete(r.Tiers, "A")
			r.Tiers["B"] = 3

			mismatches := r.Compare(sampleReport())
			Expect(mismatches).To(ContainElement(
				ContainSubstring("tier of ACC: got 2, want 1")))
			Expect(mismatches).To(ContainElement(
				ContainSubstring("tier of A: absent")))
			Expect(mismatches).To(ContainElement(
				ContainSubstring("tier of B: present")))
		})

		It("should flag output and branch divergence", func() {
			r := sampleReport()
			r.Outputs = []string{"++0", "0"}
			r.Branch.Correct = 2

			mismatches := r.Compare(sampleReport())
			Expect(mismatches).To(ContainElement(ContainSubstring("outputs")))
			Expect(mismatches).To(ContainElement(ContainSubstring("branch stats")))
		})

		It("should flag a skew verdict flip", func() {
			r := sampleReport()
			r.Skew.Pass = false

			Expect(r.Compare(sampleReport())).To(
				ContainElement(ContainSubstring("skew pass")))
		})
	})
})
