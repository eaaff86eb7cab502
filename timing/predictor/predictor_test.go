package predictor_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ternsim/timing/predictor"
	"github.com/sarchlab/ternsim/trit"
)

var _ = Describe("Predictor", func() {
	var p *predictor.Predictor

	BeforeEach(func() {
		p = predictor.New(predictor.DefaultConfig())
	})

	It("should start with a zero bias", func() {
		Expect(p.Predict(0x40)).To(Equal(trit.Zero))
	})

	It("should learn a stable sign", func() {
		for i := 0; i < 4; i++ {
			p.Predict(0x40)
			p.Update(0x40, trit.Pos)
		}
		Expect(p.Predict(0x40)).To(Equal(trit.Pos))
	})

	It("should hold its bias through one disagreement", func() {
		// Train positive to full confidence.
		for i := 0; i < 4; i++ {
			p.Update(0x40, trit.Pos)
		}

		// Confidence 3 absorbs three mispredicts before the flip.
		p.Update(0x40, trit.Neg)
		Expect(p.Predict(0x40)).To(Equal(trit.Pos))
		p.Update(0x40, trit.Neg)
		p.Update(0x40, trit.Neg)
		Expect(p.Predict(0x40)).To(Equal(trit.Pos))

		// Fourth disagreement lands at confidence 0 and flips.
		p.Update(0x40, trit.Neg)
		Expect(p.Predict(0x40)).To(Equal(trit.Neg))
	})

	It("should track each of the three arms", func() {
		pcs := map[uint64]trit.Trit{
			0x10: trit.Neg,
			0x11: trit.Zero,
			0x12: trit.Pos,
		}
		for pc, sign := range pcs {
			for i := 0; i < 4; i++ {
				p.Update(pc, sign)
			}
		}
		for pc, sign := range pcs {
			Expect(p.Predict(pc)).To(Equal(sign), "pc %#x", pc)
		}
	})

	It("should keep independent entries for distinct PCs", func() {
		for i := 0; i < 4; i++ {
			p.Update(0x00, trit.Pos)
			p.Update(0x01, trit.Neg)
		}
		Expect(p.Predict(0x00)).To(Equal(trit.Pos))
		Expect(p.Predict(0x01)).To(Equal(trit.Neg))
	})

	It("should count predictions and outcomes", func() {
		p.Predict(0x20)
		p.Update(0x20, trit.Zero) // correct: zero bias
		p.Predict(0x20)
		p.Update(0x20, trit.Pos) // mispredict

		stats := p.Stats()
		Expect(stats.Predictions).To(Equal(uint64(2)))
		Expect(stats.Correct).To(Equal(uint64(1)))
		Expect(stats.Mispredictions).To(Equal(uint64(1)))
		Expect(stats.Accuracy()).To(BeNumerically("~", 50.0))
		Expect(stats.MispredictionRate()).To(BeNumerically("~", 50.0))
	})

	It("should report zero accuracy with no history", func() {
		Expect(predictor.Stats{}.Accuracy()).To(BeZero())
		Expect(predictor.Stats{}.MispredictionRate()).To(BeZero())
	})

	It("should clear state and statistics on reset", func() {
		for i := 0; i < 4; i++ {
			p.Update(0x40, trit.Neg)
		}
		p.Predict(0x40)

		p.Reset()
		Expect(p.Predict(0x40)).To(Equal(trit.Zero))
		Expect(p.Stats().Predictions).To(Equal(uint64(1)))
		Expect(p.Stats().Mispredictions).To(BeZero())
	})
})
