package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ternsim/insts"
)

var _ = Describe("Parse", func() {
	It("should assemble the reference load-add-store program", func() {
		prog, err := insts.Parse(`
			; A + B -> ACC
			LD1 A
			LD1 B
			ADD A, B, ACC
			ST1 ACC
		`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog).To(HaveLen(4))
		Expect(prog[0].Op).To(Equal(insts.OpLD1))
		Expect(prog[2].Op).To(Equal(insts.OpADD))
		Expect(prog[2].Dst).To(Equal(insts.RegACC))
		Expect(prog[3].Op).To(Equal(insts.OpST1))
	})

	It("should resolve labels to instruction indexes", func() {
		prog, err := insts.Parse(`
			LDI ACC, #-1
			BR3 ACC, neg, zero, pos
			neg:  LDI TMP, #10
			JMP done
			zero: LDI TMP, #20
			JMP done
			pos:  LDI TMP, #30
			done: HALT
		`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog[1].TargetNeg).To(Equal(2))
		Expect(prog[1].TargetZero).To(Equal(4))
		Expect(prog[1].TargetPos).To(Equal(6))
		Expect(prog[3].TargetZero).To(Equal(7))
	})

	It("should accept systolic lane operands", func() {
		prog, err := insts.Parse(`
			LDW *
			STRM 2
			DRN 2
		`)
		Expect(err).NotTo(HaveOccurred())
		Expect(prog[0].Lane).To(Equal(-1))
		Expect(prog[1].Lane).To(Equal(2))
		Expect(prog[2].Lane).To(Equal(2))
	})

	It("should reject unknown mnemonics", func() {
		_, err := insts.Parse("FROB A")
		Expect(err).To(HaveOccurred())
	})

	It("should reject malformed immediates", func() {
		_, err := insts.Parse("LDI ACC, 5")
		Expect(err).To(HaveOccurred())
	})

	It("should reject wrong operand counts", func() {
		_, err := insts.Parse("ADD A, B")
		Expect(err).To(HaveOccurred())
	})
})
