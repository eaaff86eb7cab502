package trit_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/ternsim/trit"
)

var _ = Describe("Word", func() {
	Describe("FromInt64 / Int64", func() {
		It("should round-trip representative values", func() {
			for _, v := range []int64{
				0, 1, -1, 2, -2, 3, -3, 13, -13, 40, -40,
				81, 121, 729, -729, 1 << 40, -(1 << 40),
			} {
				w := trit.FromInt64(v)
				got, ok := w.Int64()
				Expect(ok).To(BeTrue())
				Expect(got).To(Equal(v))
			}
		})

		It("should only produce valid trits", func() {
			w := trit.FromInt64(123456789)
			for i := 0; i < trit.WordLen; i++ {
				Expect(w.Trit(i).Valid()).To(BeTrue())
			}
		})
	})

	Describe("Add", func() {
		It("should match integer addition with no carry out", func() {
			pairs := [][2]int64{
				{0, 0}, {1, 1}, {-1, 1}, {13, -40}, {729, 729},
				{-100000, 99999}, {12345, -54321},
			}
			for _, p := range pairs {
				sum, carry := trit.Add(
					trit.FromInt64(p[0]), trit.FromInt64(p[1]))
				Expect(carry).To(Equal(trit.Zero))
				v, ok := sum.Int64()
				Expect(ok).To(BeTrue())
				Expect(v).To(Equal(p[0] + p[1]))
			}
		})

		It("should compute Sub as a - b", func() {
			diff, carry := trit.Sub(
				trit.FromInt64(40), trit.FromInt64(13))
			Expect(carry).To(Equal(trit.Zero))
			v, _ := diff.Int64()
			Expect(v).To(Equal(int64(27)))
		})
	})

	Describe("Sign", func() {
		It("should report the sign of the encoded value", func() {
			Expect(trit.FromInt64(-5).Sign()).To(Equal(trit.Neg))
			Expect(trit.FromInt64(0).Sign()).To(Equal(trit.Zero))
			Expect(trit.FromInt64(7).Sign()).To(Equal(trit.Pos))
		})
	})

	Describe("String", func() {
		It("should render balanced-ternary digits most significant first", func() {
			Expect(trit.FromInt64(0).String()).To(Equal("0"))
			Expect(trit.FromInt64(1).String()).To(Equal("+"))
			Expect(trit.FromInt64(-1).String()).To(Equal("-"))
			// 5 = +3^2 - 3^1 - 3^0
			Expect(trit.FromInt64(5).String()).To(Equal("+--"))
		})
	})

	Describe("FromTrits", func() {
		It("should reject invalid digits", func() {
			_, err := trit.FromTrits([]trit.Trit{trit.Trit(2)})
			Expect(err).To(HaveOccurred())
		})

		It("should reject slices wider than the word", func() {
			_, err := trit.FromTrits(make([]trit.Trit, trit.WordLen+1))
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ParseWord", func() {
		It("should invert String", func() {
			for _, v := range []int64{0, 1, -1, 5, -5, 42, -121, 1 << 40} {
				w, err := trit.ParseWord(trit.FromInt64(v).String())
				Expect(err).NotTo(HaveOccurred())
				got, ok := w.Int64()
				Expect(ok).To(BeTrue())
				Expect(got).To(Equal(v))
			}
		})

		It("should reject malformed literals", func() {
			_, err := trit.ParseWord("")
			Expect(err).To(HaveOccurred())
			_, err = trit.ParseWord("+-x")
			Expect(err).To(HaveOccurred())
			_, err = trit.ParseWord(strings.Repeat("+", trit.WordLen+1))
			Expect(err).To(HaveOccurred())
		})
	})
})
