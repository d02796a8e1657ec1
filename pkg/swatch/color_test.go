package swatch_test

import (
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hues/pkg/swatch"
)

var _ = Describe("Color", func() {
	Describe("ParseColor", func() {
		DescribeTable("accepts supported notations",
			func(in string, want swatch.Color) {
				c, err := swatch.ParseColor(in)
				Expect(err).NotTo(HaveOccurred())
				Expect(c).To(Equal(want))
			},
			Entry("hex with hash", "#ff8000", swatch.Color{R: 255, G: 128, B: 0}),
			Entry("hex without hash", "00ff7f", swatch.Color{R: 0, G: 255, B: 127}),
			Entry("upper case hex", "#FF0000", swatch.Color{R: 255}),
			Entry("short hex", "#0f0", swatch.Color{G: 255}),
			Entry("rgb triple", "12, 34,56", swatch.Color{R: 12, G: 34, B: 56}),
		)

		DescribeTable("rejects malformed input",
			func(in string) {
				_, err := swatch.ParseColor(in)
				Expect(err).To(MatchError(swatch.ErrInvalidColor))
			},
			Entry("empty", ""),
			Entry("bad length", "#ff00"),
			Entry("not hex", "#gg0000"),
			Entry("two channels", "1,2"),
			Entry("channel out of range", "256,0,0"),
			Entry("negative channel", "-1,0,0"),
		)
	})

	It("renders hex", func() {
		Expect(swatch.Color{R: 1, G: 171, B: 255}.Hex()).To(Equal("#01abff"))
	})

	It("drops alpha when converting from image/color", func() {
		c := swatch.FromStd(color.NRGBA{R: 10, G: 20, B: 30, A: 255})
		Expect(c).To(Equal(swatch.Color{R: 10, G: 20, B: 30}))
	})

	It("reports Lab lightness on the 0..100 scale", func() {
		l, _, _ := swatch.Color{R: 255, G: 255, B: 255}.Lab()
		Expect(l).To(BeNumerically("~", 100, 0.01))
		l, _, _ = swatch.Color{}.Lab()
		Expect(l).To(BeNumerically("~", 0, 0.01))
	})
})
