package cliui_test

import (
	"bytes"
	"errors"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/hues/pkg/cliui"
	"github.com/papercomputeco/hues/pkg/swatch"
)

var _ = Describe("Step", func() {
	It("prints a success mark without spinner frames off a terminal", func() {
		var buf bytes.Buffer
		err := cliui.Step(&buf, "indexing", func() error { return nil })
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("indexing"))
		Expect(buf.String()).To(ContainSubstring("✓"))
		Expect(buf.String()).NotTo(ContainSubstring("⣾"))
	})

	It("returns the step error with a failure mark", func() {
		var buf bytes.Buffer
		boom := errors.New("boom")
		Expect(cliui.Step(&buf, "saving", func() error { return boom })).To(MatchError(boom))
		Expect(buf.String()).To(ContainSubstring("✗"))
	})
})

var _ = Describe("FormatDuration", func() {
	It("uses milliseconds below a second", func() {
		Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
	})

	It("uses seconds otherwise", func() {
		Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
	})
})

var _ = Describe("IsTerminal", func() {
	It("is false for buffers", func() {
		Expect(cliui.IsTerminal(&bytes.Buffer{})).To(BeFalse())
	})
})

var _ = Describe("Swatches", func() {
	var profile termenv.Profile

	BeforeEach(func() {
		profile = lipgloss.ColorProfile()
		lipgloss.SetColorProfile(termenv.Ascii)
		DeferCleanup(func() { lipgloss.SetColorProfile(profile) })
	})

	It("falls back to hex codes without color support", func() {
		Expect(cliui.Swatch(swatch.Color{R: 255}, 4)).To(Equal("[#ff0000]"))
	})

	It("renders weight shares in a palette", func() {
		out := cliui.Palette(swatch.Fingerprint{
			{Color: swatch.Color{R: 255}, Weight: 3},
			{Color: swatch.Color{B: 255}, Weight: 1},
		})
		Expect(out).To(ContainSubstring("#ff0000"))
		Expect(out).To(ContainSubstring("75.0%"))
		Expect(out).To(ContainSubstring("25.0%"))
	})

	It("renders a strip per color", func() {
		strip := cliui.Strip(swatch.Fingerprint{
			{Color: swatch.Color{R: 255}, Weight: 1},
			{Color: swatch.Color{G: 255}, Weight: 1},
		})
		Expect(strip).To(Equal("[#ff0000][#00ff00]"))
	})
})
