package versioncmder_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	versioncmder "github.com/papercomputeco/hues/cmd/version"
	"github.com/papercomputeco/hues/pkg/utils"
)

var _ = Describe("NewVersionCmd", func() {
	It("prints the build information", func() {
		var out bytes.Buffer
		cmd := versioncmder.NewVersionCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})

		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("hues " + utils.Version))
		Expect(out.String()).To(ContainSubstring("Sha: " + utils.Sha))
	})

	It("rejects arguments", func() {
		cmd := versioncmder.NewVersionCmd()
		cmd.SetArgs([]string{"extra"})
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		Expect(cmd.Execute()).To(HaveOccurred())
	})
})
