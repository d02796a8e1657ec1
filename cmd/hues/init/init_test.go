package initcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/hues/cmd/hues/init"
	"github.com/papercomputeco/hues/pkg/config"
)

var _ = Describe("NewInitCmd", func() {
	var (
		tmpDir  string
		origDir string
	)

	BeforeEach(func() {
		var err error
		tmpDir = GinkgoT().TempDir()
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
	})

	It("creates .hues with a default config", func() {
		var out bytes.Buffer
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())

		data, err := os.ReadFile(filepath.Join(tmpDir, ".hues", "config.toml"))
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.ParseConfigTOML(data)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Storage.Provider).To(Equal(config.NewDefaultConfig().Storage.Provider))
		Expect(out.String()).To(ContainSubstring("Initialized .hues directory"))
	})

	It("leaves an existing directory alone", func() {
		dir := filepath.Join(tmpDir, ".hues")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[api]\nlisten = \":9000\"\n"), 0o600)).To(Succeed())

		var out bytes.Buffer
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{})
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("Already initialized"))

		data, err := os.ReadFile(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(":9000"))
	})
})
