package config_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/hues/pkg/config"
	"github.com/papercomputeco/hues/pkg/extract"
	"github.com/papercomputeco/hues/pkg/swatch"
)

var _ = Describe("Configer config", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	writeConfig := func(data string) {
		err := os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(data), 0o600)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("LoadConfig", func() {
		It("returns default config when no config file exists", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.NewDefaultConfig()))
		})

		It("loads all config fields", func() {
			writeConfig(`version = 0

[storage]
provider = "sqlite"
path = "/tmp/hues.sqlite"
postgres_dsn = "postgres://localhost/hues"
qdrant_target = "localhost:6334"

[extract]
palette_size = 32
max_colors = 8
significance_ratio = 0.05
min_separation = 12.5
scale_size = 256
hue_weight = 10

[ingest]
workers = 2

[api]
listen = ":9091"

[client]
api_target = "http://myhost:9091"

[events]
provider = "kafka"
brokers = "kafka-1:9092,kafka-2:9092"
topic = "colors"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage).To(Equal(config.StorageConfig{
				Provider:     "sqlite",
				Path:         "/tmp/hues.sqlite",
				PostgresDSN:  "postgres://localhost/hues",
				QdrantTarget: "localhost:6334",
			}))
			Expect(cfg.Extract).To(Equal(config.ExtractConfig{
				PaletteSize:       32,
				MaxColors:         8,
				SignificanceRatio: 0.05,
				MinSeparation:     12.5,
				ScaleSize:         256,
				HueWeight:         10,
			}))
			Expect(cfg.Ingest.Workers).To(Equal(uint(2)))
			Expect(cfg.API.Listen).To(Equal(":9091"))
			Expect(cfg.Client.APITarget).To(Equal("http://myhost:9091"))
			Expect(cfg.Events).To(Equal(config.EventsConfig{
				Provider: "kafka",
				Brokers:  "kafka-1:9092,kafka-2:9092",
				Topic:    "colors",
			}))
		})

		It("fills in defaults for unset fields in a partial config", func() {
			writeConfig(`[storage]
provider = "postgres"
`)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())

			defaults := config.NewDefaultConfig()
			Expect(cfg.Storage.Provider).To(Equal("postgres"))
			Expect(cfg.Extract).To(Equal(defaults.Extract))
			Expect(cfg.API.Listen).To(Equal(defaults.API.Listen))
			Expect(cfg.Events.Topic).To(Equal(defaults.Events.Topic))
		})

		It("returns error for malformed TOML", func() {
			writeConfig(`[storage
provider = `)

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("parsing config TOML")))
		})

		It("returns error for unsupported config version", func() {
			writeConfig("version = 99\n")

			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = c.LoadConfig()
			Expect(err).To(MatchError(ContainSubstring("unsupported config version 99")))
		})
	})

	Describe("SaveConfig", func() {
		It("persists config to disk and round-trips", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.NewDefaultConfig()
			cfg.Storage.Provider = "qdrant"
			cfg.Storage.QdrantTarget = "qdrant:6334"
			cfg.Extract.HueWeight = 12.5
			Expect(c.SaveConfig(cfg)).To(Succeed())

			Expect(filepath.Join(tmpDir, "config.toml")).To(BeAnExistingFile())

			loaded, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(cfg))
		})

		It("returns error for nil config", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.SaveConfig(nil)).To(MatchError("cannot save nil config"))
		})
	})

	Describe("SetConfigValue and GetConfigValue", func() {
		var c *config.Configer

		BeforeEach(func() {
			var err error
			c, err = config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())
		})

		It("sets and gets a string key", func() {
			Expect(c.SetConfigValue("storage.provider", "sqlite")).To(Succeed())

			v, err := c.GetConfigValue("storage.provider")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("sqlite"))
		})

		It("sets and gets a uint key", func() {
			Expect(c.SetConfigValue("extract.max_colors", "7")).To(Succeed())

			v, err := c.GetConfigValue("extract.max_colors")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("7"))
		})

		It("sets and gets a float key", func() {
			Expect(c.SetConfigValue("extract.hue_weight", "22.5")).To(Succeed())

			v, err := c.GetConfigValue("extract.hue_weight")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("22.5"))
		})

		It("rejects invalid numbers", func() {
			Expect(c.SetConfigValue("ingest.workers", "many")).To(MatchError(ContainSubstring("invalid value for ingest.workers")))
			Expect(c.SetConfigValue("extract.min_separation", "-1")).To(MatchError(ContainSubstring("must not be negative")))
		})

		It("returns error for unknown key", func() {
			Expect(c.SetConfigValue("proxy.upstream", "x")).To(MatchError(ContainSubstring("unknown config key")))
			_, err := c.GetConfigValue("proxy.upstream")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("returns default values when no config file exists", func() {
			v, err := c.GetConfigValue("client.api_target")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("http://localhost:8081"))

			v, err = c.GetConfigValue("storage.path")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeEmpty())
		})

		It("preserves existing values when setting a new key", func() {
			Expect(c.SetConfigValue("storage.provider", "sqlite")).To(Succeed())
			Expect(c.SetConfigValue("api.listen", ":9999")).To(Succeed())

			cfg, err := c.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Storage.Provider).To(Equal("sqlite"))
			Expect(cfg.API.Listen).To(Equal(":9999"))
		})
	})

	Describe("Dir", func() {
		It("returns the resolved directory", func() {
			c, err := config.NewConfiger(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			abs, err := filepath.Abs(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.Dir()).To(Equal(abs))
		})
	})
})

var _ = Describe("ValidConfigKeys", func() {
	It("returns every key in section order", func() {
		keys := config.ValidConfigKeys()
		Expect(keys[0]).To(Equal("storage.provider"))
		Expect(keys).To(ContainElements("extract.hue_weight", "ingest.workers", "events.topic"))
		for _, k := range keys {
			Expect(config.IsValidConfigKey(k)).To(BeTrue())
		}
	})

	It("rejects unknown keys", func() {
		Expect(config.IsValidConfigKey("hue_weight")).To(BeFalse())
		Expect(config.IsValidConfigKey("")).To(BeFalse())
	})
})

var _ = Describe("ExtractConfig", func() {
	It("converts the defaults into a valid extractor config", func() {
		cfg := config.NewDefaultConfig().Extract.ExtractorConfig()
		Expect(cfg).To(Equal(extract.DefaultConfig()))
		Expect(cfg.Validate()).To(Succeed())
	})

	It("builds the metric from the hue weight", func() {
		Expect(config.ExtractConfig{HueWeight: 3}.Metric()).To(Equal(swatch.Metric{HueWeight: 3}))
	})
})

var _ = Describe("InitViper", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("returns viper with defaults when no config file exists", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		defaults := config.NewDefaultConfig()
		Expect(v.GetString("storage.provider")).To(Equal(defaults.Storage.Provider))
		Expect(v.GetString("api.listen")).To(Equal(defaults.API.Listen))
		Expect(v.GetFloat64("extract.hue_weight")).To(Equal(defaults.Extract.HueWeight))
	})

	It("reads config file values over defaults", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[api]\nlisten = \":5555\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("api.listen")).To(Equal(":5555"))
		Expect(v.GetString("client.api_target")).To(Equal("http://localhost:8081"))
	})

	It("env vars take precedence over config file values", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[storage]\nprovider = \"sqlite\"\n"), 0o600)).To(Succeed())
		GinkgoT().Setenv("HUES_STORAGE_PROVIDER", "postgres")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(v.GetString("storage.provider")).To(Equal("postgres"))
	})

	It("resolves a full Config through FromViper", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[extract]\nmax_colors = 3\nhue_weight = 7.5\n"), 0o600)).To(Succeed())
		GinkgoT().Setenv("HUES_INGEST_WORKERS", "9")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cfg, err := config.FromViper(v)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.Extract.MaxColors).To(Equal(uint(3)))
		Expect(cfg.Extract.HueWeight).To(Equal(7.5))
		Expect(cfg.Extract.PaletteSize).To(Equal(uint(extract.DefaultPaletteSize)))
		Expect(cfg.Ingest.Workers).To(Equal(uint(9)))
	})

	It("reports invalid values through FromViper", func() {
		GinkgoT().Setenv("HUES_INGEST_WORKERS", "lots")

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		_, err = config.FromViper(v)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("BindFlags", func() {
	var tmpDir string

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	It("binds cobra flags to viper keys via registry", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)

		Expect(cmd.Flags().Set("listen", ":7777")).To(Succeed())
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":7777"))
	})

	It("falls through to config when flag not set", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[api]\nlisten = \":5555\"\n"), 0o600)).To(Succeed())

		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		var listen string
		config.AddStringFlag(cmd, config.Flags, config.FlagAPIListen, &listen)
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{config.FlagAPIListen})

		Expect(v.GetString("api.listen")).To(Equal(":5555"))
	})

	It("skips bindings for nonexistent registry keys", func() {
		v, err := config.InitViper(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		cmd := &cobra.Command{Use: "test"}
		config.BindRegisteredFlags(v, cmd, config.Flags, []string{"nonexistent", config.FlagWorkers})

		Expect(v.GetString("ingest.workers")).To(Equal("4"))
	})

	It("pulls name, shorthand, default and description from the registry", func() {
		cmd := &cobra.Command{Use: "test"}
		var (
			workers   uint
			hueWeight float64
			target    string
		)
		config.AddUintFlag(cmd, config.Flags, config.FlagWorkers, &workers)
		config.AddFloat64Flag(cmd, config.Flags, config.FlagHueWeight, &hueWeight)
		config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &target)

		f := cmd.Flags().Lookup("workers")
		Expect(f).NotTo(BeNil())
		Expect(f.Shorthand).To(Equal("w"))
		Expect(workers).To(Equal(uint(4)))

		Expect(hueWeight).To(Equal(swatch.DefaultHueWeight))

		f = cmd.Flags().Lookup("api-target")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal("http://localhost:8081"))
	})
})
