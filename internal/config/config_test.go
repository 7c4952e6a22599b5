package config_test

import (
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"monori/internal/config"
)

var _ = Describe("Config", func() {
	Describe("Default", func() {
		It("carries the baseline thresholds", func() {
			cfg := config.Default()

			Expect(cfg.LogLevel).To(Equal("info"))
			Expect(cfg.SettleDelay).To(Equal(500 * time.Millisecond))
			Expect(cfg.ToolTimeout).To(Equal(30 * time.Second))
			Expect(cfg.SyntheticFailures).To(BeTrue())
			Expect(cfg.Policy.MaxPasswordAgeDays).To(Equal(90))
			Expect(cfg.Policy.MinPasswordLength).To(Equal(8))
			Expect(cfg.Policy.ScreenSaverTimeoutSecs).To(Equal(600))
			Expect(cfg.Policy.MaxBootEntries).To(Equal(1))
			Expect(cfg.Policy.PatchWindowDays).To(Equal(90))
			Expect(cfg.Policy.ServiceBlocklist).To(HaveLen(21))
			Expect(cfg.Policy.ServiceBlocklist).To(ContainElements("Spooler", "RemoteRegistry", "WebClient"))
			Expect(cfg.Validate()).To(Succeed())
		})

		It("does not share the blocklist backing array", func() {
			cfg := config.Default()
			cfg.Policy.ServiceBlocklist[0] = "changed"
			Expect(config.DefaultServiceBlocklist[0]).To(Equal("Alerter"))
		})
	})

	Describe("Validate", func() {
		DescribeTable("rejects unusable settings",
			func(mutate func(*config.Config), expected error) {
				cfg := config.Default()
				mutate(cfg)
				Expect(cfg.Validate()).To(MatchError(expected))
			},
			Entry("unknown log level", func(c *config.Config) { c.LogLevel = "loud" }, config.ErrInvalidLogLevel),
			Entry("unknown progress mode", func(c *config.Config) { c.Progress = "tty" }, config.ErrInvalidProgress),
			Entry("negative settle delay", func(c *config.Config) { c.SettleDelay = -time.Second }, config.ErrNegativeDuration),
			Entry("zero password age", func(c *config.Config) { c.Policy.MaxPasswordAgeDays = 0 }, config.ErrInvalidPolicyValue),
			Entry("zero boot entries", func(c *config.Config) { c.Policy.MaxBootEntries = 0 }, config.ErrInvalidPolicyValue),
		)

		It("names the first invalid threshold in field order", func() {
			p := config.DefaultPolicy()
			p.MinPasswordLength = 0
			p.MaxBootEntries = -1
			p.PatchWindowDays = 0
			for i := 0; i < 20; i++ {
				Expect(p.Validate()).To(MatchError(ContainSubstring("min-password-length=0")))
			}
		})
	})

	Describe("Load", func() {
		var fs afero.Fs

		BeforeEach(func() {
			fs = afero.NewMemMapFs()
		})

		It("returns defaults without a file", func() {
			cfg, err := config.Load(viper.New(), fs, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg).To(Equal(config.Default()))
		})

		It("reads a YAML file and replaces lists", func() {
			Expect(afero.WriteFile(fs, "/etc/monori.yaml", []byte(`
log-level: debug
settle-delay: 0s
checks: [pc-01, " pc-12 "]
policy:
  max-password-age-days: 60
  service-blocklist: [Spooler]
`), 0o644)).To(Succeed())

			cfg, err := config.Load(viper.New(), fs, "/etc/monori.yaml")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.LogLevel).To(Equal("debug"))
			Expect(cfg.SettleDelay).To(BeZero())
			Expect(cfg.Checks).To(Equal([]string{"PC-01", "PC-12"}))
			Expect(cfg.Policy.MaxPasswordAgeDays).To(Equal(60))
			Expect(cfg.Policy.MinPasswordLength).To(Equal(8))
			Expect(cfg.Policy.ServiceBlocklist).To(Equal([]string{"Spooler"}))
		})

		It("lets the environment override the file", func() {
			Expect(os.Setenv("MONORI_POLICY_PATCH_WINDOW_DAYS", "30")).To(Succeed())
			DeferCleanup(os.Unsetenv, "MONORI_POLICY_PATCH_WINDOW_DAYS")
			Expect(os.Setenv("MONORI_PROGRESS", "jsonl")).To(Succeed())
			DeferCleanup(os.Unsetenv, "MONORI_PROGRESS")

			cfg, err := config.Load(viper.New(), fs, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Policy.PatchWindowDays).To(Equal(30))
			Expect(cfg.Progress).To(Equal(config.ProgressJSONL))
		})

		It("fails on a missing file", func() {
			_, err := config.Load(viper.New(), fs, "/nope.yaml")
			Expect(err).To(HaveOccurred())
		})

		It("fails validation after decoding", func() {
			Expect(afero.WriteFile(fs, "/c.yaml", []byte("log-level: loud\n"), 0o644)).To(Succeed())
			_, err := config.Load(viper.New(), fs, "/c.yaml")
			Expect(err).To(MatchError(config.ErrInvalidLogLevel))
		})
	})
})
