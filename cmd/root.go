// Package cmd implements the pdvd-trust command line interface.
package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ortelius/pdvd-trust/backend"
	"github.com/ortelius/pdvd-trust/internal/config"
	"github.com/ortelius/pdvd-trust/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// app carries everything a command needs. It is built once per invocation
// in the root pre-run hook and handed to each subcommand explicitly.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	backend  *backend.Backend
	packages *backend.PackageService
	vulns    *backend.VulnerabilityService
	opts     []backend.Option
	order    util.Ordering
	out      io.Writer
}

// Execute is the entry point called from main.go.
func Execute() {
	if err := NewRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Results are written to out, logs to stderr.
func NewRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}
	v := config.New()

	var (
		cfgFile string
		verbose bool
	)

	rootCmd := &cobra.Command{
		Use:   "pdvd-trust",
		Short: "Resolve trust status, vulnerabilities and dependencies of packages",
		Long: `pdvd-trust queries a trust catalog for packages identified by Package URLs.

It reports trust status, known vulnerabilities, available versions and the
dependency graph of a package, and can resolve every component of a
CycloneDX SBOM in a single batch request.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup(v, cfgFile, verbose)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ~/"+config.DefaultConfigDir+"/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.String("backend", config.DefaultBackendURL, "trust catalog base URL")
	flags.Duration("timeout", 30*time.Second, "timeout for each catalog request")
	flags.StringP("output", "o", "text", "output format: text, json or yaml")
	flags.String("order", string(util.OrderLexical), "version ordering: lexical or semantic")

	for key, name := range map[string]string{
		"backend.url":     "backend",
		"backend.timeout": "timeout",
		"output":          "output",
		"versions.order":  "order",
	} {
		_ = v.BindPFlag(key, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newPackageCmd(a),
		newVulnCmd(a),
		newSBOMCmd(a),
		newPingCmd(a),
	)

	return rootCmd
}

// setup loads configuration and builds the catalog clients
func (a *app) setup(v *viper.Viper, cfgFile string, verbose bool) error {
	a.logger = util.InitLogger(verbose)

	cfg, err := config.LoadFrom(v, cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	order, err := util.ParseOrdering(cfg.Versions.Order)
	if err != nil {
		return err
	}
	a.order = order

	b, err := backend.New(cfg.Backend.URL)
	if err != nil {
		return err
	}
	a.backend = b

	a.opts = []backend.Option{
		backend.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}),
		backend.WithLogger(a.logger),
	}
	a.packages = backend.NewPackageService(b, a.opts...)
	a.vulns = backend.NewVulnerabilityService(b, a.opts...)

	a.logger.Debug("configuration loaded",
		zap.String("backend", b.String()),
		zap.Duration("timeout", cfg.Backend.Timeout),
		zap.String("output", cfg.Output),
		zap.String("order", string(order)))
	return nil
}
