// Package hostcli wires the host abstraction core into a small cobra
// command tree for interactive use: resolving hosts, staging files,
// and running commands against an alias from a hosts document.
package hostcli

import (
	"fmt"
	"os"

	"github.com/sosgo/hostcore/internal/hostconfig"
	"github.com/sosgo/hostcore/internal/hostwire"
	"github.com/sosgo/hostcore/internal/logger"
	"github.com/sosgo/hostcore/internal/registry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	log     = logger.NewEnvLogger("[hostctl]")
)

var rootCmd = &cobra.Command{
	Use:   "hostctl",
	Short: "Resolve hosts and run commands across local and remote machines.",
	Long: `hostctl resolves a host alias against a hosts document, computes its
path map and shared set, and runs commands or stages files against the
resulting agent -- local in-process or remote over SSH.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to hosts document (default ./hosts.yaml)")
	rootCmd.AddCommand(resolveCmd, runCmd, stageCmd)
}

// Execute runs the hostctl command tree.
func Execute() error {
	return rootCmd.Execute()
}

func loadDocument() (*hostconfig.Document, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("hosts")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading hosts document: %w", err)
	}
	doc := hostconfig.DefaultDocument()
	if err := v.Unmarshal(doc); err != nil {
		return nil, fmt.Errorf("parsing hosts document: %w", err)
	}
	return doc, nil
}

func buildRegistry(doc *hostconfig.Document) (*registry.Registry, *hostwire.Resolver) {
	resolver := hostwire.New(doc, log)
	return registry.Global(), resolver
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
