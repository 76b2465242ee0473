package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for privacylens.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "privacylens",
		Short: "Privacy analyzer for web pages",
		Long: `privacylens inspects web pages for privacy risks.

It reports third-party domains, dangerous dynamic code, fingerprinting
APIs, canvas/WebGL/font fingerprinting, cookies and local storage use,
and summarizes them as a privacy score from 0 to 100.

Pages run in an embedded JavaScript sandbox by default.
Use --renderer chrome to analyze them in a real headless browser.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHostCmd())
	cmd.AddCommand(NewTabsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
