// Command wizard walks a registration through its steps from the terminal.
// Progress is kept in a local file (or redis) and replicated to the API the
// same way the web wizard does it.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
)

var (
	apiURL       string
	flowName     string
	storePath    string
	redisAddr    string
	captchaToken string
	timeout      time.Duration
	verbose      bool
)

var rootCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Fill in a sports festival registration step by step",
	Long: `Fill in a student or institution registration for the sports festival.

Every completed step is saved on the server, so a registration started here
can be finished in the browser with the same email, and the other way round.`,
	SilenceUsage: true,
}

func init() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "http://localhost:8080", "Registration API base URL")
	rootCmd.PersistentFlags().StringVarP(&flowName, "flow", "f", "student", "Registration flow (student or institution)")
	rootCmd.PersistentFlags().StringVar(&storePath, "store", filepath.Join(home, ".festival-registration.json"), "Local progress file; empty keeps progress in memory for this run only")
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Keep progress in redis at this address instead of the local file")
	rootCmd.PersistentFlags().StringVar(&captchaToken, "captcha-token", os.Getenv("FESTIVAL_CAPTCHA_TOKEN"), "Turnstile token sent with the final submission")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for each command")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(statusCmd, emailCmd, stepCmd, backCmd, startOverCmd, quoteCmd, sportsCmd, draftsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
