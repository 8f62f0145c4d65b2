package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jabber-tools/nlptestrunner/internal/model"
	"github.com/jabber-tools/nlptestrunner/internal/orchestrator"
	"github.com/jabber-tools/nlptestrunner/internal/report"
	"github.com/jabber-tools/nlptestrunner/internal/suitefile"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	loadDotEnv()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadDotEnv loads a .env file from the working directory if present,
// convenient for running against a VAP sandbox without exporting
// VAP_SVC_ACCOUNT_PASSWORD into the shell.
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to load .env", "error", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nlptest",
	Short: "Concurrent integration test runner for conversational NLP backends",
	Long:  "nlptest drives declarative multi-turn dialog suites against Dialogflow or the VAP gateway and reports pass/fail per test.",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nlptest %s (build: %s)\n", version, commit)
	},
}

var (
	runSuiteFile     string
	runHTMLReport    string
	runJSONReport    string
	runDisableStdout bool
	runWorkers       int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a suite file against its configured NLP backend",
	RunE:  runSuite,
}

func runSuite(cmd *cobra.Command, args []string) error {
	suite, err := suitefile.LoadFile(runSuiteFile)
	if err != nil {
		log.Error("suite validation failed", "error", err)
		return err
	}

	orch, err := orchestrator.New(suite)
	if err != nil {
		log.Error("suite construction failed", "error", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGINT)
	go func() {
		<-sigCh
		log.Warn("received interrupt, aborting in-flight turns and stopping")
		orch.Cancel()
		cancel()
	}()

	log.Info("running suite", "name", suite.Name, "type", suite.Type, "tests", len(suite.Tests))
	tests, err := orch.Run(ctx, runWorkers)
	if err != nil {
		log.Error("suite run failed", "error", err)
		return err
	}

	if !runDisableStdout {
		report.WriteConsole(os.Stdout, suite.Name, tests)
	}
	if runJSONReport != "" {
		if err := writeReportFile(runJSONReport, func(f *os.File) error {
			return report.WriteJSON(f, tests)
		}); err != nil {
			return err
		}
	}
	if runHTMLReport != "" {
		if err := writeReportFile(runHTMLReport, func(f *os.File) error {
			return report.WriteHTML(f, suite.Name, tests)
		}); err != nil {
			return err
		}
	}

	if !allPassed(tests) {
		os.Exit(1)
	}
	return nil
}

func writeReportFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file %s: %w", path, err)
	}
	defer f.Close()
	return write(f)
}

func allPassed(tests []*model.Test) bool {
	for _, t := range tests {
		if t.Result != model.Ok {
			return false
		}
	}
	return true
}

func init() {
	runCmd.Flags().StringVarP(&runSuiteFile, "suite-file", "f", "", "path to the YAML suite file (required)")
	runCmd.Flags().StringVar(&runHTMLReport, "html-report", "", "write an HTML report to the given path")
	runCmd.Flags().StringVar(&runJSONReport, "json-report", "", "write a JSON report to the given path")
	runCmd.Flags().BoolVar(&runDisableStdout, "disable-stdout-report", false, "suppress the stdout table report")
	runCmd.Flags().IntVar(&runWorkers, "workers", 4, "worker pool size")
	runCmd.MarkFlagRequired("suite-file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}
