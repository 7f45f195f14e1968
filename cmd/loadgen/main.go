package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	vegeta "github.com/tsenart/vegeta/v12/lib"
)

var (
	baseURL     string
	rps         int
	duration    time.Duration
	secret      string
	repoURL     string
	login       string
	issueSpread int
)

func main() {
	root := &cobra.Command{
		Use:          "loadgen",
		Short:        "Load generator for the bounty API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "API base url")
	root.PersistentFlags().IntVar(&rps, "rps", 5, "requests per second")
	root.PersistentFlags().DurationVar(&duration, "duration", 2*time.Minute, "attack duration")

	reads := &cobra.Command{
		Use:   "reads",
		Short: "Hit health and read endpoints",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return attack(cmd.OutOrStdout(), "reads", vegeta.NewStaticTargeter(readTargets(baseURL)...))
		},
	}

	webhooks := &cobra.Command{
		Use:   "webhooks",
		Short: "Deliver signed pull_request webhooks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if secret == "" {
				secret = os.Getenv("GITHUB_WEBHOOK_SECRET")
			}
			return attack(cmd.OutOrStdout(), "webhooks", webhookTargeter(baseURL, repoURL, login, issueSpread, []byte(secret)))
		},
	}
	webhooks.Flags().StringVar(&secret, "secret", "", "webhook secret (default GITHUB_WEBHOOK_SECRET)")
	webhooks.Flags().StringVar(&repoURL, "repo", "https://github.com/acme/chain", "repository html url")
	webhooks.Flags().StringVar(&login, "login", "load-tester", "pull request author login")
	webhooks.Flags().IntVar(&issueSpread, "issues", 50, "issue numbers referenced by generated PRs")

	root.AddCommand(reads, webhooks)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func attack(out io.Writer, name string, targeter vegeta.Targeter) error {
	rate := vegeta.Rate{Freq: rps, Per: time.Second}
	attacker := vegeta.NewAttacker()

	var metrics vegeta.Metrics
	for res := range attacker.Attack(targeter, rate, duration, name) {
		metrics.Add(res)
	}
	metrics.Close()

	printMetrics(out, name, &metrics)
	return nil
}

func printMetrics(out io.Writer, name string, m *vegeta.Metrics) {
	fmt.Fprintf(out, "\n=== %s ===\n\n", name)
	fmt.Fprintf(out, "Requests Total:     %d\n", m.Requests)
	fmt.Fprintf(out, "Success Rate:       %.2f%%\n", m.Success*100)
	fmt.Fprintf(out, "Duration:           %v\n", m.Duration)
	if m.Requests == 0 {
		return
	}

	fmt.Fprintf(out, "\nLatency:\n")
	fmt.Fprintf(out, "  Mean:             %v\n", m.Latencies.Mean)
	fmt.Fprintf(out, "  P50:              %v\n", m.Latencies.P50)
	fmt.Fprintf(out, "  P95:              %v\n", m.Latencies.P95)
	fmt.Fprintf(out, "  P99:              %v\n", m.Latencies.P99)
	fmt.Fprintf(out, "  Max:              %v\n", m.Latencies.Max)
	fmt.Fprintf(out, "\nThroughput:         %.2f req/s\n", m.Rate)

	fmt.Fprintf(out, "\nStatus Codes:\n")
	for code, count := range m.StatusCodes {
		fmt.Fprintf(out, "  %s: %d\n", code, count)
	}
	if len(m.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors:\n")
		for _, err := range m.Errors {
			fmt.Fprintf(out, "  %s\n", err)
		}
	}
}
