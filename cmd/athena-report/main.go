// Command athena-report prints the overview report for one time range.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"athena/internal/athena"
	"athena/internal/cli"
	"athena/internal/config"
	"athena/internal/report"
	"athena/internal/services"
)

func main() {
	cli.LoadEnvFile()

	rangeFlag := flag.String("range", string(report.Last24h), "time range: 24h, 7d or 30d")
	token := flag.String("token", os.Getenv("ATHENA_API_TOKEN"), "API token sent as a bearer credential")
	timeout := flag.Duration("timeout", 30*time.Second, "overall request timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "athena-report:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	ctx = athena.WithToken(ctx, *token)

	client := athena.New(cfg.AthenaAPIURL, athena.WithTimeout(cfg.AthenaAPITimeout))
	dashboard := services.NewDashboardService(client, client)

	rng := report.ParseRange(*rangeFlag)
	overview, err := dashboard.Overview(ctx, rng)
	if err != nil {
		fmt.Fprintln(os.Stderr, "athena-report:", err)
		os.Exit(1)
	}

	fmt.Println(render(overview.Report, time.Now()))
}
