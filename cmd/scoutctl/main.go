// scoutctl is a small client for the marketscout REST API: submit an
// analysis, watch it finish, and fetch the rendered report.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
)

var serverFlag = &cli.StringFlag{
	Name:  "server",
	Usage: "base URL of the marketscout API",
	Value: "http://localhost:8000",
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "scoutctl",
		Usage: "client for the market research multi-agent API",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "submit a market research analysis",
				Flags: []cli.Flag{
					serverFlag,
					&cli.StringFlag{
						Name:     "target",
						Usage:    "company or product to analyze",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "mode",
						Usage: "analysis mode (quick/detailed)",
						Value: "quick",
					},
					&cli.StringFlag{
						Name:  "api-key",
						Usage: "platform API key (falls back to the server's configured key)",
					},
					&cli.BoolFlag{
						Name:  "wait",
						Usage: "poll until the job reaches a terminal state",
					},
				},
				Action: runAction,
			},
			{
				Name:  "status",
				Usage: "show one job's status and result",
				Flags: []cli.Flag{
					serverFlag,
					&cli.StringFlag{
						Name:     "job-id",
						Usage:    "job identifier",
						Required: true,
					},
				},
				Action: statusAction,
			},
			{
				Name:   "jobs",
				Usage:  "list all jobs, newest first",
				Flags:  []cli.Flag{serverFlag},
				Action: jobsAction,
			},
			{
				Name:  "delete",
				Usage: "cancel and remove a job",
				Flags: []cli.Flag{
					serverFlag,
					&cli.StringFlag{
						Name:     "job-id",
						Usage:    "job identifier",
						Required: true,
					},
				},
				Action: deleteAction,
			},
			{
				Name:  "report",
				Usage: "download a completed job's report",
				Flags: []cli.Flag{
					serverFlag,
					&cli.StringFlag{
						Name:     "job-id",
						Usage:    "job identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "report format (md/pdf)",
						Value: "md",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "output file path (default: analysis_<job-id>.<format>)",
					},
				},
				Action: reportAction,
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	body := map[string]string{
		"target":  cmd.String("target"),
		"mode":    cmd.String("mode"),
		"api_key": cmd.String("api-key"),
	}
	var resp struct {
		JobID               string `json:"job_id"`
		Status              string `json:"status"`
		Message             string `json:"message"`
		EstimatedCompletion string `json:"estimated_completion"`
	}
	if err := postJSON(ctx, cmd.String("server")+"/run-agent", body, &resp); err != nil {
		return err
	}

	fmt.Printf("Job:       %s\n", resp.JobID)
	fmt.Printf("Status:    %s\n", resp.Status)
	fmt.Printf("Estimated: %s\n", resp.EstimatedCompletion)

	if !cmd.Bool("wait") {
		return nil
	}
	return waitForJob(ctx, cmd.String("server"), resp.JobID)
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	job, err := fetchJob(ctx, cmd.String("server"), cmd.String("job-id"))
	if err != nil {
		return err
	}
	printJob(job)
	return nil
}

func jobsAction(ctx context.Context, cmd *cli.Command) error {
	var resp struct {
		Jobs []jobView `json:"jobs"`
	}
	if err := getJSON(ctx, cmd.String("server")+"/jobs", &resp); err != nil {
		return err
	}
	if len(resp.Jobs) == 0 {
		fmt.Println("No jobs found.")
		return nil
	}
	for _, job := range resp.Jobs {
		fmt.Printf("%-60s %-10s %s\n", job.JobID, job.Status, job.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func deleteAction(ctx context.Context, cmd *cli.Command) error {
	url := cmd.String("server") + "/jobs/" + cmd.String("job-id")
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	var resp struct {
		Message string `json:"message"`
	}
	if err := do(req, &resp); err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func reportAction(ctx context.Context, cmd *cli.Command) error {
	jobID := cmd.String("job-id")
	format := cmd.String("format")
	if format != "md" && format != "pdf" {
		return fmt.Errorf("format must be 'md' or 'pdf'")
	}

	url := cmd.String("server") + "/download/" + jobID + "." + format
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	out := cmd.String("output")
	if out == "" {
		out = "analysis_" + jobID + "." + format
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("Report written to %s (%d bytes)\n", out, len(data))
	return nil
}

type jobView struct {
	JobID       string     `json:"job_id"`
	Target      string     `json:"target"`
	Mode        string     `json:"mode"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Progress    struct {
		Stage string `json:"stage"`
	} `json:"progress"`
	Result *struct {
		Summary   string   `json:"summary"`
		Citations []string `json:"citations"`
	} `json:"result"`
	Error *string `json:"error"`
}

func fetchJob(ctx context.Context, server, jobID string) (*jobView, error) {
	var job jobView
	if err := getJSON(ctx, server+"/results/"+jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func printJob(job *jobView) {
	fmt.Printf("Job:     %s\n", job.JobID)
	fmt.Printf("Target:  %s\n", job.Target)
	fmt.Printf("Mode:    %s\n", job.Mode)
	fmt.Printf("Status:  %s (%s)\n", job.Status, job.Progress.Stage)
	fmt.Printf("Created: %s\n", job.CreatedAt.Format(time.RFC3339))
	if job.CompletedAt != nil {
		fmt.Printf("Done:    %s\n", job.CompletedAt.Format(time.RFC3339))
	}
	if job.Error != nil {
		fmt.Printf("Error:   %s\n", *job.Error)
	}
	if job.Result != nil {
		fmt.Printf("Summary: %s\n", job.Result.Summary)
		fmt.Printf("Sources: %d\n", len(job.Result.Citations))
	}
}

func waitForJob(ctx context.Context, server, jobID string) error {
	fmt.Println("Waiting for completion...")
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		job, err := fetchJob(ctx, server, jobID)
		if err != nil {
			return err
		}
		fmt.Printf("  %s (%s)\n", job.Status, job.Progress.Stage)
		if job.Status == "completed" || job.Status == "failed" {
			printJob(job)
			return nil
		}
	}
}

func getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return do(req, out)
}

func postJSON(ctx context.Context, url string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(req, out)
}

func do(req *http.Request, out any) error {
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiError(resp *http.Response) error {
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
