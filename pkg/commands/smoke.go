package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type smokeOptions struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type smokeCheck struct {
	Path   string `json:"path"`
	Status int    `json:"status"`
}

func newSmokeCmd() *cobra.Command {
	var opts smokeOptions

	cmd := &cobra.Command{
		Use:   "smoke --base-url <url> --token <jwt>",
		Short: "Run a small smoke check against a running server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(opts.BaseURL) == "" {
				return errors.New("--base-url is required")
			}
			if strings.TrimSpace(opts.Token) == "" {
				return errors.New("--token is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()

			client := newHTTPClient(opts.Timeout)
			checks := make([]smokeCheck, 0, 3)
			for _, path := range []string{"/api/v1/health", "/api/v1/me", "/api/v1/tasks/stats"} {
				status, err := checkPath(ctx, client, opts.BaseURL, path, opts.Token)
				if err != nil {
					return err
				}
				checks = append(checks, smokeCheck{Path: path, Status: status})
				if status/100 != 2 {
					return fmt.Errorf("smoke failed: %s status=%d", path, status)
				}
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "checks": checks})
		},
	}

	cmd.Flags().StringVar(&opts.BaseURL, "base-url", "http://localhost:3200", "server base URL")
	cmd.Flags().StringVar(&opts.Token, "token", "", "bearer token, e.g. from `taskgrid token mint`")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "overall timeout")

	return cmd
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

func checkPath(ctx context.Context, client *http.Client, baseURL, path, token string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+path, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}
