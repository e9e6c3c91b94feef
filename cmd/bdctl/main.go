// Package main implements the bdctl CLI for querying a running boardd server.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var (
	// serverURL is the base URL for the boardd HTTP server
	serverURL string
	// version information
	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "bdctl",
	Short: "CLI for boardd HTTP server operations",
	Long: `bdctl is a command-line interface for a running boardd server.
It can check server health, fetch the current board, and follow live updates.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8480", "boardd server URL")
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(watchCmd)
}

// healthCmd checks server health
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check boardd server health",
	Long: `Check the health of the boardd HTTP server, including the render
gate state and the sequence number of the last committed board.

Examples:
  # Check health
  bdctl health

  # Check health on a different server
  bdctl health --server http://localhost:9000`,
	RunE: runHealth,
}

var boardJSON bool

// boardCmd fetches the current board
var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Fetch the current board",
	Long: `Fetch the currently rendered board and print a per-column summary.

Examples:
  # Column summary
  bdctl board

  # Raw JSON
  bdctl board --json`,
	RunE: runBoard,
}

// watchCmd follows the live board stream
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow live board updates",
	Long: `Subscribe to the server's SSE stream and print one line per board
frame as it commits. Runs until interrupted.

Examples:
  bdctl watch`,
	RunE: runWatch,
}

func init() {
	boardCmd.Flags().BoolVar(&boardJSON, "json", false, "print the raw JSON envelope")
}

// HealthResponse matches pkg/server HealthResponse
type HealthResponse struct {
	Status   string `json:"status"`
	Gate     string `json:"gate"`
	Seq      uint64 `json:"seq"`
	Rendered bool   `json:"rendered"`
}

// BoardResponse matches pkg/server BoardResponse
type BoardResponse struct {
	Seq     uint64          `json:"seq"`
	GroupBy string          `json:"group_by"`
	Source  string          `json:"source"`
	Time    time.Time       `json:"time"`
	Records int             `json:"records"`
	Buckets []BucketPayload `json:"buckets"`
}

// BucketPayload matches pkg/server BucketPayload
type BucketPayload struct {
	Name    string       `json:"name"`
	Label   string       `json:"label"`
	Records []TaskRecord `json:"records"`
}

// TaskRecord matches pkg/board TaskRecord
type TaskRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// runHealth handles the health command
func runHealth(cmd *cobra.Command, args []string) error {
	resp, err := get("/health", 5*time.Second)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	var health HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Server Status: %s\n", health.Status)
	fmt.Printf("Server URL:    %s\n", serverURL)
	if health.Gate != "" {
		fmt.Printf("Render Gate:   %s\n", health.Gate)
		fmt.Printf("Board Seq:     %d\n", health.Seq)
	}
	return nil
}

// runBoard handles the board command
func runBoard(cmd *cobra.Command, args []string) error {
	resp, err := get("/board", 10*time.Second)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("no board rendered yet")
	}
	if err := checkStatus(resp); err != nil {
		return err
	}

	if boardJSON {
		_, err := io.Copy(os.Stdout, resp.Body)
		return err
	}

	var board BoardResponse
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Print(formatBoard(board))
	return nil
}

// runWatch handles the watch command
func runWatch(cmd *cobra.Command, args []string) error {
	req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, serverURL+"/board/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// No client timeout: the stream stays open until interrupted.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", req.URL, err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		payload, ok := strings.CutPrefix(scanner.Text(), "data: ")
		if !ok {
			// event name lines, heartbeat comments, blank separators
			continue
		}
		var board BoardResponse
		if err := json.Unmarshal([]byte(payload), &board); err != nil {
			fmt.Fprintf(os.Stderr, "skipping malformed frame: %v\n", err)
			continue
		}
		fmt.Println(formatFrameLine(board))
	}
	if err := scanner.Err(); err != nil && cmd.Context().Err() == nil {
		return fmt.Errorf("stream closed: %w", err)
	}
	return nil
}

// formatBoard renders a board response as a per-column summary.
func formatBoard(board BoardResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Board (seq %d, grouped by %s, %d tasks)\n", board.Seq, board.GroupBy, board.Records)
	for _, bucket := range board.Buckets {
		name := bucket.Name
		if bucket.Label != "" {
			name = bucket.Label
		}
		fmt.Fprintf(&b, "  %s (%d)\n", name, len(bucket.Records))
		for _, rec := range bucket.Records {
			if rec.Title != "" {
				fmt.Fprintf(&b, "    %s  %s\n", rec.ID, rec.Title)
			} else {
				fmt.Fprintf(&b, "    %s\n", rec.ID)
			}
		}
	}
	return b.String()
}

// formatFrameLine renders one board frame as a single watch line.
func formatFrameLine(board BoardResponse) string {
	counts := make([]string, 0, len(board.Buckets))
	for _, bucket := range board.Buckets {
		counts = append(counts, fmt.Sprintf("%s=%d", bucket.Name, len(bucket.Records)))
	}
	return fmt.Sprintf("%s seq=%d group_by=%s records=%d %s",
		board.Time.Format(time.TimeOnly), board.Seq, board.GroupBy, board.Records,
		strings.Join(counts, " "))
}

// get performs a GET against the server with a timeout.
func get(path string, timeout time.Duration) (*http.Response, error) {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s%s: %w", serverURL, path, err)
	}
	return resp, nil
}

// checkStatus turns a non-200 response into an error carrying the body.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return fmt.Errorf("server returned status %d (failed to read response body: %w)", resp.StatusCode, readErr)
	}
	return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
}
