package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	pterrors "github.com/producttrack/producttrack/internal/errors"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show or tail CLI logs",
	Long: `View the producttrack log file.

Logs are written to ~/.producttrack/producttrack.log unless logging.file
says otherwise. Use --verbose on any command to log to stderr instead.

Examples:
  # Show recent logs
  producttrack logs

  # Show the last 50 entries
  producttrack logs --lines 50

  # Follow the log in real time
  producttrack logs --follow`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

const followInterval = 200 * time.Millisecond

func init() {
	logsCmd.Flags().IntP("lines", "n", 20, "number of entries to show")
	logsCmd.Flags().Bool("follow", false, "keep printing new entries (Ctrl+C to stop)")
	rootCmd.AddCommand(logsCmd)
}

func runLogs(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	lines, _ := cmd.Flags().GetInt("lines")
	follow, _ := cmd.Flags().GetBool("follow")
	if lines < 0 {
		return usageError("--lines must not be negative")
	}

	path := s.cfg.Logging.File
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		s.say("No logs yet at %s.", path)
		return nil
	}
	if err != nil {
		return pterrors.Wrap(pterrors.ErrCodeFileReadFailed, "failed to stat log file", err)
	}

	out := cmd.OutOrStdout()
	if !s.cc.Quiet {
		fmt.Fprintf(out, "%s (%s)\n\n", path, formatFileSize(info.Size()))
	}
	if err := tailFile(out, path, lines); err != nil {
		return err
	}
	if !follow {
		return nil
	}
	return followLogs(cmd.Context(), out, path, followInterval)
}

// formatLogLine renders one slog JSON record compactly. Other lines pass
// through unchanged.
func formatLogLine(line string) string {
	var event map[string]any
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return line
	}
	ts := extractField(event, "time")
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		ts = t.Format("2006-01-02 15:04:05")
	}
	level := extractField(event, "level")
	msg := extractField(event, "msg")
	if ts == "" || msg == "" {
		return line
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %-5s %s", ts, level, msg)
	for _, k := range slices.Sorted(maps.Keys(event)) {
		switch k {
		case "time", "level", "msg":
			continue
		}
		fmt.Fprintf(&b, " %s=%v", k, event[k])
	}
	return b.String()
}

func tailFile(w io.Writer, path string, numLines int) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			lines = append(lines, scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	start := 0
	if len(lines) > numLines {
		start = len(lines) - numLines
	}
	for _, line := range lines[start:] {
		fmt.Fprintln(w, formatLogLine(line))
	}
	return nil
}

// followLogs prints lines appended to path until ctx is done.
func followLogs(ctx context.Context, w io.Writer, path string, interval time.Duration) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	var partial string
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		for {
			chunk, err := reader.ReadString('\n')
			partial += chunk
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("error reading log: %w", err)
			}
			if line := strings.TrimSpace(partial); line != "" {
				fmt.Fprintln(w, formatLogLine(line))
			}
			partial = ""
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func extractField(event map[string]any, field string) string {
	if val, ok := event[field]; ok {
		return fmt.Sprintf("%v", val)
	}
	return ""
}

func formatFileSize(size int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.2f GB", float64(size)/float64(GB))
	case size >= MB:
		return fmt.Sprintf("%.2f MB", float64(size)/float64(MB))
	case size >= KB:
		return fmt.Sprintf("%.2f KB", float64(size)/float64(KB))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
