package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

// newLogsCmd creates the logs command
func newLogsCmd() *cobra.Command {
	var lines int

	cmd := &cobra.Command{
		Use:   "logs [service...]",
		Short: "Show recent daemon logs",
		Long: `Display the most recent log lines of each daemon.

With no arguments every service is shown, followed by the installer log.

Examples:
  bigdata logs              # All daemons and the installer log
  bigdata logs hdfs kafka   # Only HDFS and Kafka daemons
  bigdata logs -n 400 hive`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := sess.getApp()
			if err != nil {
				return err
			}
			stack, err := a.Stack().Select(args...)
			if err != nil {
				return err
			}

			for _, d := range stack.Daemons() {
				util.Section("%s (%s)", d.Name, d.LogPath())
				if err := printTail(d.LogPath(), lines); err != nil {
					util.Skip("%v", err)
				}
				fmt.Fprintln(util.Stdout)
			}
			if len(args) == 0 {
				log := a.Config.Paths().LogFile()
				util.Section("installer (%s)", log)
				if err := printTail(log, lines); err != nil {
					util.Skip("%v", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 120, "number of lines per log")
	return cmd
}

func printTail(path string, n int) error {
	tail, err := tailLines(path, n)
	if err != nil {
		return err
	}
	for _, line := range tail {
		fmt.Fprintln(util.Stdout, line)
	}
	return nil
}

// tailLines returns the last n lines of path.
func tailLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log yet at %s", path)
		}
		return nil, err
	}
	defer f.Close()

	if n <= 0 {
		return nil, nil
	}
	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, scanner.Text())
	}
	return ring, scanner.Err()
}
