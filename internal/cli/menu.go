package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/install"
	"github.com/danieljhkim/bigdata-wsl/internal/util"
)

type menuItem struct {
	label   string
	command string // subcommand path run for this item
}

var menuItems = []menuItem{
	{"Install everything (resumes an earlier run)", "install"},
	{"Run preflight checks", "preflight"},
	{"Start services", "start"},
	{"Stop services", "stop"},
	{"Show service status", "status"},
	{"Verify the stack", "verify"},
	{"List installation steps", "steps"},
	{"Re-render configuration", "config render"},
}

// stdin is the only buffered reader over os.Stdin. The menu and every
// prompt of the commands it runs read through it.
var stdin = bufio.NewReader(os.Stdin)

// runMenu shows the interactive menu until the user quits or stdin closes.
func runMenu(ctx context.Context, root *cobra.Command) error {
	in := stdin
	for {
		item, ok := promptMenu(in, util.Stdout)
		if !ok {
			return nil
		}
		if item == nil {
			continue
		}

		sub, _, err := root.Find(strings.Fields(item.command))
		if err != nil {
			return err
		}
		sub.SetContext(ctx)
		if err := sub.RunE(sub, nil); err != nil {
			util.Error("%v", err)
			if hint := install.HintOf(err); hint != "" {
				util.Hint("hint: %s", hint)
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintln(util.Stdout)
	}
}

// promptMenu prints the menu and reads one choice. It returns ok=false to
// quit and a nil item for an invalid choice.
func promptMenu(in *bufio.Reader, out io.Writer) (*menuItem, bool) {
	fmt.Fprintln(out, "bigdata - single-node big-data stack")
	for i, item := range menuItems {
		fmt.Fprintf(out, "  %d) %s\n", i+1, item.label)
	}
	fmt.Fprintln(out, "  q) Quit")
	fmt.Fprint(out, "Choice: ")

	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return nil, false
	}
	return parseChoice(line)
}

func parseChoice(line string) (*menuItem, bool) {
	choice := strings.ToLower(strings.TrimSpace(line))
	switch choice {
	case "q", "quit", "exit", "0":
		return nil, false
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(menuItems) {
		util.Warn("invalid choice %q", choice)
		return nil, true
	}
	return &menuItems[n-1], true
}
