// Package service holds the commands that drive the daemons of the stack.
package service

import (
	"github.com/spf13/cobra"

	"github.com/danieljhkim/bigdata-wsl/internal/app"
	svc "github.com/danieljhkim/bigdata-wsl/internal/service"
)

// NewStartCmd creates the start command
func NewStartCmd(getApp app.Getter) *cobra.Command {
	return newStartCmd(getApp)
}

// NewStopCmd creates the stop command
func NewStopCmd(getApp app.Getter) *cobra.Command {
	return newStopCmd(getApp)
}

// NewStatusCmd creates the status command
func NewStatusCmd(getApp app.Getter) *cobra.Command {
	return newStatusCmd(getApp)
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd(getApp app.Getter) *cobra.Command {
	return newVerifyCmd(getApp)
}

// selectStack returns the app together with the stages named by args.
func selectStack(getApp app.Getter, args []string) (*app.App, *svc.Stack, error) {
	a, err := getApp()
	if err != nil {
		return nil, nil, err
	}
	stack, err := a.Stack().Select(args...)
	if err != nil {
		return nil, nil, err
	}
	return a, stack, nil
}
