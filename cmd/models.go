package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models this gateway can route to",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := buildApp()
		if err != nil {
			return err
		}
		defer application.closeSink() //nolint:errcheck // process exit path

		printModels(application, userID)
		return nil
	},
}

// printModels lists registered models in registration order, marking the
// user's active selection.
func printModels(application *app, forUser string) {
	active := ""
	if forUser != "" {
		active = application.sessions.ActiveModel(forUser)
	}

	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(os.Stderr)
	for _, descriptor := range application.registry.List() {
		marker := "  "
		if descriptor.ID == active {
			marker = "* "
		}
		bold.Fprintf(os.Stderr, "  %s%s", marker, descriptor.ID)
		dim.Fprintf(os.Stderr, "  %s (%s)\n", descriptor.DisplayName, descriptor.Modality)
	}
	fmt.Fprintln(os.Stderr)
}
