package cli

import (
	"fmt"

	"github.com/Povusa/TECNOMAT/internal/cli/formatter"
	"github.com/Povusa/TECNOMAT/internal/config"
	"github.com/Povusa/TECNOMAT/internal/template"
	"github.com/spf13/cobra"
)

func newTemplateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Work with the xlsx report template",
	}

	cmd.AddCommand(newTemplateInspectCmd(app))

	return cmd
}

func newTemplateInspectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect [PATH]",
		Short: "Show where project data goes in a template",
		Long:  "Prints the sheet and the project row found in PATH, or in the configured\ntemplate when PATH is omitted.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := app.Config.TemplatePath
			if len(args) == 1 {
				path = args[0]
			}

			sheet, layout, err := template.InspectFile(path)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatLayout(path, sheet, layout))
			return nil
		},
	}
	cmd.Flags().String(config.FlagTemplate, config.DefaultConfig().TemplatePath, "path to the xlsx report template")
	return cmd
}
