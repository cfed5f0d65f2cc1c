package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvv850/infra-mapper/internal/exception"
	"github.com/vvv850/infra-mapper/internal/render"
	"github.com/vvv850/infra-mapper/internal/store"
)

// creates and returns the "render" command
func renderFromSnapshot() *cobra.Command {
	var format string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Re-render diagrams from the last discovery run without probing",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, err := render.ParseFormat(format)

			if err != nil {
				return err
			}

			repo, err := store.NewSqliteDatabase()

			if err != nil {
				return err
			}

			fleet, err := repo.LoadFleet()

			if err != nil {
				if errors.Is(err, exception.ErrRecordNotFound) {
					return errors.New("no saved discovery run found, run infra-mapper first")
				}

				return err
			}

			written, err := render.WriteFiles(fleet, outputFormat, outputDir)

			if err != nil {
				return err
			}

			for _, target := range written {
				fmt.Printf("wrote %s\n", target)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", string(render.FormatMermaid), "output format: mermaid, html or both")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to write diagram files to")

	return cmd
}
