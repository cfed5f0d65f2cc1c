package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	app_info "github.com/vvv850/infra-mapper/internal/app-info"
)

func version() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf(
				"%s: %s\n",
				app_info.NAME,
				app_info.VERSION,
			)
		},
	}

	return cmd
}
