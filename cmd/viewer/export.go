package main

import (
	"fmt"
	"os"
	"whatsapp-chat-viewer/internal/adapters/exporter"

	"github.com/spf13/cobra"
)

func exportCmd(opts *globalOptions) *cobra.Command {
	var filters filterFlags
	var output string

	cmd := &cobra.Command{
		Use:   "export <chat.txt|chat.zip>",
		Short: "Выгрузка подходящих сообщений в xlsx",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := filters.criteria()
			if err != nil {
				return err
			}

			c, err := openChat(cmd, opts, args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			view, err := c.session.SetCriteria(criteria)
			for err == nil && view.HasMore {
				view, err = c.session.LoadMore()
			}
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := exporter.NewExcelExporter(f, c.log).Export(view); err != nil {
				_ = f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "Выгружено сообщений: %d в %s\n", len(view.Messages), output)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "chat.xlsx", "имя xlsx-файла")
	return cmd
}
