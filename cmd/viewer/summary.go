package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func summaryCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <chat.txt|chat.zip>",
		Short: "Участники, число сообщений, период и вложения",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openChat(cmd, opts, args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			// Сводка считается по всей переписке
			view, err := c.session.View()
			for err == nil && !view.DecodeComplete {
				view, err = c.session.LoadMore()
			}
			if err != nil {
				return err
			}

			s := view.Summary
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Участники: %s\n", strings.Join(s.Participants, ", "))
			fmt.Fprintf(out, "Сообщений: %d\n", s.TotalCount)
			fmt.Fprintf(out, "Период: %s - %s\n", s.StartDate, s.EndDate)
			fmt.Fprintf(out, "Вложений: %d сопоставлено, %d файлов в архиве, %d без сообщения\n",
				s.MediaCount, s.MediaFiles, c.pipeline.UnassignedMedia())
			return nil
		},
	}
}
