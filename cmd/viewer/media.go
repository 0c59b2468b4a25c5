package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func mediaCmd(opts *globalOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "media <chat.zip> [filename]",
		Short: "Список медиафайлов архива или содержимое одного из них",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openChat(cmd, opts, args[0])
			if err != nil {
				return err
			}
			defer c.Close()

			if len(args) == 1 {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "FILE\tTYPE\tSIZE")
				for _, att := range c.pipeline.Library().Files() {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", att.Filename, att.Category, att.Size)
				}
				return tw.Flush()
			}

			att, data, err := c.session.Media(args[1])
			if err != nil {
				return fmt.Errorf("%s: %w", args[1], err)
			}
			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s (%s, %d байт) сохранен в %s\n", att.Filename, att.Category, len(data), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "куда сохранить файл (по умолчанию stdout)")
	return cmd
}
