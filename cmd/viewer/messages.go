package main

import (
	"github.com/spf13/cobra"
)

func messagesCmd(opts *globalOptions) *cobra.Command {
	var filters filterFlags
	var pages int
	var all bool

	cmd := &cobra.Command{
		Use:   "messages <chat.txt|chat.zip>",
		Short: "Таблица сообщений с фильтрами",
		Long: `Выводит первое окно сообщений, подходящих под фильтры.
Каждая дополнительная страница (--pages) добавляет шаг окна, --all выводит все.`,
		Args: cobra.ExactArgs(1),
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
			for i := 1; err == nil && view.HasMore && (all || i < pages); i++ {
				view, err = c.session.LoadMore()
			}
			if err != nil {
				return err
			}

			return consoleExporter(cmd, opts).Export(view)
		},
	}

	filters.register(cmd)
	cmd.Flags().IntVarP(&pages, "pages", "n", 1, "сколько окон показать")
	cmd.Flags().BoolVar(&all, "all", false, "показать все подходящие сообщения")
	return cmd
}
