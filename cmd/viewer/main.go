package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts globalOptions

	rootCmd := &cobra.Command{
		Use:           "viewer",
		Short:         "Просмотр экспорта чата WhatsApp (.txt или .zip с медиафайлами)",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yml", "путь к файлу конфигурации")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "не выделять вывод цветом")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "подробный лог в stderr")

	rootCmd.AddCommand(summaryCmd(&opts))
	rootCmd.AddCommand(messagesCmd(&opts))
	rootCmd.AddCommand(mediaCmd(&opts))
	rootCmd.AddCommand(exportCmd(&opts))

	return rootCmd
}
