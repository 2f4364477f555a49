package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/support-chat/internal/classifier"
	"github.com/spec-kit/support-chat/internal/keywords"
	"github.com/spec-kit/support-chat/internal/normalize"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "novactl",
		Short:         "Offline tools for the Nova support chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newNormalizeCmd(), newClassifyCmd())
	return root
}

func newNormalizeCmd() *cobra.Command {
	var listStages bool
	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize raw completion text read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pipeline := normalize.New()
			if listStages {
				for _, stage := range pipeline.Stages() {
					fmt.Fprintln(cmd.OutOrStdout(), stage.Name)
				}
				return nil
			}

			raw, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := pipeline.Run(raw)
			if err != nil {
				return fmt.Errorf("normalize: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&listStages, "stages", false, "print the stage names in run order and exit")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <message>",
		Short: "Print the topic verdict for a user message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := keywords.Load()
			if err != nil {
				return err
			}
			verdict := classifier.New(tables).Classify(strings.Join(args, " "))
			fmt.Fprintln(cmd.OutOrStdout(), verdict)
			return nil
		},
	}
}

func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
