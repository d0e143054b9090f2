package main

import (
	"fmt"

	questionService "github.com/reshetovitsme/askanon/internal/modules/question/service"
	"github.com/samber/do/v2"
	"github.com/spf13/cobra"
)

func newPendingCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List questions awaiting approval, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInjector(func(i do.Injector) error {
				questions, err := do.MustInvoke[*questionService.Service](i).ListPending(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if len(questions) == 0 {
					fmt.Fprintln(out, "No pending questions.")
					return nil
				}
				for _, q := range questions {
					fmt.Fprintf(out, "%s\t%s\n", q.ID, q.Text)
				}
				return nil
			})
		},
	}
}

func newApproveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <question-id...>",
		Short: "Publish pending questions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInjector(func(i do.Injector) error {
				questions := do.MustInvoke[*questionService.Service](i)
				for _, id := range args {
					if err := questions.Approve(cmd.Context(), id); err != nil {
						return fmt.Errorf("approve %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "APPROVED %s\n", id)
				}
				return nil
			})
		},
	}
}

func newRejectCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "reject <question-id...>",
		Aliases: []string{"delete"},
		Short:   "Delete pending questions",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withInjector(func(i do.Injector) error {
				questions := do.MustInvoke[*questionService.Service](i)
				for _, id := range args {
					if err := questions.DeletePending(cmd.Context(), id); err != nil {
						return fmt.Errorf("reject %s: %w", id, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "REJECTED %s\n", id)
				}
				return nil
			})
		},
	}
}
