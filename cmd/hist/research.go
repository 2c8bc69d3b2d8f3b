package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alfredjeanlab/history/internal/client"
	"github.com/spf13/cobra"
)

var researchCmd = &cobra.Command{
	Use:     "research",
	Short:   "Create and inspect research tasks",
	GroupID: "research",
}

var researchCreateCmd = &cobra.Command{
	Use:   "create <name> <lat> <lng>",
	Short: "Create a research task for a location",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := validLocation(args)
		if err != nil {
			return err
		}
		task, err := historyClient.CreateTask(context.Background(), loc)
		if err != nil {
			return fmt.Errorf("creating research task: %w", err)
		}
		printTask(task)
		return nil
	},
}

var researchShowCmd = &cobra.Command{
	Use:   "show <token>",
	Short: "Show a research task by its token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := taskReader.GetTask(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("getting research task: %w", err)
		}
		printTask(task)
		return nil
	},
}

var researchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List research tasks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.ListTasksRequest{}
		req.CreatedBy, _ = cmd.Flags().GetString("created-by")
		req.Status, _ = cmd.Flags().GetStringSlice("status")
		req.Limit, _ = cmd.Flags().GetInt("limit")
		req.Offset, _ = cmd.Flags().GetInt("offset")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			req.Since = time.Now().Add(-since)
		}

		resp, err := historyClient.ListTasks(context.Background(), req)
		if err != nil {
			return fmt.Errorf("listing research tasks: %w", err)
		}
		printTaskList(resp.Tasks, resp.Total)
		return nil
	},
}

func init() {
	researchListCmd.Flags().String("created-by", "", "only tasks created by this actor")
	researchListCmd.Flags().StringSlice("status", nil, "filter by status (repeatable: queued, running, completed, failed)")
	researchListCmd.Flags().Duration("since", 0, "only tasks created within this duration")
	researchListCmd.Flags().Int("limit", 20, "maximum number of tasks")
	researchListCmd.Flags().Int("offset", 0, "number of tasks to skip")

	researchCmd.AddCommand(researchCreateCmd)
	researchCmd.AddCommand(researchShowCmd)
	researchCmd.AddCommand(researchListCmd)
}
