package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/history/internal/client"
	"github.com/alfredjeanlab/history/internal/model"
	"github.com/spf13/cobra"
)

var selectToken string

var viewCmd = &cobra.Command{
	Use:     "view",
	Short:   "Open and drive gated research views",
	GroupID: "views",
}

var viewOpenCmd = &cobra.Command{
	Use:   "open [url]",
	Short: "Open a view, resuming any research token in the URL",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		url := "/"
		if len(args) == 1 {
			url = args[0]
		}
		v, err := historyClient.OpenView(context.Background(), url)
		if err != nil {
			return fmt.Errorf("opening view: %w", err)
		}
		printView(v)
		return nil
	},
}

var viewShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a view's gate, session and URL",
	Args:  cobra.ExactArgs(1),
	RunE: viewAction(func(ctx context.Context, id string, _ []string) (*client.View, error) {
		return historyClient.GetView(ctx, id)
	}),
}

var viewListCmd = &cobra.Command{
	Use:   "list",
	Short: "List open views",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := historyClient.ListViews(context.Background())
		if err != nil {
			return fmt.Errorf("listing views: %w", err)
		}
		printViewList(entries)
		return nil
	},
}

var viewDropCmd = &cobra.Command{
	Use:   "drop <id>",
	Short: "Close a view and release its resources",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := historyClient.CloseView(context.Background(), args[0]); err != nil {
			return fmt.Errorf("dropping view: %w", err)
		}
		fmt.Printf("view %s dropped\n", args[0])
		return nil
	},
}

var viewSelectCmd = &cobra.Command{
	Use:   "select <id> <name> <lat> <lng>",
	Short: "Request a research session for a location",
	Args:  cobra.ExactArgs(4),
	RunE: viewAction(func(ctx context.Context, id string, rest []string) (*client.View, error) {
		loc, err := parseLocation(rest)
		if err != nil {
			return nil, err
		}
		return historyClient.Select(ctx, id, &client.SelectRequest{Location: loc, Token: selectToken})
	}),
}

var viewRandomCmd = &cobra.Command{
	Use:   "random <id>",
	Short: "Request a session for a random notable place",
	Args:  cobra.ExactArgs(1),
	RunE: viewAction(func(ctx context.Context, id string, _ []string) (*client.View, error) {
		return historyClient.Random(ctx, id)
	}),
}

var viewAuthCmd = &cobra.Command{
	Use:   "auth <id> guest|signup",
	Short: "Resolve the sign-up prompt",
	Args:  cobra.ExactArgs(2),
	RunE: viewAction(func(ctx context.Context, id string, rest []string) (*client.View, error) {
		outcome, err := parseOutcome(rest[0])
		if err != nil {
			return nil, err
		}
		return historyClient.ResolveAuth(ctx, id, outcome)
	}),
}

var viewQuotaCmd = &cobra.Command{
	Use:   "quota <id>",
	Short: "Dismiss the quota dialog",
	Args:  cobra.ExactArgs(1),
	RunE: viewAction(func(ctx context.Context, id string, _ []string) (*client.View, error) {
		return historyClient.DismissQuota(ctx, id)
	}),
}

var viewCloseCmd = &cobra.Command{
	Use:   "close <id>",
	Short: "Close the research panel and clear the deep link",
	Args:  cobra.ExactArgs(1),
	RunE: viewAction(func(ctx context.Context, id string, _ []string) (*client.View, error) {
		return historyClient.CloseSession(ctx, id)
	}),
}

var viewNavigateCmd = &cobra.Command{
	Use:   "navigate <id> back|forward|<url>",
	Short: "Move through the view's history or visit a URL",
	Args:  cobra.ExactArgs(2),
	RunE: viewAction(func(ctx context.Context, id string, rest []string) (*client.View, error) {
		return historyClient.Navigate(ctx, id, parseNavigate(rest[0]))
	}),
}

var viewTaskCmd = &cobra.Command{
	Use:   "task <id>",
	Short: "Create a research task for the open session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := historyClient.CreateViewTask(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("creating task: %w", err)
		}
		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printTask(resp.Task)
		fmt.Println()
		printView(resp.View)
		return nil
	},
}

var viewNotifyCmd = &cobra.Command{
	Use:   "notify <id> <message>",
	Short: "Show a notification in the view",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		severity, _ := cmd.Flags().GetString("severity")
		n, err := historyClient.Notify(context.Background(), args[0], model.Severity(severity), args[1])
		if err != nil {
			return fmt.Errorf("notifying: %w", err)
		}
		if jsonOutput {
			printJSON(n)
			return nil
		}
		fmt.Printf("[%s] %s\n", n.Severity, n.Message)
		return nil
	},
}

var viewDismissCmd = &cobra.Command{
	Use:   "dismiss <id>",
	Short: "Clear the view's notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := historyClient.ClearNotification(context.Background(), args[0]); err != nil {
			return fmt.Errorf("clearing notification: %w", err)
		}
		return nil
	},
}

// viewAction adapts a view call taking the view ID and remaining args into
// a RunE that prints the resulting view.
func viewAction(fn func(ctx context.Context, id string, rest []string) (*client.View, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		v, err := fn(context.Background(), args[0], args[1:])
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name(), err)
		}
		printView(v)
		return nil
	}
}

// parseLocation reads name, lat and lng arguments. The values are not
// range-checked; see validLocation.
func parseLocation(args []string) (model.Location, error) {
	if len(args) != 3 {
		return model.Location{}, fmt.Errorf("expected <name> <lat> <lng>")
	}
	lat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("invalid latitude %q", args[1])
	}
	lng, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return model.Location{}, fmt.Errorf("invalid longitude %q", args[2])
	}
	return model.Location{Name: args[0], Lat: lat, Lng: lng}, nil
}

// validLocation is parseLocation for research task creation, which requires
// a name and coordinates on the globe.
func validLocation(args []string) (model.Location, error) {
	loc, err := parseLocation(args)
	if err != nil {
		return model.Location{}, err
	}
	if err := model.ValidateLocation(loc); err != nil {
		return model.Location{}, err
	}
	return loc, nil
}

func parseOutcome(s string) (model.AuthOutcome, error) {
	switch strings.ToLower(s) {
	case "guest", string(model.AuthContinuedAsGuest):
		return model.AuthContinuedAsGuest, nil
	case "signup", "sign-up", string(model.AuthSignedUp):
		return model.AuthSignedUp, nil
	}
	return "", fmt.Errorf("unknown outcome %q (must be guest or signup)", s)
}

func parseNavigate(arg string) *client.NavigateRequest {
	switch arg {
	case "back", "forward":
		return &client.NavigateRequest{Direction: arg}
	}
	return &client.NavigateRequest{URL: arg}
}

func init() {
	viewSelectCmd.Flags().StringVar(&selectToken, "research", "", "research token already created for the location")
	viewNotifyCmd.Flags().String("severity", string(model.SeverityInfo), "success, error or info")

	viewCmd.AddCommand(viewOpenCmd)
	viewCmd.AddCommand(viewShowCmd)
	viewCmd.AddCommand(viewListCmd)
	viewCmd.AddCommand(viewSelectCmd)
	viewCmd.AddCommand(viewRandomCmd)
	viewCmd.AddCommand(viewAuthCmd)
	viewCmd.AddCommand(viewQuotaCmd)
	viewCmd.AddCommand(viewCloseCmd)
	viewCmd.AddCommand(viewNavigateCmd)
	viewCmd.AddCommand(viewTaskCmd)
	viewCmd.AddCommand(viewNotifyCmd)
	viewCmd.AddCommand(viewDismissCmd)
	viewCmd.AddCommand(viewDropCmd)
}
