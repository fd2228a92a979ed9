package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kolah/oclist/internal/app"
	"github.com/kolah/oclist/internal/model"
	"github.com/kolah/oclist/internal/opindex"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newResourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List the resources of the API grouped by section",
		Args:  cobra.NoArgs,
		RunE:  withApp(runResources),
	}
	cmd.Flags().Bool("lists-only", false, "Only resources with at least one list operation")
	return cmd
}

func runResources(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
	desc, err := a.Description(ctx)
	if err != nil {
		return err
	}
	idx := desc.Index()

	resources := idx.Resources
	if listsOnly, _ := cmd.Flags().GetBool("lists-only"); listsOnly {
		resources = idx.ListResources
	}

	sections := lo.SliceToMap(idx.Sections, func(s opindex.Section) (string, string) {
		return s.ID, s.Name
	})

	t := newTable("Section", "Resource", "Lists", "Mutations")
	for _, r := range resources {
		section := sections[r.SectionID]
		if section == "" {
			section = r.SectionID
		}
		t.Row(section, r.Name,
			strconv.Itoa(len(idx.ListByResource[r.Name])),
			strconv.Itoa(len(idx.MutatingByResource[r.Name])),
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

func newOperationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "operations [resource]",
		Short: "List operations, optionally of one resource",
		RunE:  withApp(runOperations),
	}
}

func runOperations(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	desc, err := a.Description(ctx)
	if err != nil {
		return err
	}
	idx := desc.Index()

	ops := idx.Operations
	if len(args) > 0 {
		resource := strings.Join(args, " ")
		var ok bool
		if ops, ok = idx.ByResource[resource]; !ok {
			return fmt.Errorf("unknown resource %q", resource)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), operationsTable(ops))
	return nil
}

func operationsTable(ops []model.Operation) string {
	t := newTable("Operation", "Method", "Path", "Summary")
	for _, op := range ops {
		summary := op.Summary
		if op.Deprecated {
			summary += " " + muted("(deprecated)")
		}
		t.Row(op.ID, string(op.Method), op.Path, summary)
	}
	return t.Render()
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find operations by summary, path, description or resource",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withApp(runSearch),
	}
}

func runSearch(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	desc, err := a.Description(ctx)
	if err != nil {
		return err
	}
	idx := desc.Index()

	results := idx.Search.Search(strings.Join(args, " "))
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), muted("no matching operations"))
		return nil
	}

	t := newTable("Operation", "Score", "Matched", "Summary")
	for _, r := range results {
		t.Row(r.OperationID,
			strconv.FormatFloat(r.Score, 'f', 3, 64),
			strings.Join(r.Fields, ", "),
			idx.ByID[r.OperationID].Summary,
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}
