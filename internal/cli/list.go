package cli

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kolah/oclist/internal/app"
	"github.com/kolah/oclist/internal/listview"
	"github.com/kolah/oclist/internal/logger"
	"github.com/kolah/oclist/internal/specstore"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <operation> [key=value...]",
		Short: "Retrieve one page of a list operation",
		Long: `Retrieve one page of a list operation.

Query arguments use the short keys of the list view (s for search, sort for
sortBy, p for page) or a column name to filter on, e.g.

  oclist list Buyers.List s=acme sort=!Name p=2 active=true
  oclist list Users.List --route buyerID=b1`,
		Args: cobra.MinimumNArgs(1),
		RunE: withApp(runList),
	}
	cmd.Flags().StringToString("route", nil, "Path parameter values, e.g. buyerID=b1")
	return cmd
}

func runList(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	route, _ := cmd.Flags().GetStringToString("route")
	q, err := parseQuery(args[1:])
	if err != nil {
		return err
	}

	desc, err := a.Description(ctx)
	if err != nil {
		return err
	}
	c, err := a.Controller(ctx, desc, args[0], route)
	if err != nil {
		return err
	}

	logger.FromContext(ctx).Debug("retrieving page", "operation", args[0], "query", q.Encode())
	page, err := c.Retrieve(ctx, q)
	if err != nil {
		return err
	}
	if c.State() == listview.StateError {
		return fmt.Errorf("listing %s: %w", args[0], c.Err())
	}

	fmt.Fprint(cmd.OutOrStdout(), renderPage(c, page, q))
	return nil
}

// parseQuery turns key=value arguments into query values. Repeated keys keep
// every value.
func parseQuery(args []string) (url.Values, error) {
	q := url.Values{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query argument %q, expected key=value", arg)
		}
		q.Add(key, value)
	}
	return q, nil
}

func renderPage(c *listview.Controller, page *listview.Page, q url.Values) string {
	var b strings.Builder

	op := c.Operation()
	fmt.Fprintf(&b, "%s %s %s\n", op.ID, op.Method, op.Path)

	if chips := c.FilterChips(q); len(chips) > 0 {
		parts := lo.Map(chips, func(chip listview.FilterChip, _ int) string {
			return chip.Column + "=" + chip.Value
		})
		fmt.Fprintf(&b, "filters: %s\n", strings.Join(parts, ", "))
	}

	columns := c.Columns()
	if len(page.Items) == 0 || len(columns) == 0 {
		fmt.Fprintln(&b, muted("no items"))
		return b.String()
	}

	t := newTable(columns...)
	for _, item := range page.Items {
		row := make([]string, len(columns))
		for i, name := range columns {
			row[i] = renderCell(c.Cell(name, item))
		}
		t.Row(row...)
	}
	fmt.Fprintln(&b, t.Render())
	fmt.Fprintf(&b, "%s (page %d of %d)\n", page.Summary(), page.Meta.Page, page.Meta.TotalPages)
	return b.String()
}

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns <operation> [column...]",
		Short: "Show the columns of a list operation, toggling the named ones",
		Args:  cobra.MinimumNArgs(1),
		RunE:  withApp(runColumns),
	}
}

func runColumns(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
	desc, err := a.Description(ctx)
	if err != nil {
		return err
	}
	op := desc.Index().ByID[args[0]]
	c, err := a.Controller(ctx, desc, args[0], placeholderRoute(op.RequiredRouteParams()))
	if err != nil {
		return err
	}

	for _, name := range args[1:] {
		if _, err := c.ToggleColumn(ctx, name); err != nil {
			return err
		}
	}

	t := newTable("Column", "Kind", "Visible", "Sortable")
	visible := c.Columns()
	for _, name := range c.AvailableColumns() {
		t.Row(name,
			c.ColumnKind(name).String(),
			strconv.FormatBool(lo.Contains(visible, name)),
			strconv.FormatBool(c.Sortable(name)),
		)
	}
	fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	return nil
}

// placeholderRoute satisfies required path parameters for commands that never
// send a request.
func placeholderRoute(names []string) map[string]string {
	return lo.SliceToMap(names, func(name string) (string, string) {
		return name, "-"
	})
}

func newRefreshCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Discard the cached API description and fetch it again",
		Long: `Discard the cached API description and fetch it again.

With --file the description is read from a local copy instead, e.g. for a
host whose /v1/openapi/v3 endpoint is unreachable.`,
		Args: cobra.NoArgs,
		RunE: withApp(runRefresh),
	}
	cmd.Flags().String("file", "", "Cache this local copy of the API description instead of fetching it")
	return cmd
}

func runRefresh(ctx context.Context, cmd *cobra.Command, a *app.App, _ []string) error {
	var (
		desc *specstore.Description
		err  error
	)
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		logger.FromContext(ctx).Info("importing api description", "file", path, "base-url", a.Config.BaseURL)
		desc, err = a.Import(ctx, path)
	} else {
		logger.FromContext(ctx).Info("refreshing api description", "base-url", a.Config.BaseURL)
		desc, err = a.Refresh(ctx)
	}
	if err != nil {
		return err
	}

	idx := desc.Index()
	fmt.Fprintf(cmd.OutOrStdout(), "Loaded %s v%s: %d operations, %d resources\n",
		desc.Spec().Info.Title, desc.Version(), len(idx.Operations), len(idx.Resources))
	return nil
}
