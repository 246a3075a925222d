package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/fwojciec/pageflow"
)

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	filter := pageflow.ResourceFilter{
		Limit:  c.Limit,
		Offset: c.Offset,
	}
	if c.URL != "" {
		filter.URL = &c.URL
	}

	resources, err := deps.Resources.FindResources(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", pageflow.ErrorMessage(err))
		return err
	}

	if len(resources) == 0 {
		fmt.Fprintln(deps.Stdout, "No resources found. Use 'pageflow run --db' to store some.")
		return nil
	}

	w := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, r := range resources {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.CreatedAt.Format("2006-01-02 15:04:05"), r.Timestamp, r.URL, r.Title)
	}
	return w.Flush()
}
