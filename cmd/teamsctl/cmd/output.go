package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/waikato-ufdl/simple-teams/internal/models"
)

type table struct {
	header []string
	rows   [][]string
}

// render writes obj as JSON or, by default, the table as aligned columns.
func render(cmd *cobra.Command, obj interface{}, tbl table) error {
	format, err := rootCmd.PersistentFlags().GetString("output-format")
	if err != nil {
		return err
	}

	switch format {
	case "json":
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(obj)
	case "text", "":
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 8, 8, 2, ' ', 0)
		fmt.Fprintln(w, strings.Join(tbl.header, "\t"))
		for _, row := range tbl.rows {
			fmt.Fprintln(w, strings.Join(row, "\t"))
		}
		return w.Flush()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func teamTable(teams ...models.Team) table {
	tbl := table{header: []string{"ID", "NAME", "CREATED", "STATUS"}}
	for _, t := range teams {
		status := "active"
		if t.IsDeleted() {
			status = "deleted " + t.DeletionTime.Time.Format(time.RFC3339)
		}
		tbl.rows = append(tbl.rows, []string{
			t.ID.String(),
			t.Name,
			t.CreationTime.Format(time.RFC3339),
			status,
		})
	}
	return tbl
}

func userTable(users ...models.User) table {
	tbl := table{header: []string{"ID", "USERNAME", "EMAIL", "ROLE"}}
	for _, u := range users {
		role := "user"
		switch {
		case u.Superuser:
			role = "superuser"
		case u.Staff:
			role = "staff"
		}
		tbl.rows = append(tbl.rows, []string{u.ID.String(), u.Username, u.Email, role})
	}
	return tbl
}

func membershipTable(memberships ...models.Membership) table {
	tbl := table{header: []string{"ID", "MEMBERSHIP", "PERMISSIONS"}}
	for i := range memberships {
		m := &memberships[i]
		tbl.rows = append(tbl.rows, []string{m.ID.String(), m.String(), m.Permissions.String()})
	}
	return tbl
}
