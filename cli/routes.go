package cli

import (
	"strings"

	"github.com/jrsteele09/go-lawfirm-console/guard"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/users"
	"github.com/spf13/cobra"
)

func (a *app) newRoutesCmd() *cobra.Command {
	var role string
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List dashboard views and the roles allowed to open them",
		RunE: func(cmd *cobra.Command, args []string) error {
			var who *users.Identity
			if role != "" {
				r, err := users.ParseRole(role)
				if err != nil {
					return err
				}
				who = &users.Identity{ID: "preview", Role: r}
			}
			a.printRoutes(guard.DefaultRequirements(), who)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "", "show whether this role may open each view")
	return cmd
}

func (a *app) printRoutes(reqs guard.Requirements, who *users.Identity) {
	headers := []string{"View", "Path", "Roles"}
	if who != nil {
		headers = append(headers, who.Role.String())
	}

	rows := make([][]string, 0, len(reqs))
	for _, view := range reqs.Views() {
		roles, _ := reqs.Roles(view)
		allowed := "any"
		if len(roles) > 0 {
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = r.String()
			}
			allowed = strings.Join(names, ", ")
		}
		row := []string{view.String(), "/app/" + view.String(), allowed}
		if who != nil {
			d := guard.Evaluate(session.Authenticated, who, roles)
			row = append(row, a.out.Badge(d.String(), d == guard.Render))
		}
		rows = append(rows, row)
	}
	a.out.Table(headers, rows)
}
