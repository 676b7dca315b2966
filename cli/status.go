package cli

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jrsteele09/go-lawfirm-console/internal/utils"
	"github.com/jrsteele09/go-lawfirm-console/session"
	"github.com/jrsteele09/go-lawfirm-console/tokens"
	"github.com/spf13/cobra"
)

type statusReport struct {
	session.Snapshot
	TokenFile   string     `json:"tokenFile"`
	TokenExpiry *time.Time `json:"tokenExpiry,omitempty"`
	Degraded    bool       `json:"storeDegraded"`
}

func (a *app) newStatusCmd() *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Validate the stored session and show who is signed in",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStack(a.cfg)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.GetStartupCheckTimeout())
			defer cancel()
			snap := st.controller.Start(ctx)

			report := statusReport{Snapshot: snap, TokenFile: a.cfg.GetTokenFile(), Degraded: st.store.Degraded()}
			if exp, ok := tokens.ExpiryOf(st.store.Read().AccessToken); ok {
				report.TokenExpiry = utils.Ptr(exp)
			}

			if jsonOutput {
				enc := json.NewEncoder(a.out.Out())
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			a.printStatus(report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func (a *app) printStatus(r statusReport) {
	rows := [][]string{
		{"Status", a.out.Badge(r.Status.String(), r.Status == session.Authenticated)},
	}
	if r.User != nil {
		rows = append(rows,
			[]string{"User", displayName(r.User)},
			[]string{"Email", r.User.Email},
			[]string{"Role", r.User.Role.String()},
		)
	}
	if r.TokenExpiry != nil {
		rows = append(rows, []string{"Token expires", r.TokenExpiry.Local().Format(time.RFC1123)})
	}
	if r.LastCheckError != "" {
		rows = append(rows, []string{"Last check error", r.LastCheckError})
	}
	rows = append(rows, []string{"Token file", r.TokenFile})
	a.out.Table([]string{"Field", "Value"}, rows)

	if r.Degraded {
		a.out.Warning("Token file is unavailable; using in-memory storage")
	}
}
