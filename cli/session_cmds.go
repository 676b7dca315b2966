package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jrsteele09/go-lawfirm-console/users"
	"github.com/spf13/cobra"
)

func (a *app) newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session tokens",
		Long: `Sign in with email and password. The password is read from standard input
when --password is not given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
			}
			return a.login(cmd.Context(), email, password)
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (read from stdin when omitted)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) login(ctx context.Context, email, password string) error {
	st, err := newStack(a.cfg)
	if err != nil {
		return err
	}
	result := st.controller.Login(ctx, email, password)
	if !result.Success {
		return fmt.Errorf("login failed: %s", result.Message)
	}
	a.out.Success("Signed in as %s (%s)", displayName(result.User), result.User.Role)
	if st.store.Degraded() {
		a.out.Warning("Token file %s is not writable; the session will not survive this process", a.cfg.GetTokenFile())
	}
	return nil
}

func (a *app) newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := newStack(a.cfg)
			if err != nil {
				return err
			}
			st.controller.Logout(cmd.Context())
			a.out.Success("Signed out")
			return nil
		},
	}
}

func (a *app) newRegisterCmd() *cobra.Command {
	var (
		email, password     string
		firstName, lastName string
		phone               string
		fields              map[string]string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Example: `  lawfirm-console register --email nia@example.com --first-name Nia --last-name Client \
      --field companyName="Acme Ltd"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = readSecret(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
			}
			reg := users.Registration{}
			for k, v := range fields {
				reg[k] = v
			}
			for k, v := range map[string]string{
				"email":     email,
				"password":  password,
				"firstName": firstName,
				"lastName":  lastName,
				"phone":     phone,
			} {
				if v != "" {
					reg[k] = v
				}
			}
			return a.register(cmd.Context(), reg.Normalized())
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (read from stdin when omitted)")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringToStringVar(&fields, "field", nil, "additional registration field as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func (a *app) register(ctx context.Context, reg users.Registration) error {
	st, err := newStack(a.cfg)
	if err != nil {
		return err
	}
	result := st.controller.Register(ctx, reg)
	if !result.Success {
		return fmt.Errorf("registration failed: %s", result.Message)
	}
	a.out.Success("Registered and signed in as %s (%s)", displayName(result.User), result.User.Role)
	return nil
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func displayName(u *users.Identity) string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Email
}
