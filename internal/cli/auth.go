package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sigoc/sigoc-go/pkg/session"
)

func newLoginCommand(a *app) *cobra.Command {
	var identifier string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Autentica no SIGOC e armazena os tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())

			if identifier == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Usuário: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return fmt.Errorf("reading identifier: %w", err)
				}
				identifier = strings.TrimSpace(line)
			}

			fmt.Fprint(cmd.OutOrStdout(), "Senha: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("reading secret: %w", err)
			}
			secret := strings.TrimRight(line, "\r\n")

			sess, err := a.manager.Login(cmd.Context(), identifier, secret)
			if errors.Is(err, session.ErrInvalidCredentials) {
				return fmt.Errorf("usuário ou senha inválidos")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Autenticado como %s (expira em %s)\n",
				sess.Subject, sess.ExpiresAt.Local().Format("02/01/2006 15:04"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&identifier, "user", "u", "", "identificador do usuário")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Encerra a sessão e remove os tokens armazenados",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada.")
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Mostra a sessão ativa",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.manager.Current(cmd.Context())
			if errors.Is(err, session.ErrNoSession) || errors.Is(err, session.ErrMalformedToken) {
				return fmt.Errorf("nenhuma sessão ativa; execute `sigoc login`")
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Usuário: %s\n", sess.Subject)
			if sess.Email != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Email:   %s\n", sess.Email)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Expira:  %s\n", sess.ExpiresAt.Local().Format("02/01/2006 15:04"))
			return nil
		},
	}
}
