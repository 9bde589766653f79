package cli

import (
	"bufio"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sigoc/sigoc-go/pkg/search"
	"github.com/sigoc/sigoc-go/pkg/sigoc"
)

func newUnidadesCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "unidades",
		Short: "Consulta unidades auditáveis",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "search [TEXTO]",
		Short: "Busca unidades por texto livre; sem argumento, lê a entrada interativamente",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				units, err := a.client.SearchUnidades(cmd.Context(), args[0])
				if err != nil {
					return mapAuthError(err)
				}
				printUnidades(cmd, units)
				return nil
			}
			return a.interactiveUnidades(cmd)
		},
	})

	return cmd
}

// interactiveUnidades reads queries line by line and searches with the same
// debounce the intake form's pickers use: 400ms settle, two-character
// minimum, stale responses discarded.
func (a *app) interactiveUnidades(cmd *cobra.Command) error {
	d := search.NewDebouncer(
		a.client.SearchUnidades,
		func(r search.Result[sigoc.Unidade]) {
			if r.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "busca falhou: %v\n", r.Err)
				return
			}
			printUnidades(cmd, r.Options)
		},
		search.WithLogger[sigoc.Unidade](a.logger),
	)
	defer d.Cancel()

	fmt.Fprintln(cmd.OutOrStdout(), "Digite o nome da unidade (Ctrl+D para sair):")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		d.Input(cmd.Context(), strings.TrimSpace(scanner.Text()))
	}
	return scanner.Err()
}

func printUnidades(cmd *cobra.Command, units []sigoc.Unidade) {
	if len(units) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nenhuma unidade encontrada.")
		return
	}
	for _, u := range units {
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", u.ID, u.Nome)
	}
}

func newSituacoesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "situacoes",
		Short: "Lista as situações de processo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client.Situacoes(cmd.Context())
			if err != nil {
				return mapAuthError(err)
			}
			return printLookups(cmd, items)
		},
	}
}

func newTiposCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tipos",
		Short: "Lista os tipos de processo",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := a.client.TiposProcesso(cmd.Context())
			if err != nil {
				return mapAuthError(err)
			}
			return printLookups(cmd, items)
		},
	}
}

func printLookups(cmd *cobra.Command, items []sigoc.Lookup) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOME")
	for _, item := range items {
		fmt.Fprintf(w, "%d\t%s\n", item.ID, item.Nome)
	}
	return w.Flush()
}
