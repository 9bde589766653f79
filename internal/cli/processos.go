package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sigoc/sigoc-go/pkg/intake"
	"github.com/sigoc/sigoc-go/pkg/sigoc"
)

func newProcessosCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "processos",
		Short: "Consulta e registra processos",
	}
	cmd.AddCommand(
		newProcessosListCommand(a),
		newProcessosGetCommand(a),
		newProcessosCreateCommand(a),
	)
	return cmd
}

func newProcessosListCommand(a *app) *cobra.Command {
	var (
		tipo   string
		search string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Lista processos",
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := sigoc.ProcessoFilter{Search: search}
			if tipo != "" {
				t, err := intake.ParseProcessType(tipo)
				if err != nil {
					return fmt.Errorf("tipo inválido: %q", tipo)
				}
				filter.Tipo = t
			}

			page, err := a.client.ListProcessos(cmd.Context(), filter)
			if err != nil {
				return mapAuthError(err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tIDENTIFICADOR\tTIPO\tASSUNTO\tPRIORIDADE")
			for _, p := range page.Results {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Identificador, p.Tipo, p.Assunto, p.Prioridade)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d processo(s)\n", page.Count)
			return nil
		},
	}

	cmd.Flags().StringVar(&tipo, "tipo", "", "filtra por tipo (processo, acordao, recomendacao, determinacao, acao)")
	cmd.Flags().StringVar(&search, "search", "", "filtro de texto livre")
	return cmd
}

func newProcessosGetCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Mostra um processo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("ID inválido: %q", args[0])
			}

			p, err := a.client.GetProcesso(cmd.Context(), id)
			if err != nil {
				return mapAuthError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Identificador: %s\n", p.Identificador)
			fmt.Fprintf(out, "Tipo:          %s\n", p.Tipo)
			fmt.Fprintf(out, "Assunto:       %s\n", p.Assunto)
			fmt.Fprintf(out, "Prioridade:    %s\n", p.Prioridade)
			if p.Pai != nil {
				fmt.Fprintf(out, "Processo pai:  %d\n", *p.Pai)
			}
			fmt.Fprintf(out, "Criado em:     %s\n", p.DataCriacao.Local().Format("02/01/2006 15:04"))
			return nil
		},
	}
}

func newProcessosCreateCommand(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Registra um novo processo a partir de um rascunho YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("lendo rascunho: %w", err)
			}

			var draft intake.Draft
			if err := yaml.Unmarshal(data, &draft); err != nil {
				return fmt.Errorf("interpretando rascunho: %w", err)
			}

			p, err := a.client.CreateProcesso(cmd.Context(), &draft)
			var ve *intake.ValidationError
			if errors.As(err, &ve) {
				return fmt.Errorf("rascunho inválido: %s", ve.Error())
			}
			if err != nil {
				return mapAuthError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Processo %s criado (id %d)\n", p.Identificador, p.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "arquivo YAML com o rascunho do processo")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
