package intake

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// Prioridade choices accepted by the API.
const (
	PrioridadeNormal  = "normal"
	PrioridadeAlta    = "alta"
	PrioridadeUrgente = "urgente"
)

// Órgão demandante choices accepted by the API.
var OrgaosDemandantes = []string{"TCU", "CGU", "AUDGER", "MD", "OUTROS"}

// Draft holds the in-progress values of the intake form. It is created empty,
// filled as the user types, validated synchronously on submit and flattened to
// a Submission at the API boundary. A Draft is never persisted locally.
type Draft struct {
	Tipo     ProcessType `yaml:"tipo"`
	ParentID int64       `yaml:"pai"`

	Assunto    string `yaml:"assunto"`
	Situacao   *Ref   `yaml:"situacao"`
	Prioridade string `yaml:"prioridade"`

	UnidadeAuditada        []Ref      `yaml:"unidade_auditada"`
	Atribuicao             *Ref       `yaml:"atribuicao"`
	AreaDemandada          *Ref       `yaml:"area_demandada"`
	PrazoInicial           *time.Time `yaml:"prazo_inicial"`
	SolicitacaoProrrogacao *bool      `yaml:"solicitacao_prorrogacao"`

	// acao section
	DuracaoExecucao     string `yaml:"duracao_execucao"`
	FormaExecucao       string `yaml:"forma_execucao"`
	ResultadoPretendido string `yaml:"resultado_pretendido"`

	// processo section
	TipoProcesso          *Ref   `yaml:"tipo_processo"`
	NumeroSEI             string `yaml:"numero_sei"`
	OrgaoDemandante       string `yaml:"orgao_demandante"`
	NumeroProcessoExterno string `yaml:"numero_processo_externo"`
	AnoSolicitacao        int    `yaml:"ano_solicitacao"`
}

// SetType records a type selection. Changing the type always clears a
// previously chosen parent: the set of valid parents depends on the type, so
// the old choice is almost certainly invalid under the new one.
func (d *Draft) SetType(t ProcessType) {
	if d.Tipo != t {
		d.ParentID = 0
	}
	d.Tipo = t
}

// IsFieldRequired reports whether field is required under the draft's
// currently selected type.
func (d *Draft) IsFieldRequired(field string) bool {
	return IsFieldRequired(d.Tipo, field)
}

// fieldFilled reports whether the named field carries a value.
func (d *Draft) fieldFilled(field string) bool {
	switch field {
	case "assunto":
		return d.Assunto != ""
	case "situacao":
		return d.Situacao != nil
	case "prioridade":
		return d.Prioridade != ""
	case "unidade_auditada":
		return len(d.UnidadeAuditada) > 0
	case "area_demandada":
		return d.AreaDemandada != nil
	case "prazo_inicial":
		return d.PrazoInicial != nil
	case "solicitacao_prorrogacao":
		return d.SolicitacaoProrrogacao != nil
	case "duracao_execucao":
		return d.DuracaoExecucao != ""
	case "forma_execucao":
		return d.FormaExecucao != ""
	case "resultado_pretendido":
		return d.ResultadoPretendido != ""
	case "tipo_processo":
		return d.TipoProcesso != nil
	case "numero_sei":
		return d.NumeroSEI != ""
	case "orgao_demandante":
		return d.OrgaoDemandante != ""
	case "numero_processo_externo":
		return d.NumeroProcessoExterno != ""
	case "ano_solicitacao":
		return d.AnoSolicitacao != 0
	}
	return false
}

// External process number formats by órgão demandante.
var (
	tcuProcessoPattern = regexp.MustCompile(`^\d{3}\.\d{3}/\d{4}-\d$`)
	cguProcessoPattern = regexp.MustCompile(`^\d{8}$`)
	audProcessoPattern = regexp.MustCompile(`^\d{7}$`)
)

// validateNumeroProcessoExterno checks the number against the format the
// selected órgão uses. An empty number is handled by requiredness, not here.
func validateNumeroProcessoExterno(orgao, numero string) error {
	if numero == "" {
		return nil
	}
	switch orgao {
	case "TCU":
		if !tcuProcessoPattern.MatchString(numero) {
			return fmt.Errorf("o formato para TCU deve ser: 044.967/2021-7")
		}
	case "CGU":
		if !cguProcessoPattern.MatchString(numero) {
			return fmt.Errorf("o formato para CGU deve ser: 8 dígitos (ex: 01229074)")
		}
	case "AUDGER":
		if !audProcessoPattern.MatchString(numero) {
			return fmt.Errorf("o formato para AUDGER deve ser: 7 dígitos (ex: 1577597)")
		}
	}
	return nil
}

// ValidationError reports every problem found in a draft at submit time.
// Missing lists unfilled required fields in sorted order; Invalid maps filled
// fields to the reason their value was rejected. A draft with a non-nil
// ValidationError never reaches the network.
type ValidationError struct {
	Missing []string
	Invalid map[string]string
}

// Error formats the failure as a single human-readable message.
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "campos obrigatórios não preenchidos: "+strings.Join(e.Missing, ", "))
	}
	keys := make([]string, 0, len(e.Invalid))
	for k := range e.Invalid {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, k+": "+e.Invalid[k])
	}
	return strings.Join(parts, "; ")
}

// Validate checks the draft against the rules for its selected type. It
// returns a *ValidationError listing every missing required field (and a
// missing parent link) or nil when the draft may be submitted.
func (d *Draft) Validate() error {
	ve := &ValidationError{Invalid: map[string]string{}}

	if d.Tipo == "" {
		ve.Missing = append(ve.Missing, "tipo")
		return ve
	}
	if !d.Tipo.Valid() {
		ve.Invalid["tipo"] = fmt.Sprintf("tipo de processo desconhecido: %q", d.Tipo)
		return ve
	}

	if d.Tipo.RequiresParent() && d.ParentID == 0 {
		ve.Missing = append(ve.Missing, "pai")
	}

	for _, field := range requiredFields[d.Tipo] {
		if !d.fieldFilled(field) {
			ve.Missing = append(ve.Missing, field)
		}
	}
	sort.Strings(ve.Missing)

	if d.Prioridade != "" {
		switch d.Prioridade {
		case PrioridadeNormal, PrioridadeAlta, PrioridadeUrgente:
		default:
			ve.Invalid["prioridade"] = fmt.Sprintf("prioridade inválida: %q", d.Prioridade)
		}
	}
	if err := validateNumeroProcessoExterno(d.OrgaoDemandante, d.NumeroProcessoExterno); err != nil {
		ve.Invalid["numero_processo_externo"] = err.Error()
	}

	if len(ve.Missing) > 0 || len(ve.Invalid) > 0 {
		return ve
	}
	return nil
}

// Submission is the flattened wire form of a draft: every association is
// reduced to its identifier, lists of selected records to lists of IDs.
type Submission struct {
	Tipo                   string  `json:"tipo"`
	Pai                    int64   `json:"pai,omitempty"`
	Assunto                string  `json:"assunto,omitempty"`
	Situacao               int64   `json:"situacao,omitempty"`
	Prioridade             string  `json:"prioridade,omitempty"`
	UnidadeAuditada        []int64 `json:"unidade_auditada,omitempty"`
	Atribuicao             int64   `json:"atribuicao,omitempty"`
	AreaDemandada          int64   `json:"area_demandada,omitempty"`
	PrazoInicial           string  `json:"prazo_inicial,omitempty"`
	SolicitacaoProrrogacao *bool   `json:"solicitacao_prorrogacao,omitempty"`
	DuracaoExecucao        string  `json:"duracao_execucao,omitempty"`
	FormaExecucao          string  `json:"forma_execucao,omitempty"`
	ResultadoPretendido    string  `json:"resultado_pretendido,omitempty"`
	TipoProcesso           int64   `json:"tipo_processo,omitempty"`
	NumeroSEI              string  `json:"numero_sei,omitempty"`
	OrgaoDemandante        string  `json:"orgao_demandante,omitempty"`
	NumeroProcessoExterno  string  `json:"numero_processo_externo,omitempty"`
	AnoSolicitacao         int     `json:"ano_solicitacao,omitempty"`
}

// Flatten reduces the draft's rich selected-object references to foreign-key
// scalars for the API boundary. It does not validate; call Validate first.
func (d *Draft) Flatten() *Submission {
	s := &Submission{
		Tipo:                   d.Tipo.String(),
		Pai:                    d.ParentID,
		Assunto:                d.Assunto,
		Prioridade:             d.Prioridade,
		SolicitacaoProrrogacao: d.SolicitacaoProrrogacao,
		DuracaoExecucao:        d.DuracaoExecucao,
		FormaExecucao:          d.FormaExecucao,
		ResultadoPretendido:    d.ResultadoPretendido,
		NumeroSEI:              d.NumeroSEI,
		OrgaoDemandante:        d.OrgaoDemandante,
		NumeroProcessoExterno:  d.NumeroProcessoExterno,
		AnoSolicitacao:         d.AnoSolicitacao,
	}
	if d.Situacao != nil {
		s.Situacao = d.Situacao.ID
	}
	if d.Atribuicao != nil {
		s.Atribuicao = d.Atribuicao.ID
	}
	if d.AreaDemandada != nil {
		s.AreaDemandada = d.AreaDemandada.ID
	}
	if d.TipoProcesso != nil {
		s.TipoProcesso = d.TipoProcesso.ID
	}
	if d.PrazoInicial != nil {
		s.PrazoInicial = d.PrazoInicial.Format("2006-01-02")
	}
	for _, u := range d.UnidadeAuditada {
		s.UnidadeAuditada = append(s.UnidadeAuditada, u.ID)
	}
	return s
}
