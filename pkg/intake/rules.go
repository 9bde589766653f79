package intake

import (
	"slices"
	"strings"
)

// requiredFields maps each process type to the fields that must be filled
// before submission. acordao has no entry: only its parent link is mandatory.
// The table is read-only configuration and is never mutated at runtime.
var requiredFields = map[ProcessType][]string{
	TypeRecomendacao: {
		"assunto",
		"situacao",
		"prioridade",
		"unidade_auditada",
		"prazo_inicial",
		"solicitacao_prorrogacao",
	},
	TypeDeterminacao: {
		"assunto",
		"situacao",
		"prioridade",
		"unidade_auditada",
		"prazo_inicial",
		"solicitacao_prorrogacao",
	},
	TypeAcao: {
		"assunto",
		"situacao",
		"prioridade",
		"area_demandada",
		"prazo_inicial",
		"duracao_execucao",
		"forma_execucao",
		"resultado_pretendido",
	},
	TypeProcesso: {
		"assunto",
		"situacao",
		"prioridade",
		"tipo_processo",
		"numero_sei",
		"orgao_demandante",
		"numero_processo_externo",
		"ano_solicitacao",
	},
}

// sections maps a process type to the optional form sections it reveals.
var sections = map[ProcessType][]string{
	TypeAcao: {
		"duracao_execucao",
		"forma_execucao",
		"resultado_pretendido",
	},
	TypeProcesso: {
		"numero_sei",
		"orgao_demandante",
		"ano_solicitacao",
	},
}

// RequiredFields returns the required-field set for t. The returned slice is
// a copy; callers may not mutate the rule table through it.
func RequiredFields(t ProcessType) []string {
	return slices.Clone(requiredFields[t])
}

// IsFieldRequired reports whether field must be filled when t is selected.
// A field matches either exactly or as a dotted prefix: asking about
// "endereco" returns true when the table requires "endereco.rua".
// An unset type makes nothing required.
func IsFieldRequired(t ProcessType, field string) bool {
	if t == "" {
		return false
	}
	for _, f := range requiredFields[t] {
		if f == field || strings.HasPrefix(f, field+".") {
			return true
		}
	}
	return false
}

// Sections returns the optional form sections revealed by t.
func Sections(t ProcessType) []string {
	return slices.Clone(sections[t])
}
