// Package intake implements the validation rules for creating a new processo.
// It decides which fields are required for a given process type, which optional
// form sections apply, and which parent type a child process must link to. All
// rules are static configuration; nothing here touches the network.
package intake

import "fmt"

// ProcessType identifies a node in the process hierarchy.
type ProcessType string

// Process types, from root to leaf.
const (
	TypeProcesso     ProcessType = "processo"
	TypeAcordao      ProcessType = "acordao"
	TypeRecomendacao ProcessType = "recomendacao"
	TypeDeterminacao ProcessType = "determinacao"
	TypeAcao         ProcessType = "acao"
)

// AllTypes lists every process type in selector order.
var AllTypes = []ProcessType{
	TypeProcesso,
	TypeAcordao,
	TypeRecomendacao,
	TypeDeterminacao,
	TypeAcao,
}

// parentOf maps a child type to the only type its parent may have.
// processo is the root and has no entry.
var parentOf = map[ProcessType]ProcessType{
	TypeAcordao:      TypeProcesso,
	TypeRecomendacao: TypeAcordao,
	TypeDeterminacao: TypeAcordao,
	TypeAcao:         TypeDeterminacao,
}

// ParseProcessType converts a string to a ProcessType.
func ParseProcessType(s string) (ProcessType, error) {
	t := ProcessType(s)
	switch t {
	case TypeProcesso, TypeAcordao, TypeRecomendacao, TypeDeterminacao, TypeAcao:
		return t, nil
	}
	return "", fmt.Errorf("unknown process type %q", s)
}

// String returns the wire value of the type.
func (t ProcessType) String() string {
	return string(t)
}

// Valid reports whether t is one of the known process types.
func (t ProcessType) Valid() bool {
	_, err := ParseProcessType(string(t))
	return err == nil
}

// RequiresParent reports whether a process of type t must link to a parent.
func (t ProcessType) RequiresParent() bool {
	_, ok := parentOf[t]
	return ok
}

// ParentType returns the only type a parent of t may have. The second return
// is false for the root type, which never has a parent.
func (t ProcessType) ParentType() (ProcessType, bool) {
	p, ok := parentOf[t]
	return p, ok
}

// Ref is a reference to a lookup record (unidade, atribuição, área demandada,
// situação, tipo de processo) as selected in a picker. At the submission
// boundary only the ID survives; Nome exists for display.
type Ref struct {
	ID   int64  `json:"id" yaml:"id"`
	Nome string `json:"nome" yaml:"nome"`
}
