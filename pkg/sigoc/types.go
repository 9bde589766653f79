// Package sigoc is the typed client for the SIGOC REST API. It layers the
// processos resource collection and its lookups over the session manager's
// authenticated-request operation; every call carries a bearer token and the
// refresh-and-retry behavior of pkg/session.
package sigoc

import "time"

// Processo is a process record as returned by the API.
type Processo struct {
	ID            int64  `json:"id"`
	Identificador string `json:"identificador"`
	Tipo          string `json:"tipo"`
	Assunto       string `json:"assunto"`
	Situacao      int64  `json:"situacao"`
	Prioridade    string `json:"prioridade"`

	// Pai is nil for root processes.
	Pai *int64 `json:"pai"`

	DataCriacao     time.Time `json:"data_criacao"`
	DataAtualizacao time.Time `json:"data_atualizacao"`
}

// Unidade is an auditable unit, the target of the remote-option search.
type Unidade struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// Lookup is a generic reference record (situações, tipos de processo).
type Lookup struct {
	ID   int64  `json:"id"`
	Nome string `json:"nome"`
}

// Page is the API's paged result envelope.
type Page[T any] struct {
	Count   int `json:"count"`
	Results []T `json:"results"`
}
