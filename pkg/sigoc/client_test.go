package sigoc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigoc/sigoc-go/pkg/intake"
	"github.com/sigoc/sigoc-go/pkg/session"
)

func validToken(t *testing.T) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
		"sub": "auditor1",
	})
	signed, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

// newTestClient builds a client over a stub API with a valid persisted session.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := session.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), &session.Record{
		AccessToken:  validToken(t),
		RefreshToken: "refresh-1",
	}))

	mgr, err := session.NewManager(store, session.Config{BaseURL: srv.URL})
	require.NoError(t, err)

	client, err := New(mgr, nil)
	require.NoError(t, err)
	return client
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListProcessos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processos/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "acordao", r.URL.Query().Get("tipo"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, Page[Processo]{
			Count:   1,
			Results: []Processo{{ID: 3, Identificador: "ACD-001", Tipo: "acordao", Assunto: "Acórdão 42"}},
		})
	})

	client := newTestClient(t, mux)
	page, err := client.ListProcessos(context.Background(), ProcessoFilter{Tipo: intake.TypeAcordao})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Count)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "ACD-001", page.Results[0].Identificador)
}

func TestGetProcesso(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processos/7/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Processo{ID: 7, Assunto: "Auditoria"})
	})

	client := newTestClient(t, mux)
	p, err := client.GetProcesso(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
}

func TestCreateProcesso_ValidationBlocksNetwork(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	draft := &intake.Draft{Assunto: "só o assunto"}
	draft.SetType(intake.TypeAcao)
	draft.ParentID = 1

	_, err := client.CreateProcesso(context.Background(), draft)
	var ve *intake.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{
		"area_demandada",
		"duracao_execucao",
		"forma_execucao",
		"prazo_inicial",
		"prioridade",
		"resultado_pretendido",
		"situacao",
	}, ve.Missing)
	assert.Zero(t, calls.Load(), "a draft that fails validation must never reach the network")
}

func TestCreateProcesso_FlattensDraft(t *testing.T) {
	var got map[string]any
	mux := http.NewServeMux()
	mux.HandleFunc("POST /processos/", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusCreated, Processo{ID: 10, Tipo: "recomendacao"})
	})

	client := newTestClient(t, mux)
	prazo := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	prorrogacao := true
	draft := &intake.Draft{
		Assunto:                "Recomendação de controle interno",
		Situacao:               &intake.Ref{ID: 2, Nome: "Em andamento"},
		Prioridade:             intake.PrioridadeAlta,
		UnidadeAuditada:        []intake.Ref{{ID: 5}, {ID: 9}},
		Atribuicao:             &intake.Ref{ID: 4},
		PrazoInicial:           &prazo,
		SolicitacaoProrrogacao: &prorrogacao,
	}
	draft.SetType(intake.TypeRecomendacao)
	draft.ParentID = 11

	p, err := client.CreateProcesso(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.ID)

	assert.Equal(t, "recomendacao", got["tipo"])
	assert.Equal(t, float64(11), got["pai"])
	assert.Equal(t, float64(2), got["situacao"], "single-valued association flattened to a bare ID")
	assert.Equal(t, []any{float64(5), float64(9)}, got["unidade_auditada"], "multi-valued association flattened to an ID array")
	assert.Equal(t, float64(4), got["atribuicao"])
	assert.Equal(t, "2026-05-01", got["prazo_inicial"])
}

func TestCreateProcesso_RemoteRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /processos/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"numero_sei": []string{"já existe um processo com este número"},
			"assunto":    []string{"muito longo", "caracteres inválidos"},
		})
	})

	client := newTestClient(t, mux)
	draft := completeDraft()

	_, err := client.CreateProcesso(context.Background(), draft)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusBadRequest, re.Status)
	assert.Equal(t,
		"Erro de validação: assunto: muito longo, caracteres inválidos; numero_sei: já existe um processo com este número",
		re.Message)
	assert.Len(t, re.FieldErrors, 2)
}

func TestRemoteError_FixedMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusForbidden, msgForbidden},
		{http.StatusNotFound, msgNotFound},
		{http.StatusInternalServerError, msgServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			mux := http.NewServeMux()
			mux.HandleFunc("GET /processos/1/", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			client := newTestClient(t, mux)
			_, err := client.GetProcesso(context.Background(), 1)
			var re *RemoteError
			require.ErrorAs(t, err, &re)
			assert.Equal(t, tt.want, re.Message)
		})
	}
}

func TestRemoteError_DetailFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processos/1/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusConflict, map[string]string{"detail": "processo bloqueado"})
	})

	client := newTestClient(t, mux)
	_, err := client.GetProcesso(context.Background(), 1)
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "processo bloqueado", re.Message)
}

func TestSearchUnidades(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /unidades/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hospital", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, Page[Unidade]{
			Count:   1,
			Results: []Unidade{{ID: 5, Nome: "Hospital Central"}},
		})
	})

	client := newTestClient(t, mux)
	units, err := client.SearchUnidades(context.Background(), "hospital")
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Hospital Central", units[0].Nome)
}

func TestParentOptions(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /processos/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "determinacao", r.URL.Query().Get("tipo"),
			"acao's parents are determinações")
		writeJSON(w, http.StatusOK, Page[Processo]{
			Count:   1,
			Results: []Processo{{ID: 8, Tipo: "determinacao"}},
		})
	})

	client := newTestClient(t, mux)
	parents, err := client.ParentOptions(context.Background(), intake.TypeAcao)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, int64(8), parents[0].ID)
}

func TestParentOptions_RootHasNone(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	})

	client := newTestClient(t, mux)
	parents, err := client.ParentOptions(context.Background(), intake.TypeProcesso)
	require.NoError(t, err)
	assert.Nil(t, parents)
	assert.Zero(t, calls.Load())
}

func completeDraft() *intake.Draft {
	d := &intake.Draft{
		Assunto:               "Processo de auditoria",
		Situacao:              &intake.Ref{ID: 1},
		Prioridade:            intake.PrioridadeNormal,
		TipoProcesso:          &intake.Ref{ID: 3},
		NumeroSEI:             "SEI-0001",
		OrgaoDemandante:       "OUTROS",
		NumeroProcessoExterno: "X-1",
		AnoSolicitacao:        2026,
	}
	d.SetType(intake.TypeProcesso)
	return d
}
