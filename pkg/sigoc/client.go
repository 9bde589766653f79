package sigoc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/sigoc/sigoc-go/pkg/intake"
	"github.com/sigoc/sigoc-go/pkg/session"
)

// Client issues authenticated calls against the SIGOC API. It is constructed
// once at the composition root with an explicit session manager; it never
// reaches for ambient state.
type Client struct {
	mgr    *session.Manager
	logger *slog.Logger
}

// New creates a client over the given session manager.
func New(mgr *session.Manager, logger *slog.Logger) (*Client, error) {
	if mgr == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{mgr: mgr, logger: logger}, nil
}

// ProcessoFilter narrows a processos listing.
type ProcessoFilter struct {
	// Tipo restricts results to one process type.
	Tipo intake.ProcessType

	// Search is a free-text filter.
	Search string
}

// ListProcessos returns a page of processes matching the filter.
func (c *Client) ListProcessos(ctx context.Context, filter ProcessoFilter) (*Page[Processo], error) {
	query := url.Values{}
	if filter.Tipo != "" {
		query.Set("tipo", filter.Tipo.String())
	}
	if filter.Search != "" {
		query.Set("search", filter.Search)
	}

	var page Page[Processo]
	if err := c.call(ctx, http.MethodGet, "/processos/", query, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProcesso fetches a single process by ID.
func (c *Client) GetProcesso(ctx context.Context, id int64) (*Processo, error) {
	var p Processo
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/processos/%d/", id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProcesso validates the draft, flattens it and posts it. A draft that
// fails validation is rejected synchronously; no request is constructed.
func (c *Client) CreateProcesso(ctx context.Context, draft *intake.Draft) (*Processo, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var p Processo
	if err := c.call(ctx, http.MethodPost, "/processos/", nil, draft.Flatten(), &p); err != nil {
		return nil, err
	}
	c.logger.Info("processo created", "id", p.ID, "tipo", p.Tipo)
	return &p, nil
}

// UpdateProcesso validates the draft, flattens it and PUTs it over an
// existing process.
func (c *Client) UpdateProcesso(ctx context.Context, id int64, draft *intake.Draft) (*Processo, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var p Processo
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/processos/%d/", id), nil, draft.Flatten(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParentOptions lists the processes a draft of type t may link to as its
// parent. The root type has no parent; the result is empty.
func (c *Client) ParentOptions(ctx context.Context, t intake.ProcessType) ([]Processo, error) {
	parent, ok := t.ParentType()
	if !ok {
		return nil, nil
	}

	page, err := c.ListProcessos(ctx, ProcessoFilter{Tipo: parent})
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// Situacoes lists the situação lookup records.
func (c *Client) Situacoes(ctx context.Context) ([]Lookup, error) {
	var page Page[Lookup]
	if err := c.call(ctx, http.MethodGet, "/situacoes/", nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// TiposProcesso lists the tipo-de-processo lookup records.
func (c *Client) TiposProcesso(ctx context.Context) ([]Lookup, error) {
	var page Page[Lookup]
	if err := c.call(ctx, http.MethodGet, "/tipos-processo/", nil, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// SearchUnidades searches auditable units by free text. It is the fetch
// function behind the debounced pickers.
func (c *Client) SearchUnidades(ctx context.Context, query string) ([]Unidade, error) {
	q := url.Values{}
	q.Set("search", query)

	var page Page[Unidade]
	if err := c.call(ctx, http.MethodGet, "/unidades/", q, nil, &page); err != nil {
		return nil, err
	}
	return page.Results, nil
}

// call issues one authenticated request and decodes the response into out.
// Auth failures from the session manager (ErrAuthExpired, ErrNoSession) pass
// through untouched; server rejections become RemoteError.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out any) error {
	resp, err := c.mgr.Do(ctx, session.RequestSpec{
		Method: method,
		Path:   path,
		Query:  query,
		Body:   body,
	})
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		re := decodeRemoteError(resp)
		c.logger.Warn("request rejected", "method", method, "path", path, "status", re.Status)
		return re
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
