package sigoc

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

// Fixed user-facing messages per HTTP status.
const (
	msgUnauthorized = "Não autorizado. Faça login novamente."
	msgForbidden    = "Acesso proibido. Você não tem permissão para realizar esta ação."
	msgNotFound     = "Recurso não encontrado. Verifique os dados enviados."
	msgServerError  = "Erro no servidor. Tente novamente mais tarde."
	msgUnexpected   = "Ocorreu um erro inesperado. Tente novamente mais tarde."
)

// RemoteError is a server-side rejection translated to a user-facing message.
// For HTTP 400 it aggregates each rejected field with its server-provided
// reason; other statuses map to fixed strings.
type RemoteError struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
}

// Error returns the user-facing message.
func (e *RemoteError) Error() string {
	return e.Message
}

// decodeRemoteError translates a non-2xx response into a RemoteError. It
// consumes the response body.
func decodeRemoteError(resp *http.Response) *RemoteError {
	re := &RemoteError{Status: resp.StatusCode}
	body, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		re.FieldErrors = parseFieldErrors(body)
		re.Message = formatFieldErrors(re.FieldErrors)
	case http.StatusUnauthorized:
		re.Message = msgUnauthorized
	case http.StatusForbidden:
		re.Message = msgForbidden
	case http.StatusNotFound:
		re.Message = msgNotFound
	case http.StatusInternalServerError:
		re.Message = msgServerError
	default:
		re.Message = detailOrDefault(body)
	}
	return re
}

// parseFieldErrors reads the API's 400 body, a map of field name to a reason
// or list of reasons.
func parseFieldErrors(body []byte) map[string][]string {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	out := make(map[string][]string, len(raw))
	for field, v := range raw {
		switch val := v.(type) {
		case string:
			out[field] = []string{val}
		case []any:
			for _, item := range val {
				if s, ok := item.(string); ok {
					out[field] = append(out[field], s)
				}
			}
		}
	}
	return out
}

// formatFieldErrors builds the aggregate banner message, one "field: reasons"
// pair per rejected field in stable order.
func formatFieldErrors(fields map[string][]string) string {
	if len(fields) == 0 {
		return msgUnexpected
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(fields[name], ", ")))
	}
	return "Erro de validação: " + strings.Join(parts, "; ")
}

func detailOrDefault(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return msgUnexpected
}
