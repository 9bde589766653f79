package cli

import (
	"errors"
	"fmt"

	"github.com/sigoc/sigoc-go/pkg/session"
)

// mapAuthError translates session-layer failures into the CLI's forced-logout
// message; everything else passes through.
func mapAuthError(err error) error {
	switch {
	case errors.Is(err, session.ErrNoSession):
		return fmt.Errorf("nenhuma sessão ativa; execute `sigoc login`")
	case errors.Is(err, session.ErrAuthExpired):
		return fmt.Errorf("sessão expirada; execute `sigoc login` novamente")
	default:
		return err
	}
}
