package cli

import (
	apperrors "github.com/agbru/hypbound/internal/errors"
	"github.com/agbru/hypbound/internal/ui"
)

var _ apperrors.ColorProvider = CLIColorProvider{}

// CLIColorProvider supplies apperrors.HandleBoundError with the active
// theme's colours.
type CLIColorProvider struct{}

func (CLIColorProvider) Yellow() string { return ui.Warn() }
func (CLIColorProvider) Reset() string  { return ui.Reset() }
