package commands

import (
	"fmt"

	"github.com/asrafilll/monoserve/internal/config"
	derrors "github.com/asrafilll/monoserve/internal/errors"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force bool `help:"Overwrite an existing manifest"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	fmt.Printf("Writing starter manifest to %s\n", root.Config)
	if err := config.Init(root.Config, i.Force); err != nil {
		return derrors.New(derrors.CategoryConfig, derrors.SeverityFatal, err.Error())
	}
	fmt.Println("Manifest written. Adjust workspaces, then run: monoserve build")
	return nil
}
