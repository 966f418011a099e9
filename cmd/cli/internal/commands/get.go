package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/wolfeidau/orgregistry/internal/server"
)

type GetCmd struct {
	ServerFlags `embed:""`

	ID int64 `arg:"" help:"Organization id"`

	out io.Writer
}

func (g *GetCmd) Run(ctx context.Context, globals *Globals) error {
	org, err := g.client(globals).GetOrganization(ctx, g.ID)
	if err != nil {
		if errors.Is(err, server.ErrNotFound) {
			return fmt.Errorf("organization %d not found", g.ID)
		}
		return fmt.Errorf("failed to get organization %d: %w", g.ID, err)
	}

	return printOrganization(writerOrStdout(g.out), g.Output, org)
}
