package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/wolfeidau/orgregistry/internal/client"
	"github.com/wolfeidau/orgregistry/internal/models"
)

type Globals struct {
	Debug   bool
	Version string
}

// ServerFlags are shared by every command that talks to the API.
type ServerFlags struct {
	Server  string        `help:"Server URL" default:"http://localhost:8080" env:"ORGCTL_SERVER"`
	Timeout time.Duration `help:"Request timeout" default:"30s"`
	Output  string        `help:"Output format (text or json)" default:"text" enum:"text,json" short:"o"`
}

func (s ServerFlags) client(globals *Globals) *client.Client {
	return client.New(client.Config{
		ServerURL: s.Server,
		Timeout:   s.Timeout,
		Debug:     globals.Debug,
	})
}

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

func printOrganization(w io.Writer, format string, org *models.Organization) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(org)
	}

	_, err := fmt.Fprintf(w, "%-24s %d\n%-24s %s\n%-24s %s\n%-24s %s\n",
		"ID:", org.ID,
		"Company registration ID:", org.CompanyRegistrationID,
		"Name:", org.Name,
		"Address:", org.Address,
	)
	return err
}
