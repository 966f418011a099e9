package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wolfeidau/orgregistry/internal/models"
	"gopkg.in/yaml.v3"
)

// OrganizationFile is the on disk form accepted by --file.
type OrganizationFile struct {
	CompanyRegistrationID string `yaml:"companyRegistrationId" json:"companyRegistrationId"`
	Name                  string `yaml:"name" json:"name"`
	Address               string `yaml:"address" json:"address"`
}

type CreateCmd struct {
	ServerFlags `embed:""`

	CompanyRegistrationID string `help:"Company registration identifier" name:"company-registration-id"`
	Name                  string `help:"Organization name"`
	Address               string `help:"Postal address"`
	File                  string `help:"YAML/JSON file describing the organization" type:"existingfile" short:"f"`

	out io.Writer
}

func (c *CreateCmd) Run(ctx context.Context, globals *Globals) error {
	// Load organization from file if provided
	if c.File != "" {
		if err := c.loadFile(); err != nil {
			return fmt.Errorf("failed to load organization file: %w", err)
		}
	}

	in := models.OrganizationInput{
		CompanyRegistrationID: c.CompanyRegistrationID,
		Name:                  c.Name,
		Address:               c.Address,
	}

	// Fail fast without a round trip
	if err := in.Validate(); err != nil {
		return err
	}

	org, err := c.client(globals).CreateOrganization(ctx, in)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return err
		}
		return fmt.Errorf("failed to create organization: %w", err)
	}

	return printOrganization(writerOrStdout(c.out), c.Output, org)
}

// loadFile reads the organization from c.File. Values in the file take
// precedence over flags.
func (c *CreateCmd) loadFile() error {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var file OrganizationFile

	// Determine file format by extension
	if strings.HasSuffix(strings.ToLower(c.File), ".json") {
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse JSON file: %w", err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse YAML file: %w", err)
		}
	}

	if file.CompanyRegistrationID != "" {
		c.CompanyRegistrationID = file.CompanyRegistrationID
	}
	if file.Name != "" {
		c.Name = file.Name
	}
	if file.Address != "" {
		c.Address = file.Address
	}

	return nil
}
