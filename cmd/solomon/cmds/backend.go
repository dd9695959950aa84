package cmds

import (
	"fmt"

	"github.com/go-go-golems/solomon/pkg/settings"
	"github.com/go-go-golems/solomon/pkg/transport/httpbackend"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func backendClient() (*httpbackend.Client, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	if s.Backend.Kind != settings.BackendHTTP {
		return nil, errors.Errorf("backend commands need the http backend, not %q", s.Backend.Kind)
	}
	return httpbackend.NewClient(s.Backend.URL,
		httpbackend.WithTimeout(s.Backend.Timeout),
		httpbackend.WithURLOptions(s.URLOptions()))
}

func NewBackendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backend",
		Short: "Talk to the generation backend directly",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate-token",
		Short: "Check the backend's API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := backendClient()
			if err != nil {
				return err
			}
			st := c.ValidateToken(cmd.Context())
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "valid: %v\n%s\n", st.Valid, st.Message)
			return err
		},
	})

	agents := &cobra.Command{
		Use:   "agents",
		Short: "Manage agents created on the backend",
	}
	agents.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := backendClient()
			if err != nil {
				return err
			}
			list, err := c.ListAgents(cmd.Context())
			if err != nil {
				return err
			}
			for _, a := range list {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", a.AgentID, a.Name, a.Description); err != nil {
					return err
				}
			}
			return nil
		},
	})
	agents.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Delete an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := backendClient()
			if err != nil {
				return err
			}
			return c.DeleteAgent(cmd.Context(), args[0])
		},
	})
	cmd.AddCommand(agents)
	return cmd
}
