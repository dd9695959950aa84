package cmds

import (
	"fmt"

	"github.com/go-go-golems/solomon/pkg/session"
	"github.com/spf13/cobra"
)

func NewModelCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "List or select the model",
	}
	cmd.AddCommand(buildGlazeCommand(NewModelListCommand()))
	cmd.AddCommand(&cobra.Command{
		Use:   "set ID",
		Short: "Select a model by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)
			return e.SetModel(cmd.Context(), args[0])
		},
	})
	return cmd
}

func NewProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or update the user profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := openEngine(cmd.Context())
			if err != nil {
				return err
			}
			defer closeEngine(e)

			u := session.ProfileUpdate{}
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				u.Name = &name
			}
			if cmd.Flags().Changed("avatar") {
				avatar, _ := cmd.Flags().GetString("avatar")
				u.Avatar = &avatar
			}
			if u.Name != nil || u.Avatar != nil {
				e.UpdateProfile(cmd.Context(), u)
			}

			p := e.Snapshot().UserProfile
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "name:   %s\navatar: %s\n", p.Name, p.Avatar)
			return err
		},
	}
	cmd.Flags().String("name", "", "Display name")
	cmd.Flags().String("avatar", "", "Avatar URL")
	return cmd
}
