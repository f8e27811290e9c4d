package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show or write the client profile",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective profile",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				shown := *a.profile
				if shown.AccessToken != "" {
					shown.AccessToken = redacted
				}
				data, err := yaml.Marshal(&shown)
				if err != nil {
					return fmt.Errorf("encode profile: %w", err)
				}
				_, err = fmt.Fprintf(a.out, "# %s\n%s", a.profilePath, data)
				return err
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the effective profile, including --api-url, to the profile path",
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				if err := a.profile.Save(a.profilePath); err != nil {
					return err
				}
				a.renderer.Success("Profile written to " + a.profilePath)
				return nil
			},
		},
	)
	return cmd
}
