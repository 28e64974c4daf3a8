package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/celerix-dev/celerix-apiforge/pkg/sdk"
)

// PushCmd submits a field tree file to the daemon.
func PushCmd() *cobra.Command {
	var userID, name, apiName string

	cmd := &cobra.Command{
		Use:   "push FILE",
		Short: "Submit a field tree to the daemon",
		Long: `Submits the field tree in FILE as API --api of user --user and prints the
response envelope. The root of the tree must be named after the API.

Example:
  celerix-apiforge push blog.yaml --user u1 --name "My blog" --api blog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readTree(args[0])
			if err != nil {
				return err
			}

			env, err := clientFor(cmd).CreateUserAPI(cmd.Context(), sdk.Submission{
				UserID: userID,
				Name:   name,
				API:    apiName,
				Tree:   root,
			})
			if env.Code != 0 {
				if perr := printJSON(cmd.OutOrStdout(), env); perr != nil {
					return perr
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner of the API")
	cmd.Flags().StringVar(&name, "name", "", "Display name of the API")
	cmd.Flags().StringVar(&apiName, "api", "", "API name; must match the root of the tree")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("api")
	return cmd
}

// GetCmd prints a stored API or one of its resources.
func GetCmd() *cobra.Command {
	var userID, apiName, resource string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print a stored API or one of its resources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFor(cmd)
			if resource != "" {
				rs, err := client.GetResource(cmd.Context(), userID, apiName, resource)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rs)
			}
			rec, err := client.GetUserAPI(cmd.Context(), userID, apiName)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner of the API")
	cmd.Flags().StringVar(&apiName, "api", "", "API name")
	cmd.Flags().StringVar(&resource, "resource", "", "Only print this resource's schema")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("api")
	return cmd
}

// ListCmd prints the API names stored for a user.
func ListCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the APIs of a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := clientFor(cmd).ListUserAPIs(cmd.Context(), userID)
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner of the APIs")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// DeleteCmd removes a stored API.
func DeleteCmd() *cobra.Command {
	var userID, apiName string

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFor(cmd).DeleteUserAPI(cmd.Context(), userID, apiName); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s of %s\n", apiName, userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Owner of the API")
	cmd.Flags().StringVar(&apiName, "api", "", "API name")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("api")
	return cmd
}
