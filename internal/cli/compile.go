package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/celerix-dev/celerix-apiforge/internal/compiler"
	"github.com/celerix-dev/celerix-apiforge/pkg/schema"
)

// CompileCmd compiles a field tree file without contacting the daemon.
func CompileCmd() *cobra.Command {
	var apiName string

	cmd := &cobra.Command{
		Use:   "compile FILE",
		Short: "Compile a field tree file and print the schema",
		Long: `Reads a field tree from a YAML or JSON file and prints the compiled descriptor.

With --api the root is treated as an API definition and one schema per
top-level resource is printed instead.

Examples:
  celerix-apiforge compile blog.yaml
  celerix-apiforge compile blog.yaml --api blog`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := readTree(args[0])
			if err != nil {
				return err
			}

			if apiName == "" {
				field, err := compiler.Compile(root)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), field)
			}

			resources, err := compiler.CompileResourceSet(apiName, root, time.Now().UTC())
			if err != nil {
				return err
			}
			out := make(map[string]schema.Descriptor, len(resources))
			for name, rs := range resources {
				out[name] = rs.Schema
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&apiName, "api", "", "Compile the root as the named API and print its resources")
	return cmd
}

// readTree loads a FieldNode from YAML; JSON files parse as YAML too.
func readTree(path string) (schema.FieldNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.FieldNode{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var root schema.FieldNode
	if err := yaml.Unmarshal(data, &root); err != nil {
		return schema.FieldNode{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return root, nil
}
