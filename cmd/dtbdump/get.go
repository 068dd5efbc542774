package main

import (
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newGetCmd())
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <dtb> <path> [prop]",
		Short: "Resolve a /a/b/c or aliased path and print a node or property",
		Long: `get resolves path the way the library's traversal helpers do: a
leading slash walks full node names from the root, a bare path is looked up
in /aliases first.

Example:
  dtbdump get board.dtb /soc/uart@10000000
  dtbdump get board.dtb /soc/uart@10000000 clock-frequency
  dtbdump get board.dtb serial0 compatible`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(args)
		},
	}
}

func runGet(args []string) error {
	d, cleanup, err := openDoc(args[0])
	if err != nil {
		return err
	}
	defer cleanup()

	node, err := d.Resolve(args[1])
	if err != nil {
		return err
	}

	if len(args) == 3 {
		val, err := node.GetProp(args[2])
		if err != nil {
			return err
		}
		if jsonOut {
			return printJSON(map[string]any{"name": args[2], "value": val})
		}
		printInfo("%s\n", formatPropValue(val))
		return nil
	}

	name, err := node.Name()
	if err != nil {
		return err
	}
	return dumpNode(node, name, 0)
}
