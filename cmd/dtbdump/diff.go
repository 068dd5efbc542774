package main

import (
	"bytes"

	"github.com/spf13/cobra"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

func init() {
	rootCmd.AddCommand(newDiffCmd())
}

func newDiffCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "diff <dtb1> <dtb2>",
		Short: "Compare two DTBs and show node and property differences",
		Long: `diff walks both trees by full node name (the same matching the
library's traversal helpers use) and reports nodes present on only one side
and properties whose bytes differ on nodes present on both.

Example:
  dtbdump diff before.dtb after.dtb`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(args)
		},
	}
}

// DiffResult mirrors a node tree comparison: paths present only on one
// side, plus property-level differences on paths present on both.
type DiffResult struct {
	AddedNodes    []string
	RemovedNodes  []string
	ModifiedProps []PropDiff
}

type PropDiff struct {
	Path   string
	Prop   string
	Action string
	Old    string
	New    string
}

func runDiff(args []string) error {
	d1, cleanup1, err := openDoc(args[0])
	if err != nil {
		return err
	}
	defer cleanup1()
	d2, cleanup2, err := openDoc(args[1])
	if err != nil {
		return err
	}
	defer cleanup2()

	result := &DiffResult{}
	if err := diffNodes(result, "/", d1.RootNode(), d2.RootNode()); err != nil {
		return err
	}

	if jsonOut {
		return printJSON(result)
	}

	for _, p := range result.AddedNodes {
		printInfo("+ node %s\n", p)
	}
	for _, p := range result.RemovedNodes {
		printInfo("- node %s\n", p)
	}
	for _, pd := range result.ModifiedProps {
		switch pd.Action {
		case "added":
			printInfo("+ %s:%s = %s\n", pd.Path, pd.Prop, pd.New)
		case "removed":
			printInfo("- %s:%s = %s\n", pd.Path, pd.Prop, pd.Old)
		default:
			printInfo("~ %s:%s = %s -> %s\n", pd.Path, pd.Prop, pd.Old, pd.New)
		}
	}
	return nil
}

func diffNodes(result *DiffResult, path string, a, b dt.Node) error {
	propsA, err := collectProps(a)
	if err != nil {
		return err
	}
	propsB, err := collectProps(b)
	if err != nil {
		return err
	}
	for name, val := range propsB {
		if _, ok := propsA[name]; !ok {
			result.ModifiedProps = append(result.ModifiedProps, PropDiff{Path: path, Prop: name, Action: "added", New: formatPropValue(val)})
		}
	}
	for name, val := range propsA {
		other, ok := propsB[name]
		if !ok {
			result.ModifiedProps = append(result.ModifiedProps, PropDiff{Path: path, Prop: name, Action: "removed", Old: formatPropValue(val)})
			continue
		}
		if !bytes.Equal(val, other) {
			result.ModifiedProps = append(result.ModifiedProps, PropDiff{Path: path, Prop: name, Action: "modified", Old: formatPropValue(val), New: formatPropValue(other)})
		}
	}

	childrenA, err := collectChildren(a)
	if err != nil {
		return err
	}
	childrenB, err := collectChildren(b)
	if err != nil {
		return err
	}

	for name, childB := range childrenB {
		childA, ok := childrenA[name]
		childPath := joinPath(path, name)
		if !ok {
			result.AddedNodes = append(result.AddedNodes, childPath)
			continue
		}
		if err := diffNodes(result, childPath, childA, childB); err != nil {
			return err
		}
	}
	for name := range childrenA {
		if _, ok := childrenB[name]; !ok {
			result.RemovedNodes = append(result.RemovedNodes, joinPath(path, name))
		}
	}
	return nil
}

func collectProps(n dt.Node) (map[string][]byte, error) {
	out := map[string][]byte{}
	it := n.Props()
	for {
		name, val, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out[name] = val
	}
}

func collectChildren(n dt.Node) (map[string]dt.Node, error) {
	out := map[string]dt.Node{}
	it := n.Nodes()
	for {
		child, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		name, err := child.Name()
		if err != nil {
			return nil, err
		}
		out[name] = child
	}
}

func joinPath(parent, name string) string {
	if parent == "/" {
		return "/" + name
	}
	return parent + "/" + name
}
