package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/text/encoding/charmap"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

var dumpANSI bool

func init() {
	cmd := newDumpCmd()
	cmd.Flags().BoolVar(&dumpANSI, "ansi", false, "transcode non-UTF-8 property values from Windows-1252 instead of printing hex")
	rootCmd.AddCommand(cmd)
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <dtb>",
		Short: "Print the full node tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(args[0])
		},
	}
}

func runDump(path string) error {
	d, cleanup, err := openDoc(path)
	if err != nil {
		return err
	}
	defer cleanup()

	if jsonOut {
		flat, err := dt.Flatten(d.RootNode())
		if err != nil {
			return err
		}
		return printJSON(flat)
	}

	return dumpNode(d.RootNode(), "", 0)
}

func dumpNode(n dt.Node, name string, depth int) error {
	indent := strings.Repeat("  ", depth)
	printInfo("%s%s {\n", indent, name)

	props := n.Props()
	for {
		pname, val, ok, err := props.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		printInfo("%s  %s = %s;\n", indent, pname, formatPropValue(val))
	}

	children := n.Nodes()
	for {
		child, ok, err := children.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		childName, err := child.Name()
		if err != nil {
			return err
		}
		if err := dumpNode(child, childName, depth+1); err != nil {
			return err
		}
	}

	printInfo("%s};\n", indent)
	return nil
}

func formatPropValue(val []byte) string {
	if len(val) == 0 {
		return "(empty)"
	}
	if utf8.Valid(val) && isPrintableCString(val) {
		return fmt.Sprintf("%q", strings.TrimRight(string(val), "\x00"))
	}
	if dumpANSI && !utf8.Valid(val) {
		if s, err := charmap.Windows1252.NewDecoder().String(string(val)); err == nil {
			return fmt.Sprintf("%q (cp1252)", s)
		}
	}
	return "<" + hex.EncodeToString(val) + ">"
}

func isPrintableCString(val []byte) bool {
	for i, b := range val {
		if b == 0 {
			return i == len(val)-1
		}
		if b < 0x20 || b == 0x7f {
			return false
		}
	}
	return false
}
