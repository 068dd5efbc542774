package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dtbkit/dtbkit/pkg/dt"
)

var reencodeBootCpuid uint32

func init() {
	cmd := newReencodeCmd()
	cmd.Flags().Uint32Var(&reencodeBootCpuid, "boot-cpuid", 0, "boot_cpuid_phys to write into the new header")
	rootCmd.AddCommand(cmd)
}

func newReencodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reencode <in> <out>",
		Short: "Decode a DTB generically and re-emit it with the same content",
		Long: `reencode materializes the whole tree through the generic node view
and re-serializes it with no patches, proving the decode and encode engines
agree on every node, property, and sibling group in the file. The output
holds the same nodes and property values but is not byte-for-byte equal to
the input: each node's properties and children are written in sorted name
order, NOPs are dropped, and the string table is rebuilt.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReencode(args[0], args[1])
		},
	}
}

func runReencode(in, out string) error {
	d, cleanup, err := openDoc(in)
	if err != nil {
		return err
	}
	defer cleanup()

	flat, err := dt.Flatten(d.RootNode())
	if err != nil {
		return err
	}

	raw, err := dt.Marshal(flat, nil, dt.EncodeOptions{BootCpuidPhys: reencodeBootCpuid})
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, raw, 0o644); err != nil {
		return err
	}
	printInfo("wrote %s (%d bytes)\n", out, len(raw))
	return nil
}
