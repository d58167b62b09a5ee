// Command x86dump assembles a small fixed instruction sequence and prints
// its encoded bytes; with --verbose it also logs a trace line per
// instruction, exercising the Assembler's WithTrace hook from the command
// line.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	x86asm "github.com/codejit/x86asm"
)

var log = logrus.New()

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var mode32 bool

	cmd := &cobra.Command{
		Use:   "x86dump",
		Short: "Assemble a sample instruction sequence and dump the encoded bytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
			mode := x86asm.Mode64
			if mode32 {
				mode = x86asm.Mode32
			}
			return run(mode)
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log each encoded instruction")
	cmd.Flags().BoolVar(&mode32, "32", false, "target 32-bit mode instead of 64-bit")
	return cmd
}

func run(mode x86asm.Mode) error {
	a := x86asm.NewAssembler(mode, x86asm.WithTrace(func(offset int, text string) {
		log.WithField("offset", offset).Debug(text)
	}))

	loopTop := a.NewLabel()
	if err := a.MOV(x86asm.RegOp(x86asm.RCX), x86asm.ImmOp(x86asm.I32(10))); err != nil {
		return err
	}
	if err := a.Bind(loopTop); err != nil {
		return err
	}
	if err := a.ALU("SUB", x86asm.RegOp(x86asm.RCX), x86asm.ImmOp(x86asm.I32(1))); err != nil {
		return err
	}
	if err := a.JccLabel(x86asm.CondNE, loopTop); err != nil {
		return err
	}
	if err := a.StandAlone("RET"); err != nil {
		return err
	}

	code, labels, err := a.Finalize()
	if err != nil {
		return fmt.Errorf("finalize: %w", err)
	}

	fmt.Printf("%d bytes:\n%s\n", len(code), hex.Dump(code))
	for id, off := range labels {
		fmt.Printf("label %d bound at offset %d\n", id, off)
	}
	return nil
}
