package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vippsas/tomlcode"
	"github.com/vippsas/tomlcode/tomlparser"
)

var (
	writeInPlace bool
	fmtIndent    int

	fmtCmd = &cobra.Command{
		Use:   "fmt <file.toml>",
		Short: "Parse and re-emit a TOML document in canonical form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Help()
				return fmt.Errorf("need to specify argument <file.toml>")
			}

			cfg, err := LoadConfig()
			if err != nil {
				return err
			}
			indent := cfg.Indent
			if fmtIndent != 0 {
				indent = fmtIndent
			}

			tree, err := tomlcode.ParseFileWithLogger(args[0], false, log)
			if err != nil {
				return err
			}

			b := tomlcode.NewBuilder(indent)
			if tree != nil {
				dumpTree(b, "", tree)
			}

			if writeInPlace {
				return tomlcode.WriteFile(b, args[0])
			}
			text, err := b.Build()
			if err != nil {
				return err
			}
			fmt.Print(text)
			return nil
		},
	}
)

func init() {
	fmtCmd.Flags().BoolVarP(&writeInPlace, "write", "w", false, "rewrite the file in place instead of printing to stdout")
	fmtCmd.Flags().IntVar(&fmtIndent, "indent", 0, "override the builder indent (0 keeps the config default)")
	rootCmd.AddCommand(fmtCmd)
}

// dumpTree replays t's contents through b: scalar and array-of-scalar
// values first, then nested tables and arrays of tables, each under path
// (the dotted prefix already traversed to reach t).
func dumpTree(b *tomlparser.Builder, path string, t *tomlparser.Table) {
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		if v.Kind == tomlparser.TableValue || isArrayOfTables(v) {
			continue
		}
		b.AddValue(k, v, "")
	}
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}
		switch {
		case v.Kind == tomlparser.TableValue:
			b.AddTable(childPath)
			dumpTree(b, childPath, v.Table)
		case isArrayOfTables(v):
			for _, elem := range v.Array {
				b.AddArrayOfTable(childPath)
				dumpTree(b, childPath, elem.Table)
			}
		}
	}
}

func isArrayOfTables(v tomlparser.Value) bool {
	if v.Kind != tomlparser.ArrayValue || len(v.Array) == 0 {
		return false
	}
	for _, elem := range v.Array {
		if elem.Kind != tomlparser.TableValue {
			return false
		}
	}
	return true
}
