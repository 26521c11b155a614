package cmd

import (
	"fmt"

	"github.com/alecthomas/repr"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vippsas/tomlcode"
	"github.com/vippsas/tomlcode/tomlparser"
)

var (
	emitRepr bool
	emitYAML bool

	parseCmd = &cobra.Command{
		Use:   "parse <file.toml>",
		Short: "Parse a TOML document and report success or the first error",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Help()
				return fmt.Errorf("need to specify argument <file.toml>")
			}

			tree, err := tomlcode.ParseFileWithLogger(args[0], false, log)
			if err != nil {
				return err
			}
			if tree == nil {
				fmt.Println("empty document")
				return nil
			}

			switch {
			case emitRepr:
				repr.Println(tree)
			case emitYAML:
				out, err := yaml.Marshal(tableToAny(tree))
				if err != nil {
					return err
				}
				fmt.Print(string(out))
			default:
				fmt.Printf("ok: %d top-level key(s)\n", tree.Len())
			}
			return nil
		},
	}
)

func init() {
	parseCmd.Flags().BoolVar(&emitRepr, "repr", false, "pretty-print the parsed tree with alecthomas/repr")
	parseCmd.Flags().BoolVar(&emitYAML, "emit-yaml", false, "dump the parsed tree as YAML")
	rootCmd.AddCommand(parseCmd)
}

// tableToAny converts a tomlparser.Table into a plain map[string]any tree
// so yaml.Marshal (which cannot see into Table's unexported fields) has
// something to walk.
func tableToAny(t *tomlparser.Table) map[string]any {
	out := make(map[string]any, t.Len())
	for _, k := range t.Keys() {
		v, _ := t.Get(k)
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v tomlparser.Value) any {
	switch v.Kind {
	case tomlparser.StringValue:
		return v.Str
	case tomlparser.IntegerValue:
		return v.Int
	case tomlparser.FloatValue:
		return v.Float
	case tomlparser.BooleanValue:
		return v.Bool
	case tomlparser.DatetimeValue:
		return v.Datetime.Literal
	case tomlparser.ArrayValue:
		out := make([]any, len(v.Array))
		for i, elem := range v.Array {
			out[i] = valueToAny(elem)
		}
		return out
	case tomlparser.TableValue:
		return tableToAny(v.Table)
	default:
		return nil
	}
}
