package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vippsas/tomlcode"
	"github.com/vippsas/tomlcode/tomlparser"
)

var (
	buildIndent int

	buildCmd = &cobra.Command{
		Use:   "build <file.yaml>",
		Short: "Build a TOML document from a YAML description",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				_ = cmd.Help()
				return fmt.Errorf("need to specify argument <file.yaml>")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var doc map[string]any
			if err := yaml.Unmarshal(data, &doc); err != nil {
				return err
			}

			b := tomlcode.NewBuilder(buildIndent)
			buildTree(b, "", doc)

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
	buildCmd.Flags().IntVar(&buildIndent, "indent", 4, "builder indent; 0 disables it")
	rootCmd.AddCommand(buildCmd)
}

// buildTree replays a YAML-decoded map through b the same way dumpTree
// replays a parsed Table: scalars and arrays of scalars first, then
// nested maps as tables, with keys visited in sorted order so the output
// is deterministic regardless of map iteration order.
func buildTree(b *tomlparser.Builder, path string, doc map[string]any) {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, isMap := doc[k].(map[string]any); isMap {
			continue
		}
		if v, ok := yamlScalarToValue(doc[k]); ok {
			b.AddValue(k, v, "")
		}
	}
	for _, k := range keys {
		nested, isMap := doc[k].(map[string]any)
		if !isMap {
			continue
		}
		childPath := k
		if path != "" {
			childPath = path + "." + k
		}
		b.AddTable(childPath)
		buildTree(b, childPath, nested)
	}
}

// yamlScalarToValue converts a YAML-decoded leaf (string, int, float, bool,
// or a slice of those) into a tomlparser.Value. Maps are handled by the
// caller as nested tables instead; anything else is skipped.
func yamlScalarToValue(raw any) (tomlparser.Value, bool) {
	switch x := raw.(type) {
	case string:
		return tomlparser.StringVal(x), true
	case int:
		return tomlparser.IntegerVal(int64(x)), true
	case int64:
		return tomlparser.IntegerVal(x), true
	case float64:
		return tomlparser.FloatVal(x), true
	case bool:
		return tomlparser.BooleanVal(x), true
	case []any:
		elems := make([]tomlparser.Value, 0, len(x))
		for _, item := range x {
			v, ok := yamlScalarToValue(item)
			if !ok {
				return tomlparser.Value{}, false
			}
			elems = append(elems, v)
		}
		return tomlparser.ArrayVal(elems), true
	default:
		return tomlparser.Value{}, false
	}
}
