package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
)

// envKeys lists the vnmcp.yaml keys whose values may reference ${VAR} or
// ${VAR:-fallback}. Keys are lowercased the way viper stores them.
var envKeys = map[string]valueKind{
	"catalog.path":                kindString,
	"server.name":                 kindString,
	"server.version":              kindString,
	"transport":                   kindString,
	"http.addr":                   kindString,
	"http.path":                   kindString,
	"http.token":                  kindString,
	"http.allowedorigins":         kindString,
	"http.jsonresponse":           kindBool,
	"http.sessiontimeoutseconds":  kindInt,
	"observability.listenaddress": kindString,
	"observability.metrics":       kindBool,
	"observability.healthz":       kindBool,
	"logging.level":               kindString,
}

// unsetEnv is a variable referenced from a config key with no value and no
// fallback.
type unsetEnv struct {
	Key      string
	Variable string
}

func (u unsetEnv) String() string {
	return u.Key + " (" + u.Variable + ")"
}

// expandConfigEnv substitutes environment variables into the known config
// keys and returns the rewritten YAML. Unquoted values of boolean and integer
// keys are retagged so the expanded text decodes as that type.
func expandConfigEnv(raw []byte) (string, []unsetEnv, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", nil, fmt.Errorf("parse config: %w", err)
	}

	expander := envExpander{lookup: os.LookupEnv}
	for _, doc := range root.Content {
		expander.walkMapping(doc, "")
	}

	out, err := yaml.Marshal(&root)
	if err != nil {
		return "", nil, fmt.Errorf("encode config: %w", err)
	}
	return string(out), expander.unset, nil
}

type envExpander struct {
	lookup func(string) (string, bool)
	unset  []unsetEnv
}

func (e *envExpander) walkMapping(node *yaml.Node, prefix string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		value := node.Content[i+1]
		switch value.Kind {
		case yaml.MappingNode:
			e.walkMapping(value, key)
		case yaml.SequenceNode:
			for idx, item := range value.Content {
				e.expandValue(item, key, fmt.Sprintf("%s[%d]", key, idx))
			}
		case yaml.ScalarNode:
			e.expandValue(value, key, key)
		}
	}
}

// expandValue rewrites one scalar. key selects the value kind and path is
// what an unset variable is reported under.
func (e *envExpander) expandValue(node *yaml.Node, key, path string) {
	if node.Kind != yaml.ScalarNode || node.Tag != "!!str" || !strings.Contains(node.Value, "$") {
		return
	}
	kind, ok := envKeys[strings.ToLower(key)]
	if !ok {
		return
	}

	node.Value = os.Expand(node.Value, func(ref string) string {
		name, fallback, hasFallback := strings.Cut(ref, ":-")
		value, found := e.lookup(name)
		switch {
		case found && (value != "" || !hasFallback):
			return value
		case hasFallback:
			return fallback
		}
		e.unset = append(e.unset, unsetEnv{Key: path, Variable: name})
		return ""
	})

	if node.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0 {
		return
	}
	switch kind {
	case kindBool:
		if v, err := strconv.ParseBool(node.Value); err == nil {
			node.Tag, node.Value = "!!bool", strconv.FormatBool(v)
		}
	case kindInt:
		if _, err := strconv.Atoi(node.Value); err == nil {
			node.Tag = "!!int"
		}
	}
}
