// pkg/registry/environment.go

package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EnvForm tells which of the two compose spellings an Environment uses.
type EnvForm int

const (
	// EnvMapping is `environment: {KEY: value}`
	EnvMapping EnvForm = iota
	// EnvList is `environment: ["KEY=value"]`
	EnvList
)

// ScalarKind is the JSON type of a mapping-form environment value.
type ScalarKind int

const (
	ScalarString ScalarKind = iota
	ScalarNumber
	ScalarBool
	ScalarNull
)

// EnvValue keeps the literal text of a scalar so numbers and booleans render
// exactly as the author wrote them.
type EnvValue struct {
	Kind ScalarKind
	Text string
}

// EnvVar is one mapping-form entry.
type EnvVar struct {
	Key   string
	Value EnvValue
}

// Environment is an infra service's environment in author order.
type Environment struct {
	Form    EnvForm
	Vars    []EnvVar // EnvMapping
	Entries []string // EnvList
}

// EnvFromList builds a list-form environment, e.g. from repeated --env flags.
func EnvFromList(entries ...string) Environment {
	return Environment{Form: EnvList, Entries: append([]string{}, entries...)}
}

// EnvFromPairs builds a mapping-form environment of string values.
func EnvFromPairs(kv ...string) Environment {
	env := Environment{Form: EnvMapping, Vars: []EnvVar{}}
	for i := 0; i+1 < len(kv); i += 2 {
		env.Vars = append(env.Vars, EnvVar{Key: kv[i], Value: EnvValue{Kind: ScalarString, Text: kv[i+1]}})
	}
	return env
}

func (e Environment) Len() int {
	if e.Form == EnvList {
		return len(e.Entries)
	}
	return len(e.Vars)
}

func (e Environment) MarshalJSON() ([]byte, error) {
	if e.Form == EnvList {
		entries := e.Entries
		if entries == nil {
			entries = []string{}
		}
		return json.Marshal(entries)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, v := range e.Vars {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(v.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		switch v.Value.Kind {
		case ScalarString:
			text, err := json.Marshal(v.Value.Text)
			if err != nil {
				return nil, err
			}
			buf.Write(text)
		case ScalarNull:
			buf.WriteString("null")
		default:
			buf.WriteString(v.Value.Text)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts either an object of scalars or an array of strings,
// preserving key order for objects.
func (e *Environment) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("environment: empty value")
	}

	switch trimmed[0] {
	case '[':
		var entries []string
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			return fmt.Errorf("environment: list entries must be strings: %w", err)
		}
		if entries == nil {
			entries = []string{}
		}
		*e = Environment{Form: EnvList, Entries: entries}
		return nil
	case '{':
		vars, err := decodeEnvObject(trimmed)
		if err != nil {
			return err
		}
		*e = Environment{Form: EnvMapping, Vars: vars}
		return nil
	default:
		return fmt.Errorf("environment: expected an object or a list, got %s", abbreviate(string(trimmed)))
	}
}

func decodeEnvObject(data []byte) ([]EnvVar, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if _, err := dec.Token(); err != nil { // opening brace
		return nil, fmt.Errorf("environment: %w", err)
	}

	vars := []EnvVar{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("environment: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("environment: unexpected key %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("environment %q: %w", key, err)
		}

		var val EnvValue
		switch v := valTok.(type) {
		case string:
			val = EnvValue{Kind: ScalarString, Text: v}
		case json.Number:
			val = EnvValue{Kind: ScalarNumber, Text: v.String()}
		case bool:
			val = EnvValue{Kind: ScalarBool, Text: fmt.Sprintf("%t", v)}
		case nil:
			val = EnvValue{Kind: ScalarNull}
		default:
			return nil, fmt.Errorf("environment %q: values must be scalars", key)
		}
		vars = append(vars, EnvVar{Key: key, Value: val})
	}

	if _, err := dec.Token(); err != nil { // closing brace
		return nil, fmt.Errorf("environment: %w", err)
	}
	return vars, nil
}

func abbreviate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 32 {
		return s[:32] + "..."
	}
	return s
}
