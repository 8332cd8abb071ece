package kbfile

import (
	"fmt"
	"os"

	"github.com/clauseware/hornchain/pkg/logic"
)

// LoadFile parses the kbfile source at path and applies every clause it
// successfully parsed to e, facts before rules, matching source order.
// If parsing produced any errors, LoadFile returns them (aggregated, via
// Parse) without touching e at all — a partially malformed file must
// never partially mutate a running engine.
func LoadFile(e *logic.Engine, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("kbfile: reading %s: %w", path, err)
	}

	parsed, err := Parse(string(data), path)
	if err != nil {
		return err
	}

	for _, c := range parsed.Facts {
		if err := e.AddFact(c.Head.Name, c.Head.Args...); err != nil {
			return fmt.Errorf("kbfile: applying fact %s: %w", c.Head, err)
		}
	}
	for _, c := range parsed.Rules {
		if err := e.AddRule(c.Head, c.Body...); err != nil {
			return fmt.Errorf("kbfile: applying rule %s: %w", c.Head, err)
		}
	}
	return nil
}
