package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Well-known candidate columns.
const (
	ColMagnitude   = "mag"
	ColProbability = "pox"
	ColPriorO      = "po"
	ColPxO         = "pxo"
	ColZPhot       = "z_phot"
	ColZSpec       = "z_spec"
	ColSeparation  = "sep"
)

// standardColumns are always written, as null when absent.
var standardColumns = []string{ColMagnitude, ColProbability, ColPriorO, ColPxO, ColZPhot, ColZSpec}

// Candidate is one association-table row of an event.
// Numeric columns are not fixed: every numeric, non-null value on the wire
// lands in Fields, everything else that is not an identifier lands in Extra.
type Candidate struct {
	EventID     string
	CandidateID string
	Survey      string
	Fields      map[string]float64
	Extra       map[string]json.RawMessage
}

// Field returns a numeric column and whether it is present.
func (c *Candidate) Field(name string) (float64, bool) {
	v, ok := c.Fields[name]
	return v, ok
}

// Magnitude returns the "mag" column.
func (c *Candidate) Magnitude() (float64, bool) { return c.Field(ColMagnitude) }

// Probability returns the "pox" column.
func (c *Candidate) Probability() (float64, bool) { return c.Field(ColProbability) }

// SetField stores a numeric column.
func (c *Candidate) SetField(name string, v float64) {
	if c.Fields == nil {
		c.Fields = make(map[string]float64)
	}
	c.Fields[name] = v
}

// NumericKeys returns the names of the numeric columns present on the row.
func (c *Candidate) NumericKeys() []string {
	keys := make([]string, 0, len(c.Fields))
	for k := range c.Fields {
		keys = append(keys, k)
	}
	return keys
}

// UnmarshalJSON decodes a path_table row.
func (c *Candidate) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Candidate{}

	for key, val := range raw {
		switch key {
		case "frb_id":
			if err := json.Unmarshal(val, &c.EventID); err != nil {
				return fmt.Errorf("frb_id: %w", err)
			}
		case "cand_id":
			id, err := decodeCandidateID(val)
			if err != nil {
				return err
			}
			c.CandidateID = id
		case "survey":
			var s *string
			if err := json.Unmarshal(val, &s); err == nil {
				if s != nil {
					c.Survey = *s
				}
				continue
			}
			c.addExtra(key, val)
		default:
			trimmed := bytes.TrimSpace(val)
			if bytes.Equal(trimmed, []byte("null")) {
				continue
			}
			var f float64
			if err := json.Unmarshal(trimmed, &f); err == nil {
				c.SetField(key, f)
				continue
			}
			c.addExtra(key, val)
		}
	}

	if c.EventID == "" {
		return ErrMissingEventID
	}
	return nil
}

// MarshalJSON encodes a row in the path_table shape. Standard columns are
// always present, as null when missing.
func (c Candidate) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Fields)+len(c.Extra)+len(standardColumns)+3)
	for k, v := range c.Extra {
		out[k] = v
	}
	for _, col := range standardColumns {
		out[col] = nil
	}
	for k, v := range c.Fields {
		out[k] = v
	}
	out["frb_id"] = c.EventID
	if n, err := strconv.ParseInt(c.CandidateID, 10, 64); err == nil {
		out["cand_id"] = n
	} else {
		out["cand_id"] = c.CandidateID
	}
	if c.Survey != "" {
		out["survey"] = c.Survey
	} else {
		out["survey"] = nil
	}
	return json.Marshal(out)
}

func (c *Candidate) addExtra(key string, val json.RawMessage) {
	if c.Extra == nil {
		c.Extra = make(map[string]json.RawMessage)
	}
	c.Extra[key] = val
}

func decodeCandidateID(val json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(val, &s); err == nil {
		return s, nil
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	if err := dec.Decode(&n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: %s", ErrInvalidCandidateID, string(val))
}
