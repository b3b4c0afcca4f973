// internal/domain/models/parameters.go
package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Parameters is the flat record of simulation inputs sent to the backend.
// The JSON keys are the wire names the simulation service expects.
type Parameters struct {
	N       float64 `bson:"N" json:"N" yaml:"N"`
	I       float64 `bson:"I" json:"I" yaml:"I"`
	M       float64 `bson:"m" json:"m" yaml:"m"`
	De      float64 `bson:"de" json:"de" yaml:"de"`
	Di      float64 `bson:"di" json:"di" yaml:"di"`
	Tpe     float64 `bson:"tpe" json:"tpe" yaml:"tpe"`
	Tpi     float64 `bson:"tpi" json:"tpi" yaml:"tpi"`
	Rp      float64 `bson:"rp" json:"rp" yaml:"rp"`
	Vp      float64 `bson:"vp" json:"vp" yaml:"vp"`
	Mp      float64 `bson:"mp" json:"mp" yaml:"mp"`
	Ap      float64 `bson:"ap" json:"ap" yaml:"ap"`
	Ip      float64 `bson:"ip" json:"ip" yaml:"ip"`
	Max     float64 `bson:"max" json:"max" yaml:"max"`
	Seed    float64 `bson:"seed" json:"seed" yaml:"seed"`
	Verbose bool    `bson:"verbose" json:"verbose" yaml:"verbose"`
}

// DefaultParameters returns the record a new workbench starts with.
func DefaultParameters() Parameters {
	return Parameters{
		N:       1000,
		I:       10,
		M:       10,
		De:      3,
		Di:      5,
		Tpe:     0.01,
		Tpi:     0.02,
		Rp:      0.5,
		Vp:      0.7,
		Mp:      0.5,
		Ap:      0.3,
		Ip:      0.4,
		Max:     100,
		Seed:    42,
		Verbose: false,
	}
}

// FieldKind distinguishes how a field's raw input is parsed.
type FieldKind int

const (
	KindNumeric FieldKind = iota
	KindBoolean
)

// String returns the kind name used by the JSON schema endpoint.
func (k FieldKind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// FieldGroup is the form section a field is rendered in.
type FieldGroup string

const (
	GroupBasic    FieldGroup = "basic"
	GroupDisease  FieldGroup = "disease"
	GroupBehavior FieldGroup = "behavior"
	GroupAdvanced FieldGroup = "advanced"
)

// Groups lists the form sections in display order.
var Groups = []FieldGroup{GroupBasic, GroupDisease, GroupBehavior, GroupAdvanced}

// Title returns the section heading for the group.
func (g FieldGroup) Title() string {
	switch g {
	case GroupBasic:
		return "Basic Parameters"
	case GroupDisease:
		return "Disease Parameters"
	case GroupBehavior:
		return "Behavior Parameters"
	case GroupAdvanced:
		return "Advanced Settings"
	default:
		return string(g)
	}
}

// Field describes one parameter. The accessors bind the field to its slot in
// Parameters so that parsing is decided here rather than by the caller.
type Field struct {
	Key         string
	Label       string
	Description string
	Group       FieldGroup
	Kind        FieldKind
	Step        string // HTML input step hint for numeric fields

	number func(*Parameters) *float64
	flag   func(*Parameters) *bool
}

var fields = []Field{
	numeric("N", "Population Size", "Total number of agents in the simulation.", GroupBasic, "1", func(p *Parameters) *float64 { return &p.N }),
	numeric("I", "Initial Infected", "Initial number of infected agents.", GroupBasic, "1", func(p *Parameters) *float64 { return &p.I }),
	numeric("max", "Maximum Simulation Days", "Maximum number of simulation days.", GroupBasic, "1", func(p *Parameters) *float64 { return &p.Max }),
	numeric("seed", "Random Seed", "Random seed for reproducibility.", GroupBasic, "1", func(p *Parameters) *float64 { return &p.Seed }),
	numeric("m", "Average Interactions", "Average number of interactions per agent per day.", GroupDisease, "1", func(p *Parameters) *float64 { return &p.M }),
	numeric("de", "Exposed Duration (days)", "Duration (in days) of the exposed state.", GroupDisease, "1", func(p *Parameters) *float64 { return &p.De }),
	numeric("di", "Infected Duration (days)", "Duration (in days) of the infected state.", GroupDisease, "1", func(p *Parameters) *float64 { return &p.Di }),
	numeric("tpe", "Transmission Probability (Exposed)", "Transmission probability during the exposed state.", GroupDisease, "0.01", func(p *Parameters) *float64 { return &p.Tpe }),
	numeric("tpi", "Transmission Probability (Infected)", "Transmission probability during the infected state.", GroupDisease, "0.01", func(p *Parameters) *float64 { return &p.Tpi }),
	numeric("rp", "Recovery Probability", "Recovery probability after the infectious period.", GroupDisease, "0.01", func(p *Parameters) *float64 { return &p.Rp }),
	numeric("vp", "Vaccination Probability", "Vaccination probability for agents.", GroupBehavior, "0.01", func(p *Parameters) *float64 { return &p.Vp }),
	numeric("mp", "Mask-Wearing Probability", "Mask-wearing probability for agents.", GroupBehavior, "0.01", func(p *Parameters) *float64 { return &p.Mp }),
	numeric("ap", "Asymptomatic Probability", "Asymptomatic probability for infected agents.", GroupBehavior, "0.01", func(p *Parameters) *float64 { return &p.Ap }),
	numeric("ip", "Isolation Probability", "Isolation probability for symptomatic agents.", GroupBehavior, "0.01", func(p *Parameters) *float64 { return &p.Ip }),
	{
		Key:         "verbose",
		Label:       "Verbose Logging",
		Description: "Enable detailed logging of the simulation.",
		Group:       GroupAdvanced,
		Kind:        KindBoolean,
		flag:        func(p *Parameters) *bool { return &p.Verbose },
	},
}

func numeric(key, label, desc string, group FieldGroup, step string, slot func(*Parameters) *float64) Field {
	return Field{
		Key:         key,
		Label:       label,
		Description: desc,
		Group:       group,
		Kind:        KindNumeric,
		Step:        step,
		number:      slot,
	}
}

// Fields returns the parameter schema in form order.
func Fields() []Field {
	out := make([]Field, len(fields))
	copy(out, fields)
	return out
}

// FieldsInGroup returns the fields rendered in the given section.
func FieldsInGroup(g FieldGroup) []Field {
	var out []Field
	for _, f := range fields {
		if f.Group == g {
			out = append(out, f)
		}
	}
	return out
}

// LookupField finds a field by its wire key.
func LookupField(key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Value is a single field value; exactly one of Number or Flag is meaningful,
// according to Kind.
type Value struct {
	Kind   FieldKind
	Number float64
	Flag   bool
}

// NumberValue wraps a numeric value.
func NumberValue(v float64) Value { return Value{Kind: KindNumeric, Number: v} }

// FlagValue wraps a boolean value.
func FlagValue(v bool) Value { return Value{Kind: KindBoolean, Flag: v} }

// String formats the value the way form inputs display it.
func (v Value) String() string {
	if v.Kind == KindBoolean {
		return strconv.FormatBool(v.Flag)
	}
	return FormatNumber(v.Number)
}

// Get returns the value stored under key.
func (p Parameters) Get(key string) (Value, bool) {
	f, ok := LookupField(key)
	if !ok {
		return Value{}, false
	}
	if f.Kind == KindBoolean {
		return FlagValue(*f.flag(&p)), true
	}
	return NumberValue(*f.number(&p)), true
}

// With returns a copy of p with one field replaced. A value whose kind does
// not match the field, or an unknown key, leaves the copy unchanged.
func (p Parameters) With(key string, v Value) Parameters {
	f, ok := LookupField(key)
	if !ok || f.Kind != v.Kind {
		return p
	}
	next := p
	if f.Kind == KindBoolean {
		*f.flag(&next) = v.Flag
	} else {
		*f.number(&next) = v.Number
	}
	return next
}

// Config returns the wire snapshot of the record. Field order follows the schema.
func (p Parameters) Config() map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, _ := p.Get(f.Key)
		if f.Kind == KindBoolean {
			out[f.Key] = v.Flag
		} else {
			out[f.Key] = v.Number
		}
	}
	return out
}

// Rejection reasons. RejectedEditError unwraps to one of these.
var (
	ErrUnknownField  = errors.New("unknown parameter")
	ErrInvalidNumber = errors.New("invalid number")
	ErrNegative      = errors.New("negative value")
)

// RejectedEditError reports an edit that was discarded. Error returns the
// message shown to the user.
type RejectedEditError struct {
	Field  string
	Reason error
}

func (e *RejectedEditError) Error() string {
	switch {
	case errors.Is(e.Reason, ErrNegative):
		return fmt.Sprintf("%s cannot be negative.", e.Field)
	case errors.Is(e.Reason, ErrUnknownField):
		return fmt.Sprintf("%s is not a known parameter.", e.Field)
	default:
		return fmt.Sprintf("%s must be a valid number.", e.Field)
	}
}

func (e *RejectedEditError) Unwrap() error {
	return e.Reason
}

// ParseValue parses raw form input for the field.
func (f Field) ParseValue(raw string) (Value, error) {
	if f.Kind == KindBoolean {
		return FlagValue(parseToggle(raw)), nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}, &RejectedEditError{Field: f.Key, Reason: ErrInvalidNumber}
	}
	if v < 0 {
		return Value{}, &RejectedEditError{Field: f.Key, Reason: ErrNegative}
	}
	return NumberValue(v), nil
}

func parseToggle(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "on", "1", "yes":
		return true
	default:
		return false
	}
}

// ApplyEdit applies one field edit. On rejection the returned record is p
// itself and the error is a *RejectedEditError.
func ApplyEdit(p Parameters, key, raw string) (Parameters, error) {
	f, ok := LookupField(key)
	if !ok {
		return p, &RejectedEditError{Field: key, Reason: ErrUnknownField}
	}
	v, err := f.ParseValue(raw)
	if err != nil {
		return p, err
	}
	return p.With(key, v), nil
}

// ApplyEdits applies a batch of raw edits in schema order. Keys absent from
// edits are left alone. The first rejection discards the whole batch.
func ApplyEdits(p Parameters, edits map[string]string) (Parameters, error) {
	if err := checkKeys(edits); err != nil {
		return p, err
	}
	next := p
	for _, f := range fields {
		raw, ok := edits[f.Key]
		if !ok {
			continue
		}
		var err error
		if next, err = ApplyEdit(next, f.Key, raw); err != nil {
			return p, err
		}
	}
	return next, nil
}

// ApplyConfig merges a decoded JSON or YAML config onto p, with the same
// rules as ApplyEdits. Numbers, booleans and strings are accepted.
func ApplyConfig(p Parameters, cfg map[string]any) (Parameters, error) {
	edits := make(map[string]string, len(cfg))
	for k, v := range cfg {
		switch t := v.(type) {
		case string:
			edits[k] = t
		case bool:
			if f, ok := LookupField(k); ok && f.Kind == KindNumeric {
				return p, &RejectedEditError{Field: k, Reason: ErrInvalidNumber}
			}
			edits[k] = strconv.FormatBool(t)
		case float64:
			edits[k] = strconv.FormatFloat(t, 'g', -1, 64)
		case int:
			edits[k] = strconv.Itoa(t)
		case int64:
			edits[k] = strconv.FormatInt(t, 10)
		case fmt.Stringer:
			edits[k] = t.String()
		case nil:
			edits[k] = ""
		default:
			edits[k] = fmt.Sprint(t)
		}
	}
	return ApplyEdits(p, edits)
}

func checkKeys(edits map[string]string) error {
	var unknown []string
	for k := range edits {
		if _, ok := LookupField(k); !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return &RejectedEditError{Field: unknown[0], Reason: ErrUnknownField}
}
