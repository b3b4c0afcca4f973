package models

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDefaultParameters(t *testing.T) {
	p := DefaultParameters()

	want := map[string]any{
		"N": 1000.0, "I": 10.0, "m": 10.0, "de": 3.0, "di": 5.0,
		"tpe": 0.01, "tpi": 0.02, "rp": 0.5, "vp": 0.7, "mp": 0.5,
		"ap": 0.3, "ip": 0.4, "max": 100.0, "seed": 42.0, "verbose": false,
	}
	if diff := cmp.Diff(want, p.Config()); diff != "" {
		t.Errorf("Config() mismatch (-want +got):\n%s", diff)
	}
}

func TestFields_Schema(t *testing.T) {
	fs := Fields()
	require.Len(t, fs, 15)

	seen := make(map[string]bool)
	for _, f := range fs {
		require.False(t, seen[f.Key], "duplicate key %q", f.Key)
		seen[f.Key] = true
		require.NotEmpty(t, f.Label, f.Key)
		require.NotEmpty(t, f.Description, f.Key)

		_, ok := DefaultParameters().Get(f.Key)
		require.True(t, ok, "Get(%q) not bound", f.Key)
	}

	f, ok := LookupField("verbose")
	require.True(t, ok)
	require.Equal(t, KindBoolean, f.Kind)

	var total int
	for _, g := range Groups {
		total += len(FieldsInGroup(g))
	}
	require.Equal(t, len(fs), total)
}

func TestApplyEdit_NumericUpdatesOnlyThatField(t *testing.T) {
	for _, f := range Fields() {
		if f.Kind != KindNumeric {
			continue
		}
		t.Run(f.Key, func(t *testing.T) {
			before := DefaultParameters()
			after, err := ApplyEdit(before, f.Key, "7.5")
			require.NoError(t, err)

			got, _ := after.Get(f.Key)
			require.Equal(t, 7.5, got.Number)

			for _, other := range Fields() {
				if other.Key == f.Key {
					continue
				}
				a, _ := after.Get(other.Key)
				b, _ := before.Get(other.Key)
				require.Equal(t, b, a, "field %q changed", other.Key)
			}
		})
	}
}

func TestApplyEdit_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		raw     string
		reason  error
		message string
	}{
		{"negative", "N", "-5", ErrNegative, "N cannot be negative."},
		{"text", "tpe", "abc", ErrInvalidNumber, "tpe must be a valid number."},
		{"empty", "max", "", ErrInvalidNumber, "max must be a valid number."},
		{"infinity", "seed", "Inf", ErrInvalidNumber, "seed must be a valid number."},
		{"nan", "m", "NaN", ErrInvalidNumber, "m must be a valid number."},
		{"unknown", "beta", "1", ErrUnknownField, "beta is not a known parameter."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := DefaultParameters()
			after, err := ApplyEdit(before, tt.key, tt.raw)
			require.Error(t, err)
			require.Equal(t, before, after)

			var rej *RejectedEditError
			require.True(t, errors.As(err, &rej))
			require.ErrorIs(t, err, tt.reason)
			require.Equal(t, tt.message, err.Error())
		})
	}
}

func TestApplyEdit_ZeroIsAllowed(t *testing.T) {
	p, err := ApplyEdit(DefaultParameters(), "I", "0")
	require.NoError(t, err)
	require.Equal(t, 0.0, p.I)
}

func TestApplyEdit_BooleanToggle(t *testing.T) {
	p, err := ApplyEdit(DefaultParameters(), "verbose", "on")
	require.NoError(t, err)
	require.True(t, p.Verbose)

	p, err = ApplyEdit(p, "verbose", "")
	require.NoError(t, err)
	require.False(t, p.Verbose)
}

func TestApplyEdits_BatchIsAllOrNothing(t *testing.T) {
	before := DefaultParameters()

	after, err := ApplyEdits(before, map[string]string{
		"N":   "500",
		"tpi": "-0.1",
	})
	require.Error(t, err)
	require.Equal(t, before, after)
	require.Equal(t, "tpi cannot be negative.", err.Error())

	after, err = ApplyEdits(before, map[string]string{"N": "500", "verbose": "true"})
	require.NoError(t, err)
	require.Equal(t, 500.0, after.N)
	require.True(t, after.Verbose)
	require.Equal(t, before.I, after.I)
}

func TestApplyConfig(t *testing.T) {
	p, err := ApplyConfig(DefaultParameters(), map[string]any{
		"N":       2000.0,
		"max":     50,
		"verbose": true,
		"seed":    "7",
	})
	require.NoError(t, err)
	require.Equal(t, 2000.0, p.N)
	require.Equal(t, 50.0, p.Max)
	require.Equal(t, 7.0, p.Seed)
	require.True(t, p.Verbose)

	_, err = ApplyConfig(DefaultParameters(), map[string]any{"N": true})
	require.ErrorIs(t, err, ErrInvalidNumber)
}

func TestParameters_With(t *testing.T) {
	p := DefaultParameters()

	q := p.With("rp", NumberValue(0.9))
	require.Equal(t, 0.9, q.Rp)
	require.Equal(t, 0.5, p.Rp, "With must not mutate the receiver")

	require.Equal(t, p, p.With("rp", FlagValue(true)), "kind mismatch ignored")
	require.Equal(t, p, p.With("nope", NumberValue(1)), "unknown key ignored")
}

func TestValue_String(t *testing.T) {
	require.Equal(t, "1000", NumberValue(1000).String())
	require.Equal(t, "0.01", NumberValue(0.01).String())
	require.Equal(t, "true", FlagValue(true).String())
}
