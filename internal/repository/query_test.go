package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBind(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		typ     ParamType
		want    any
		wantErr bool
	}{
		{name: "int from form string", value: " 4 ", typ: TypeInt, want: int64(4)},
		{name: "int from int", value: 5, typ: TypeInt, want: int64(5)},
		{name: "int from integral float", value: float64(3), typ: TypeInt, want: int64(3)},
		{name: "int from fractional float", value: 3.5, typ: TypeInt, wantErr: true},
		{name: "int from garbage", value: "four", typ: TypeInt, wantErr: true},
		{name: "float from string", value: "2.5", typ: TypeFloat, want: 2.5},
		{name: "string from bytes", value: []byte("abc"), typ: TypeString, want: "abc"},
		{name: "string from int", value: 12, typ: TypeString, want: "12"},
		{name: "string from json number", value: float64(123), typ: TypeString, want: "123"},
		{name: "string from fractional json number", value: 12.5, typ: TypeString, want: "12.5"},
		{name: "string from bool", value: true, typ: TypeString, want: "true"},
		{name: "string from map", value: map[string]any{"a": 1}, typ: TypeString, wantErr: true},
		{name: "nil stays nil", value: nil, typ: TypeDate, want: nil},
		{name: "nil string pointer", value: (*string)(nil), typ: TypeString, want: nil},
		{name: "date from string", value: "2024-03-01", typ: TypeDate, want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{
			name:  "date truncates time",
			value: time.Date(2024, 3, 1, 22, 15, 0, 0, time.UTC),
			typ:   TypeDate,
			want:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "date from garbage", value: "yesterday", typ: TypeDate, wantErr: true},
		{name: "bool from string", value: "true", typ: TypeBool, want: true},
		{name: "bool from int", value: 0, typ: TypeBool, want: false},
		{name: "bool from 2", value: 2, typ: TypeBool, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := Query{Params: []any{tt.value}, Types: []ParamType{tt.typ}}.bind()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, args, 1)
			assert.Equal(t, tt.want, args[0])
		})
	}
}

func TestQueryBindArityMismatch(t *testing.T) {
	_, err := Query{Params: []any{1, 2}, Types: []ParamType{TypeInt}}.bind()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 parameters but 1 type tags")
}

func TestParseTimeLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-03-01",
		"2024-03-01T10:00:00Z",
		"2024-03-01 10:00:00+00:00",
		"2024-03-01 10:00:00",
	} {
		ts, err := parseTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2024, ts.Year(), s)
	}
}
