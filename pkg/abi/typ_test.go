package abi

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	testCases := []struct {
		name       string
		typ        string
		components []ParamDescriptor
		want       string
		wantErr    bool
	}{
		{name: "uint128", typ: "uint128", want: "uint128"},
		{name: "int8", typ: "int8", want: "int8"},
		{name: "bool", typ: "bool", want: "bool"},
		{name: "cell", typ: "cell", want: "cell"},
		{name: "address", typ: "address", want: "address"},
		{name: "bytes", typ: "bytes", want: "bytes"},
		{name: "fixedbytes16", typ: "fixedbytes16", want: "fixedbytes16"},
		{name: "string", typ: "string", want: "string"},
		{name: "dynamic array", typ: "uint32[]", want: "uint32[]"},
		{name: "fixed array", typ: "uint8[4]", want: "uint8[4]"},
		{name: "nested array", typ: "bool[][]", want: "bool[][]"},
		{name: "map", typ: "map(uint16,bool)", want: "map(uint16,bool)"},
		{name: "address keyed map", typ: "map(address,uint128)", want: "map(address,uint128)"},
		{name: "optional", typ: "optional(string)", want: "optional(string)"},
		{name: "optional of map", typ: "optional(map(uint8,cell))", want: "optional(map(uint8,cell))"},
		{
			name: "tuple",
			typ:  "tuple",
			components: []ParamDescriptor{
				{Name: "a", Type: "uint32"},
				{Name: "b", Type: "bool"},
			},
			want: "(uint32,bool)",
		},
		{name: "uint zero width", typ: "uint0", wantErr: true},
		{name: "uint too wide", typ: "uint257", wantErr: true},
		{name: "int too wide", typ: "int300", wantErr: true},
		{name: "fixedbytes zero", typ: "fixedbytes0", wantErr: true},
		{name: "fixedbytes too long", typ: "fixedbytes33", wantErr: true},
		{name: "tuple without components", typ: "tuple", wantErr: true},
		{name: "map missing value", typ: "map(uint16)", wantErr: true},
		{name: "unknown", typ: "float64", wantErr: true},
		{name: "bad array size", typ: "uint8[x]", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typ, err := ParseType(tc.typ, tc.components)
			if tc.wantErr {
				require.Error(t, err)
				require.ErrorIs(t, err, ErrMalformedABI)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, typ.String())
		})
	}
}

func TestParseTypeArrayOfTuple(t *testing.T) {
	typ, err := ParseType("tuple[]", []ParamDescriptor{
		{Name: "x", Type: "uint64"},
		{Name: "y", Type: "uint64"},
	})
	require.NoError(t, err)
	require.Equal(t, KindArray, typ.Kind)
	require.Equal(t, KindTuple, typ.Elem.Kind)
	require.Len(t, typ.Elem.Components, 2)
}

func TestParseTypeWidths(t *testing.T) {
	typ, err := ParseType("uint1", nil)
	require.NoError(t, err)
	require.Equal(t, uint(1), typ.Bits)

	typ, err = ParseType("int256", nil)
	require.NoError(t, err)
	require.Equal(t, uint(256), typ.Bits)
}
