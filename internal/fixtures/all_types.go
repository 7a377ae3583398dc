package fixtures

import (
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/formula"
	"github.com/leengari/mini-tables/internal/query/operations"
)

const (
	allTypesSize  = 20
	allTypesScale = 999
)

// Each column is null where i is a multiple of its own modulus, and the
// floating columns carry infinities.
var allTypesFormulas = []string{
	"String = i%11==0 ? null : `a` + (int)(scale*(i%2==0 ? i+1 : 1))",
	"Int = i%12==0 ? null : (int)(scale*(i*2-1))",
	"Long = i%13==0 ? null : (long)(scale*(i*2-1))",
	"Float = (float)(i%14==0 ? null : i%10==0 ? 1.0F/0.0F : i%5==0 ? -1.0F/0.0F : (float) scale*(i*2-1))",
	"Double = (double)(i%16==0 ? null : i%10==0 ? 1.0D/0.0D : i%5==0 ? -1.0D/0.0D : (double) scale*(i*2-1))",
	"Bool = i%17==0 ? null : (int)(i)%2==0",
	"Char = i%18==0 ? null : (char)(((26+i*i)%26)+97)",
	"Short = (short)(i%19==0 ? null : (int)(scale*(i*2-1)))",
	"BigDec = i%21==0 ? null : decimal(scale*(i*2-1))",
	"BigInt = i%22==0 ? null : bigint((int)(scale*(i*2-1)))",
	"Byte = (byte)(i%19==0 ? null : (int)(i))",
}

// AllTypes builds the table with one column of every supported type.
// The tables and types scripts both register it.
func AllTypes() (*table.Table, error) {
	scope := &formula.Scope{
		Vars: map[string]any{"scale": allTypesScale},
	}
	snap, err := operations.Update(operations.EmptyTable(allTypesSize), scope, allTypesFormulas...)
	if err != nil {
		return nil, err
	}
	return table.NewStatic("all_types", snap), nil
}
