package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/gopfolio/internal/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "investment", want: KindInvestment},
		{in: "Assets", want: KindInvestment},
		{in: " goal ", want: KindGoal},
		{in: "GOALS", want: KindGoal},
		{in: "bonds", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrorInvalidKind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestDetail_Progress(t *testing.T) {
	d := Detail{Amount: decimal.RequireFromString("250"), Target: decimal.RequireFromString("1000")}
	p, ok := d.Progress()
	require.True(t, ok)
	assert.True(t, p.Equal(decimal.RequireFromString("25")), p.String())

	d.Target = decimal.RequireFromString("3")
	d.Amount = decimal.RequireFromString("1")
	p, ok = d.Progress()
	require.True(t, ok)
	assert.Equal(t, "33.33", p.StringFixed(2))

	_, ok = Detail{Amount: decimal.NewFromInt(5)}.Progress()
	assert.False(t, ok)
}

func TestAccount_ProfileOmitsSecrets(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	a := &Account{
		ID: "id", Username: "owner", Credential: "secret", FailedAttempts: 2,
		Email: "a@b.c", Mobile: "123", PhotoKey: "k", UpdatedAt: &ts,
	}

	assert.Equal(t, Profile{ID: "id", Username: "owner", Email: "a@b.c", Mobile: "123", UpdatedAt: &ts}, a.Profile())
}

func TestTotals_Of(t *testing.T) {
	tot := Totals{Invested: decimal.NewFromInt(7), Goals: decimal.NewFromInt(9)}
	assert.True(t, tot.Of(KindInvestment).Equal(decimal.NewFromInt(7)))
	assert.True(t, tot.Of(KindGoal).Equal(decimal.NewFromInt(9)))
}
