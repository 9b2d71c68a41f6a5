package gdid

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGDID_Compare(t *testing.T) {
	tests := []struct {
		name string
		a, b GDID
		want int
	}{
		{name: "equal", a: GDID{Era: 1, Counter: 5}, b: GDID{Era: 1, Counter: 5}, want: 0},
		{name: "era wins", a: GDID{Era: 2, Counter: 0}, b: GDID{Era: 1, Counter: 100}, want: 1},
		{name: "counter", a: GDID{Era: 1, Counter: 4}, b: GDID{Era: 1, Counter: 5}, want: -1},
		{name: "authority ignored", a: GDID{Era: 1, Authority: 9, Counter: 5}, b: GDID{Era: 1, Authority: 1, Counter: 5}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Compare(tt.b))
		})
	}
}

func TestGDID_ParseString(t *testing.T) {
	g, err := New(7, 3, 123456)
	require.NoError(t, err)
	assert.Equal(t, "7:3:123456", g.String())

	parsed, err := Parse(g.String())
	require.NoError(t, err)
	assert.Equal(t, g, parsed)

	_, err = Parse("1:2")
	assert.Error(t, err)

	_, err = Parse("1:64:0")
	assert.ErrorIs(t, err, ErrInvalidAuthority)
}

func TestGDID_ID(t *testing.T) {
	g := GDID{Era: 1, Authority: 1, Counter: 2}
	assert.Equal(t, uint64(1)<<CounterBits|2, g.ID())
	assert.True(t, Zero.IsZero())
	assert.False(t, g.IsZero())
}

func TestCheckName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "orders", wantErr: false},
		{name: "with separators", input: "bank_01.tx-log", wantErr: false},
		{name: "max length", input: strings.Repeat("a", 80), wantErr: false},
		{name: "empty", input: "", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 81), wantErr: true},
		{name: "space", input: "bad name", wantErr: true},
		{name: "leading dot", input: ".orders", wantErr: true},
		{name: "trailing dash", input: "orders-", wantErr: true},
		{name: "unicode", input: "заказ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckName("scope", tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				assert.True(t, IsValidation(err))
				assert.True(t, IsTerminal(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckAndNormalize(t *testing.T) {
	scope, seq, err := CheckAndNormalize("Bank.Main", "Order_ID")
	require.NoError(t, err)
	assert.Equal(t, "BANK.MAIN", scope)
	assert.Equal(t, "order_id", seq)

	_, _, err = CheckAndNormalize("ok", "bad name")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestBlock_Validate(t *testing.T) {
	ok := &Block{Era: 0, Authority: 1, StartCounterInclusive: 0, BlockSize: 10}
	assert.NoError(t, ok.Validate())
	assert.Equal(t, uint64(10), ok.EndCounterExclusive())
	assert.Equal(t, GDID{Era: 0, Authority: 1, Counter: 3}, ok.At(3))

	zero := &Block{BlockSize: 10}
	assert.ErrorIs(t, zero.Validate(), ErrInvalidBlock)

	empty := &Block{Era: 1, BlockSize: 0}
	assert.ErrorIs(t, empty.Validate(), ErrInvalidBlock)

	var nilBlock *Block
	assert.ErrorIs(t, nilBlock.Validate(), ErrInvalidBlock)
}

func TestErrorClassification(t *testing.T) {
	assert.True(t, IsTerminal(ErrEraExhausted))
	assert.False(t, IsRetryable(ErrEraExhausted))
	assert.True(t, IsRetryable(ErrAuthorityUnavailable))
	assert.True(t, IsRetryable(ErrPersistenceUnavailable))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsTerminal(nil))
}

func TestManualClock(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewManualClock(start)
	c.Advance(time.Second)
	assert.Equal(t, start.Add(time.Second), c.Now())
}
