package fixedint

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUint256DecimalRoundTrip(t *testing.T) {
	v, err := UintFromDecimalString("123456789012345678901234567890")
	require.NoError(t, err)
	assert.Equal(t, "123456789012345678901234567890", v.Dec())
}

func TestUint256CheckedAdd(t *testing.T) {
	a := UintFromUint64(10)
	b := UintFromUint64(5)
	sum, err := a.CheckedAdd(b)
	require.NoError(t, err)
	assert.Equal(t, "15", sum.Dec())
}

func TestUint256CheckedAddOverflow(t *testing.T) {
	max, err := UintFromDecimalString(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)).String())
	require.NoError(t, err)
	_, err = max.CheckedAdd(UintFromUint64(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint256CheckedSubUnderflow(t *testing.T) {
	a := UintFromUint64(5)
	b := UintFromUint64(10)
	_, err := a.CheckedSub(b)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestUint256CheckedSub(t *testing.T) {
	a := UintFromUint64(10)
	b := UintFromUint64(4)
	diff, err := a.CheckedSub(b)
	require.NoError(t, err)
	assert.Equal(t, "6", diff.Dec())
}

func TestUint256JSONRoundTrip(t *testing.T) {
	v := UintFromUint64(42)
	data, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"42"`, string(data))

	var out Uint256
	require.NoError(t, out.UnmarshalJSON(data))
	assert.True(t, v.Eq(out))
}

func TestInt256FromUint256Positive(t *testing.T) {
	spread, err := Int256FromUint256(UintFromUint64(110), UintFromUint64(100))
	require.NoError(t, err)
	assert.Equal(t, "10", spread.Dec())
	assert.Equal(t, 1, spread.Sign())
}

func TestInt256FromUint256Negative(t *testing.T) {
	spread, err := Int256FromUint256(UintFromUint64(100), UintFromUint64(110))
	require.NoError(t, err)
	assert.Equal(t, "-10", spread.Dec())
	assert.Equal(t, -1, spread.Sign())
}

func TestInt256JSONRoundTrip(t *testing.T) {
	spread, err := Int256FromUint256(UintFromUint64(100), UintFromUint64(110))
	require.NoError(t, err)
	data, err := spread.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"-10"`, string(data))

	var out Int256
	require.NoError(t, out.UnmarshalJSON(data))
	assert.Equal(t, "-10", out.Dec())
}

func TestUint256ZeroAndCompare(t *testing.T) {
	z := Uint256{}
	assert.True(t, z.Zero())
	a := UintFromUint64(1)
	assert.True(t, a.Gt(z))
	assert.True(t, z.Lt(a))
	assert.Equal(t, a, Min(a, UintFromUint64(2)))
}
