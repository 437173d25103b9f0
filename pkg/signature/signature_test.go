package signature

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashMessageDeterministic(t *testing.T) {
	a, err := HashMessage(DecimalElement("1"), DecimalElement("2"), DecimalElement("3"))
	require.NoError(t, err)
	b, err := HashMessage(DecimalElement("1"), DecimalElement("2"), DecimalElement("3"))
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestHashMessageOrderSensitive(t *testing.T) {
	forward, err := HashMessage(DecimalElement("1"), DecimalElement("2"))
	require.NoError(t, err)
	backward, err := HashMessage(DecimalElement("2"), DecimalElement("1"))
	require.NoError(t, err)
	require.NotEqual(t, forward, backward)
}

func TestHashMessageMixedElementKinds(t *testing.T) {
	h, err := HashMessage(DecimalElement("42"), HexElement("0x2a"), BytesElement([]byte("payload")))
	require.NoError(t, err)
	require.NotNil(t, h)
	require.True(t, h.Sign() >= 0)
	require.True(t, h.Cmp(fieldPrime) < 0)
}

func TestHashMessageRejectsGarbageDecimal(t *testing.T) {
	_, err := HashMessage(DecimalElement("not-a-number"))
	require.Error(t, err)
}

// sign reproduces the STARK-curve ECDSA-variant signing that Verify
// checks, so the round trip can be exercised without a real wallet.
func sign(t *testing.T, priv, msgHash, k *big.Int) (r, s *big.Int) {
	t.Helper()
	R := scalarMul(k, generator)
	r = mod(R.X)
	kInv := new(big.Int).ModInverse(k, ecOrder)
	require.NotNil(t, kInv)

	s = new(big.Int).Mul(r, priv)
	s.Add(s, msgHash)
	s.Mul(s, kInv)
	s.Mod(s, ecOrder)
	return r, s
}

func TestVerifyRoundTrip(t *testing.T) {
	priv := big.NewInt(12345)
	k := big.NewInt(98765)
	pub := scalarMul(priv, generator)

	msgHash, err := HashMessage(DecimalElement("1"), DecimalElement("2"), DecimalElement("3"))
	require.NoError(t, err)

	r, s := sign(t, priv, msgHash, k)
	require.True(t, Verify(pub.X, msgHash, r, s))
}

func TestVerifyRejectsTamperedHash(t *testing.T) {
	priv := big.NewInt(12345)
	k := big.NewInt(98765)
	pub := scalarMul(priv, generator)

	msgHash, err := HashMessage(DecimalElement("1"), DecimalElement("2"), DecimalElement("3"))
	require.NoError(t, err)
	r, s := sign(t, priv, msgHash, k)

	tampered := new(big.Int).Add(msgHash, big.NewInt(1))
	require.False(t, Verify(pub.X, tampered, r, s))
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	priv := big.NewInt(12345)
	k := big.NewInt(98765)

	msgHash, err := HashMessage(DecimalElement("1"))
	require.NoError(t, err)
	r, s := sign(t, priv, msgHash, k)

	otherPub := scalarMul(big.NewInt(54321), generator)
	require.False(t, Verify(otherPub.X, msgHash, r, s))
}

func TestVerifyRejectsOutOfRangeR(t *testing.T) {
	priv := big.NewInt(12345)
	pub := scalarMul(priv, generator)
	msgHash, err := HashMessage(DecimalElement("1"))
	require.NoError(t, err)

	require.False(t, Verify(pub.X, msgHash, new(big.Int).Neg(big.NewInt(1)), big.NewInt(1)))
	require.False(t, Verify(pub.X, msgHash, twoTo251, big.NewInt(1)))
}
