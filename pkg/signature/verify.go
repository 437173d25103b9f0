package signature

import "math/big"

var twoTo251 = new(big.Int).Lsh(big.NewInt(1), 251)

// Verify implements the STARK-curve ECDSA variant used to authenticate
// a stark_key against a folded message hash (§4.8, §9). starkKey is the
// x-coordinate of the account's public key, matching how stark_key is
// stored throughout the rest of this system (a single field element,
// not a point pair).
func Verify(starkKey, msgHash, r, s *big.Int) bool {
	if s.Sign() <= 0 || s.Cmp(ecOrder) >= 0 {
		return false
	}
	w := new(big.Int).ModInverse(s, ecOrder)
	if w == nil {
		return false
	}

	if r.Sign() <= 0 || r.Cmp(twoTo251) >= 0 {
		return false
	}
	if w.Sign() <= 0 || w.Cmp(twoTo251) >= 0 {
		return false
	}
	if msgHash.Sign() < 0 || msgHash.Cmp(twoTo251) >= 0 {
		return false
	}

	rhs := new(big.Int).Exp(starkKey, big.NewInt(3), fieldPrime)
	rhs.Add(rhs, new(big.Int).Mul(alpha, starkKey))
	rhs.Add(rhs, beta)
	rhs.Mod(rhs, fieldPrime)

	y := new(big.Int).ModSqrt(rhs, fieldPrime)
	if y == nil {
		return false // starkKey is not a valid x-coordinate on the curve
	}
	otherY := mod(new(big.Int).Neg(y))

	zG := scalarMul(msgHash, generator)

	for _, candidateY := range []*big.Int{y, otherY} {
		pub := Point{X: starkKey, Y: candidateY}
		rQ := scalarMul(r, pub)
		sum := addPoints(zG, rQ)
		candidate := scalarMul(w, sum)
		if !candidate.Inf && candidate.X.Cmp(r) == 0 {
			return true
		}
	}
	return false
}
