package signature

import "math/big"

// STARK-curve parameters (short Weierstrass y^2 = x^3 + alpha*x + beta
// over GF(fieldPrime)), as defined by the StarkNet/cairo-lang crypto
// stack. These are public domain parameters, not secrets.
var (
	fieldPrime, _ = new(big.Int).SetString("3618502788666131213697322783095070105623107215331596699973092056135872020481", 10)
	alpha         = big.NewInt(1)
	beta, _       = new(big.Int).SetString("3141592653589793238462643383279502884197169399375105820974944592307816406665", 10)
	ecOrder, _    = new(big.Int).SetString("3618502788666131213697322783095070105526743751716087489154079457884512865583", 10)

	generator = Point{
		X: mustBigInt("874739451078007766457464989774322083649278607533249481151382481072868806602"),
		Y: mustBigInt("152666792071518830868575557812948353041420400780739481342941381225525861407"),
	}
)

func mustBigInt(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("signature: invalid curve constant " + s)
	}
	return n
}

// Point is an affine point on the STARK curve. Inf marks the point at
// infinity (the group identity); X and Y are meaningless when Inf is
// set.
type Point struct {
	X, Y *big.Int
	Inf  bool
}

func mod(x *big.Int) *big.Int {
	m := new(big.Int).Mod(x, fieldPrime)
	if m.Sign() < 0 {
		m.Add(m, fieldPrime)
	}
	return m
}

// onCurve reports whether p satisfies the curve equation. It does not
// consider the point at infinity.
func onCurve(p Point) bool {
	lhs := new(big.Int).Exp(p.Y, big.NewInt(2), fieldPrime)
	rhs := new(big.Int).Exp(p.X, big.NewInt(3), fieldPrime)
	rhs.Add(rhs, new(big.Int).Mul(alpha, p.X))
	rhs.Add(rhs, beta)
	rhs.Mod(rhs, fieldPrime)
	return lhs.Cmp(rhs) == 0
}

// addPoints implements the standard affine short-Weierstrass group law.
func addPoints(p1, p2 Point) Point {
	if p1.Inf {
		return p2
	}
	if p2.Inf {
		return p1
	}

	var slope *big.Int
	if p1.X.Cmp(p2.X) == 0 {
		if mod(new(big.Int).Add(p1.Y, p2.Y)).Sign() == 0 {
			return Point{Inf: true}
		}
		// doubling: slope = (3x^2 + alpha) / (2y)
		num := new(big.Int).Mul(p1.X, p1.X)
		num.Mul(num, big.NewInt(3))
		num.Add(num, alpha)
		den := new(big.Int).Mul(big.NewInt(2), p1.Y)
		slope = mulModInverse(num, den)
	} else {
		num := new(big.Int).Sub(p2.Y, p1.Y)
		den := new(big.Int).Sub(p2.X, p1.X)
		slope = mulModInverse(num, den)
	}

	x3 := new(big.Int).Exp(slope, big.NewInt(2), nil)
	x3.Sub(x3, p1.X)
	x3.Sub(x3, p2.X)
	x3 = mod(x3)

	y3 := new(big.Int).Sub(p1.X, x3)
	y3.Mul(y3, slope)
	y3.Sub(y3, p1.Y)
	y3 = mod(y3)

	return Point{X: x3, Y: y3}
}

func mulModInverse(num, den *big.Int) *big.Int {
	inv := new(big.Int).ModInverse(mod(den), fieldPrime)
	out := new(big.Int).Mul(mod(num), inv)
	return mod(out)
}

// scalarMul computes k*p by double-and-add. k is reduced mod nothing —
// callers are expected to pass a non-negative scalar.
func scalarMul(k *big.Int, p Point) Point {
	result := Point{Inf: true}
	if k.Sign() == 0 {
		return result
	}
	addend := p
	n := new(big.Int).Abs(k)
	for i := 0; i < n.BitLen(); i++ {
		if n.Bit(i) == 1 {
			result = addPoints(result, addend)
		}
		addend = addPoints(addend, addend)
	}
	if k.Sign() < 0 {
		result.Y = mod(new(big.Int).Neg(result.Y))
	}
	return result
}
