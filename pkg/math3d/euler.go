package math3d

// Euler is an orientation expressed as rotations in radians about X, Y and Z,
// applied in XYZ order.
type Euler struct {
	X, Y, Z float64
}

// Matrix returns the rotation matrix RotateX(X) * RotateY(Y) * RotateZ(Z).
func (e Euler) Matrix() Mat4 {
	return RotateX(e.X).Mul(RotateY(e.Y)).Mul(RotateZ(e.Z))
}
