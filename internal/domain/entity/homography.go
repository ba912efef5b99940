package entity

// Point точка на плоскости изображения
type Point struct {
	X float64
	Y float64
}

// Homography проективное преобразование 3x3 (построчно), эталон -> кадр.
type Homography [9]float64

// IdentityHomography возвращает тождественное преобразование.
func IdentityHomography() Homography {
	return Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}
}

// Apply переводит точку эталона в координаты кадра.
func (h Homography) Apply(p Point) Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	return Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / w,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / w,
	}
}

// At возвращает элемент матрицы.
func (h Homography) At(row, col int) float64 {
	return h[row*3+col]
}

// Normalized масштабирует матрицу так, чтобы h22 = 1.
func (h Homography) Normalized() Homography {
	if h[8] == 0 {
		return h
	}
	s := 1 / h[8]
	for i := range h {
		h[i] *= s
	}
	return h
}

// Quad замкнутый четырёхугольник в порядке: левый верхний, правый верхний,
// правый нижний, левый нижний.
type Quad [4]Point

// Corners возвращает углы прямоугольника w x h в порядке обхода Quad.
func Corners(width, height int) Quad {
	w, h := float64(width), float64(height)
	return Quad{{0, 0}, {w, 0}, {w, h}, {0, h}}
}
