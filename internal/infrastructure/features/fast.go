package features

// circle окружность Брезенхэма радиуса 3 для FAST, по часовой стрелке.
var circle = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

// fastArc минимальная длина непрерывной дуги (FAST-9).
const fastArc = 9

type corner struct {
	x, y     int
	score    int
	response float64
}

// detectFAST ищет углы FAST-9 с подавлением немаксимумов 3x3.
func detectFAST(p plane, threshold, border int) []corner {
	if p.w <= 2*border || p.h <= 2*border {
		return nil
	}
	scores := make([]int, p.w*p.h)
	for y := border; y < p.h-border; y++ {
		for x := border; x < p.w-border; x++ {
			scores[y*p.w+x] = fastScore(p, x, y, threshold)
		}
	}

	var out []corner
	for y := border; y < p.h-border; y++ {
		for x := border; x < p.w-border; x++ {
			s := scores[y*p.w+x]
			if s == 0 || !isLocalMax(scores, p.w, x, y) {
				continue
			}
			out = append(out, corner{x: x, y: y, score: s})
		}
	}
	return out
}

// isLocalMax при равных значениях оставляет первую точку в порядке развёртки.
func isLocalMax(scores []int, w, x, y int) bool {
	s := scores[y*w+x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			n := scores[(y+dy)*w+x+dx]
			if n > s {
				return false
			}
			if n == s && (dy < 0 || (dy == 0 && dx < 0)) {
				return false
			}
		}
	}
	return true
}

// fastScore возвращает 0 для не-угла, иначе сумму превышений порога на дуге.
func fastScore(p plane, x, y, t int) int {
	c := p.at(x, y)
	hi, lo := c+t, c-t

	// Дуга из 9 точек накрывает минимум две из четырёх опорных.
	bright, dark := 0, 0
	for i := 0; i < 16; i += 4 {
		v := p.at(x+circle[i][0], y+circle[i][1])
		if v > hi {
			bright++
		} else if v < lo {
			dark++
		}
	}
	if bright < 2 && dark < 2 {
		return 0
	}

	var vals [16]int
	for i := range circle {
		vals[i] = p.at(x+circle[i][0], y+circle[i][1])
	}
	if bright >= 2 && hasArc(vals, func(v int) bool { return v > hi }) {
		return arcScore(vals, func(v int) int { return v - hi })
	}
	if dark >= 2 && hasArc(vals, func(v int) bool { return v < lo }) {
		return arcScore(vals, func(v int) int { return lo - v })
	}
	return 0
}

func hasArc(vals [16]int, ok func(int) bool) bool {
	run := 0
	for i := 0; i < 16+fastArc-1; i++ {
		if ok(vals[i%16]) {
			run++
			if run >= fastArc {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}

func arcScore(vals [16]int, excess func(int) int) int {
	score := 0
	for _, v := range vals {
		if d := excess(v); d > 0 {
			score += d
		}
	}
	// Угол с нулевым превышением всё равно угол.
	return score + 1
}

// harrisResponse отклик Харриса в окне 7x7 с центральными разностями.
func harrisResponse(p plane, x, y int) float64 {
	const r = 3
	const k = 0.04
	var a, b, c float64
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			px, py := x+dx, y+dy
			ix := float64(p.at(px+1, py) - p.at(px-1, py))
			iy := float64(p.at(px, py+1) - p.at(px, py-1))
			a += ix * ix
			b += ix * iy
			c += iy * iy
		}
	}
	return a*c - b*b - k*(a+c)*(a+c)
}
