package entity

import (
	"fmt"
	"image"
)

// Frame кадр видеопотока с монотонным номером
type Frame struct {
	Index uint64
	Image image.Image
}

// Recognition итог обработки одного кадра.
type Recognition struct {
	Candidate      *MatchCandidate // nil, если ничего не распознано
	Outline        Quad            // контур эталона в координатах кадра
	QueryKeypoints int             // количество точек на кадре
}

// Matched сообщает, что эталон найден.
func (r Recognition) Matched() bool {
	return r.Candidate != nil
}

// Status возвращает строку состояния для отображения.
func (r Recognition) Status() string {
	if r.Candidate == nil {
		return "No match"
	}
	return fmt.Sprintf("Match: %s — %d inliers", r.Candidate.Reference.Name, r.Candidate.InlierCount)
}
