package entity

import (
	"fmt"
	"math/bits"
)

// DescriptorSize длина бинарного дескриптора в байтах (256 бит).
const DescriptorSize = 32

// Keypoint характерная точка изображения
type Keypoint struct {
	X        float64 // координата X в пикселях
	Y        float64 // координата Y в пикселях
	Size     float64 // диаметр окрестности, метаданные детектора
	Angle    float64 // ориентация в градусах, метаданные детектора
	Response float64 // сила отклика, метаданные детектора
	Octave   int     // уровень пирамиды, метаданные детектора
}

// Pt возвращает координаты точки.
func (k Keypoint) Pt() Point {
	return Point{X: k.X, Y: k.Y}
}

// Descriptor бинарный дескриптор точки
type Descriptor [DescriptorSize]byte

// Hamming считает расстояние Хэмминга между дескрипторами.
func (d *Descriptor) Hamming(o *Descriptor) int {
	dist := 0
	for i := range DescriptorSize {
		dist += bits.OnesCount8(d[i] ^ o[i])
	}
	return dist
}

// Features набор точек и дескрипторов, выровненных по индексу.
type Features struct {
	Keypoints   []Keypoint
	Descriptors []Descriptor
}

// NewFeatures собирает набор признаков. При несовпадении длин паникует.
func NewFeatures(keypoints []Keypoint, descriptors []Descriptor) Features {
	if len(keypoints) != len(descriptors) {
		panic(fmt.Sprintf("features: %d keypoints but %d descriptors", len(keypoints), len(descriptors)))
	}
	return Features{Keypoints: keypoints, Descriptors: descriptors}
}

// Len возвращает количество точек.
func (f Features) Len() int {
	return len(f.Keypoints)
}

// Empty сообщает, что точек нет.
func (f Features) Empty() bool {
	return len(f.Keypoints) == 0
}
