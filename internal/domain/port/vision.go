package port

import (
	"image"

	"planar-recognizer/internal/domain/entity"
)

// FeatureExtractor интерфейс детектора точек и дескрипторов
type FeatureExtractor interface {
	// Extract находит точки на полутоновом изображении. Пустой набор не является ошибкой.
	Extract(img *image.Gray) (entity.Features, error)
}

// DescriptorMatcher интерфейс knn-сопоставления дескрипторов
type DescriptorMatcher interface {
	// KnnMatch для каждого дескриптора query возвращает min(k, len(train)) ближайших
	// дескрипторов train по возрастанию расстояния
	KnnMatch(query, train []entity.Descriptor, k int) ([][]entity.Neighbor, error)
}

// HomographyEstimator интерфейс робастной оценки гомографии src -> dst
type HomographyEstimator interface {
	// FitRANSAC оценивает гомографию методом RANSAC и возвращает маску inliers
	FitRANSAC(src, dst []entity.Point, reprojThreshold float64) (entity.Homography, []bool, bool)

	// FitLMedS оценивает гомографию методом наименьшей медианы квадратов
	FitLMedS(src, dst []entity.Point) (entity.Homography, bool)
}
