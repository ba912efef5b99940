package entity

// Neighbor один сосед из knn-поиска
type Neighbor struct {
	QueryIdx int // индекс дескриптора кадра
	TrainIdx int // индекс дескриптора эталона
	Distance int // расстояние Хэмминга
}

// Correspondence соответствие, прошедшее ratio test
type Correspondence struct {
	QueryIdx       int
	TrainIdx       int
	BestDistance   int
	SecondDistance int
}

// MatchCandidate эталон, подтверждённый геометрией на текущем кадре
type MatchCandidate struct {
	Reference   ReferenceEntry
	InlierCount int
	Homography  Homography
}

// Rejection причина, по которой эталон не подтвердился
type Rejection string

const (
	RejectNone             Rejection = ""                  // эталон подтверждён
	RejectTooFewMatches    Rejection = "too_few_matches"   // мало соответствий после ratio test
	RejectNoHomography     Rejection = "no_homography"     // RANSAC не нашёл модель
	RejectLowInlierRatio   Rejection = "low_inlier_ratio"  // доля inliers ниже порога
	RejectRefinementFailed Rejection = "refinement_failed" // LMedS не нашёл модель
)
