package port

import (
	"context"
	"image"

	"planar-recognizer/internal/domain/entity"
)

// FrameSource источник кадров. Конец потока обозначается io.EOF.
type FrameSource interface {
	Next(ctx context.Context) (entity.Frame, error)
}

// RenderSink приёмник результатов распознавания
type RenderSink interface {
	Render(ctx context.Context, frame entity.Frame, rec entity.Recognition) error
}

// ReferenceLoader загружает изображение эталона по адресу
type ReferenceLoader interface {
	Load(ctx context.Context, url string) (image.Image, error)
}

// PipelineObserver получает события конвейера для метрик
type PipelineObserver interface {
	FrameSkipped()
	FrameProcessed(rec entity.Recognition, seconds float64)
	ReferenceRejected(reference string, reason entity.Rejection)
}
