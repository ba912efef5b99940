package entity

import "errors"

var (
	// ErrEmptyCatalog ни один эталон не удалось загрузить
	ErrEmptyCatalog = errors.New("catalog has no usable references")

	// ErrDuplicateReference имя эталона встречается дважды
	ErrDuplicateReference = errors.New("duplicate reference name")

	// ErrInvalidImage изображение пустое или не декодируется
	ErrInvalidImage = errors.New("invalid image")
)
