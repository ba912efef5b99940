package entity

import "fmt"

// ReferenceSource описание эталона из манифеста каталога
type ReferenceSource struct {
	Name   string `json:"name"`             // уникальное имя эталона
	URL    string `json:"url"`              // путь к файлу или http(s) адрес
	Width  int    `json:"width,omitempty"`  // ожидаемая ширина, если известна
	Height int    `json:"height,omitempty"` // ожидаемая высота, если известна
}

// ReferenceEntry эталон с вычисленными признаками
type ReferenceEntry struct {
	Name     string
	Features Features
	Width    int // ширина изображения, по которому считались признаки
	Height   int // высота изображения, по которому считались признаки
}

// Catalog неизменяемый набор эталонов в порядке регистрации.
type Catalog struct {
	entries []ReferenceEntry
	index   map[string]int
}

// NewCatalog собирает каталог. Имена должны быть уникальны.
func NewCatalog(entries []ReferenceEntry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]ReferenceEntry, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if _, dup := c.index[e.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateReference, e.Name)
		}
		c.index[e.Name] = i
		c.entries[i] = e
	}
	return c, nil
}

// Entries возвращает эталоны в порядке регистрации. Срез нельзя изменять.
func (c *Catalog) Entries() []ReferenceEntry {
	return c.entries
}

// Lookup ищет эталон по имени.
func (c *Catalog) Lookup(name string) (ReferenceEntry, bool) {
	i, ok := c.index[name]
	if !ok {
		return ReferenceEntry{}, false
	}
	return c.entries[i], true
}

// Len возвращает количество эталонов.
func (c *Catalog) Len() int {
	return len(c.entries)
}
