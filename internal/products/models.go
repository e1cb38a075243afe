package products

import "time"

// Manga is a single manga volume in the catalog.
type Manga struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Author      string    `json:"author"`
	TomoNumber  int       `json:"tomoNumber"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Genre       string    `json:"genre,omitempty"`
	Series      string    `json:"series,omitempty"`
	Illustrator string    `json:"illustrator,omitempty"`
	Slug        string    `json:"slug"`
	Category    *Category `json:"category,omitempty"`
	Tags        []Tag     `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewManga is the payload accepted when creating or updating a manga.
type NewManga struct {
	Name        string  `json:"name" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	TomoNumber  int     `json:"tomoNumber" validate:"required,min=1"`
	Price       float64 `json:"price" validate:"min=0"`
	Stock       int     `json:"stock" validate:"min=0"`
	Genre       string  `json:"genre"`
	Series      string  `json:"series"`
	Illustrator string  `json:"illustrator"`
	CategoryID  int64   `json:"categoryId"`
	TagIDs      []int64 `json:"tags"`
}

type NewCategory struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description"`
}

type NewTag struct {
	Name string `json:"name" validate:"required,max=50"`
}
