package category

import "errors"

// Categories are shared by every user; transactions reference them by id.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

var ErrNotFound = errors.New("category not found")

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=50"`
}
