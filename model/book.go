// model/book.go
package model

type Book struct {
	ID         int64    `json:"id"`
	ISBN       string   `json:"isbn"`
	Title      string   `json:"title"`
	Year       int      `json:"year"`
	Edition    string   `json:"edition,omitempty"`
	Quantity   int64    `json:"quantity"`
	ImageURL   *string  `json:"image_url,omitempty"`
	Authors    []string `json:"authors"`
	Categories []string `json:"categories"`
}

type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
