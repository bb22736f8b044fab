package book

type BookReq struct {
	ISBN       string   `json:"isbn" validate:"required"`
	Title      string   `json:"title" validate:"required"`
	Year       int      `json:"year" validate:"omitempty,gte=1000"`
	Edition    string   `json:"edition"`
	Quantity   int64    `json:"quantity" validate:"gte=0"`
	ImageURL   *string  `json:"image_url"`
	Authors    []string `json:"authors" validate:"required,min=1,dive,required"`
	Categories []string `json:"categories" validate:"omitempty,dive,required"`
}
