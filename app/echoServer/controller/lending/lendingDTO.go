package lending

type CreateLendingReq struct {
	BookID int64 `json:"book_id" validate:"required,gt=0"`
}

type EditDueDateReq struct {
	DueDate string `json:"due_date" validate:"required"`
}
