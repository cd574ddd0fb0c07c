package basemodels

// PaginateResult là kết quả phân trang chung cho các API trả về danh sách
// Type Parameters:
//   - T: Kiểu dữ liệu của item
type PaginateResult[T any] struct {
	Items     []T   `json:"items"`     // Danh sách các bản ghi trong trang hiện tại
	Page      int64 `json:"page"`      // Trang hiện tại
	Limit     int64 `json:"limit"`     // Số bản ghi mỗi trang
	ItemCount int64 `json:"itemCount"` // Số bản ghi thực tế trong trang hiện tại
	Total     int64 `json:"total"`     // Tổng số bản ghi
	TotalPage int64 `json:"totalPage"` // Tổng số trang
}
