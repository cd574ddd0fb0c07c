package utility

import (
	"encoding/json"
)

// ConvertStruct chuyển đổi một struct sang struct khác qua JSON trung gian.
// Parameters:
//   - source: Struct nguồn cần chuyển đổi
//   - target: Con trỏ đến struct đích
//
// Returns:
//   - interface{}: Struct đích đã được chuyển đổi
//   - error: Lỗi nếu có
func ConvertStruct(source interface{}, target interface{}) (interface{}, error) {
	jsonData, err := json.Marshal(source)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(jsonData, target); err != nil {
		return nil, err
	}

	return target, nil
}
