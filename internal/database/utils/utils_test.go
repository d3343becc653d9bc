package utils

import "testing"

func TestNodeToType(t *testing.T) {
	type record struct {
		Title     string `json:"title"`
		CreatedAt int64  `json:"createdAt"`
		IsActive  bool   `json:"isActive"`
	}

	node := map[string]interface{}{
		"title":     "Desk lamp",
		"createdAt": float64(1717000000000),
		"isActive":  true,
		"unknown":   "ignored",
	}

	var r record
	if err := NodeToType(node, &r); err != nil {
		t.Fatalf("NodeToType() error = %v", err)
	}
	if r.Title != "Desk lamp" || r.CreatedAt != 1717000000000 || !r.IsActive {
		t.Errorf("NodeToType() = %+v", r)
	}
}

func TestNodeToType_Errors(t *testing.T) {
	var r struct {
		CreatedAt int64 `json:"createdAt"`
	}

	if err := NodeToType(nil, &r); err == nil {
		t.Error("expected an error for a nil node")
	}
	if err := NodeToType(map[string]interface{}{"createdAt": "yesterday"}, &r); err == nil {
		t.Error("expected an error for a mistyped field")
	}
}
