package utils

func StringToPointer(s string) *string {
	return &s
}
