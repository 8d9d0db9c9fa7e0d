package domain

const (
	DefaultOperationsLimit = 50
	MaxOperationsLimit     = 500
)

// Page is a limit/offset window over a wallet's history.
type Page struct {
	Limit  int
	Offset int
}

// NormalizePage applies defaults and bounds.
func NormalizePage(limit, offset int) Page {
	if limit <= 0 {
		limit = DefaultOperationsLimit
	}
	if limit > MaxOperationsLimit {
		limit = MaxOperationsLimit
	}
	if offset < 0 {
		offset = 0
	}
	return Page{Limit: limit, Offset: offset}
}

// OperationPage is one page of history, newest first.
type OperationPage struct {
	Items  []Operation `json:"items"`
	Total  int64       `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}
