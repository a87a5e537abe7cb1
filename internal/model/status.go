package model

// Status is the processing state of a document.
// Any state may move to any other state via an explicit edit; the analysis
// process driving transitions is external and out of scope here.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPendingOCR Status = "pending-ocr"
	StatusAnalysed   Status = "analysed"
	StatusHighRisk   Status = "high-risk"
)

// Statuses lists every defined status value.
func Statuses() []Status {
	return []Status{StatusPending, StatusPendingOCR, StatusAnalysed, StatusHighRisk}
}

// Valid reports whether s is one of the defined status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPendingOCR, StatusAnalysed, StatusHighRisk:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}
