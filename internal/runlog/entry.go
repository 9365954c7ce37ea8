package runlog

import "strings"

const (
	// EndpointGet はreadリクエストのエンドポイント名
	EndpointGet = "/get"
	// EndpointPut はwriteリクエストのエンドポイント名
	EndpointPut = "/put"

	StatusOK   = "OK"
	StatusFail = "FAIL"
)

// RequestColumns はリクエストログのヘッダ
var RequestColumns = []string{"timestamp", "type", "name", "status", "response_time", "response_length"}

// IntervalColumn はインターバルログの列名
const IntervalColumn = "interval_ms"

// RequestEntry はリクエストログの1行
type RequestEntry struct {
	Timestamp       float64 // ms since epoch
	Type            string  // GET / POST
	Name            string  // /get or /put
	Status          string  // OK / FAIL
	ResponseTime    float64 // ms, HasResponseTime が false なら未定義
	HasResponseTime bool
	ResponseLength  int64
}

// IsRead は/getリクエストかどうかを返す
func (e RequestEntry) IsRead() bool {
	return e.Name == EndpointGet
}

// IsWrite は/putリクエストかどうかを返す
func (e RequestEntry) IsWrite() bool {
	return e.Name == EndpointPut
}

// naTokens は未定義値として扱うセル
var naTokens = map[string]struct{}{
	"":      {},
	"none":  {},
	"nan":   {},
	"-nan":  {},
	"null":  {},
	"na":    {},
	"n/a":   {},
	"<na>":  {},
	"#n/a":  {},
	"nil":   {},
	"undef": {},
}

func isNA(cell string) bool {
	_, ok := naTokens[strings.ToLower(strings.TrimSpace(cell))]
	return ok
}
