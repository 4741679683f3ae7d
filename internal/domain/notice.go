package domain

import "time"

// NoticeKind operation a notice belongs to.
type NoticeKind string

const (
	NoticeTrade   NoticeKind = "trade"
	NoticeDeposit NoticeKind = "deposit"
	NoticeProfile NoticeKind = "profile"
	NoticeLedger  NoticeKind = "ledger"
)

// Notice transient user-visible message about the last operation of a kind.
type Notice struct {
	Kind  NoticeKind `json:"kind"`
	Text  string     `json:"text"`
	Error bool       `json:"error"`
	At    time.Time  `json:"at"`
}
