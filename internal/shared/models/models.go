package models

import (
	"errors"
	"time"
)

// ViewerUsername is the username carried by every anonymous viewer session.
const ViewerUsername = "浏览者"

type AccountRecord struct {
	ID          string  `json:"id"`
	AccountCode string  `json:"account_code"`
	AccountName string  `json:"account_name"`
	TotalAmount int64   `json:"total_amount"`
	Manager     string  `json:"manager"`
	CreatedTime string  `json:"created_time"`
	PaidAmounts []int64 `json:"paid_amounts"`
	Locked      bool    `json:"locked"`
}

// Paid sums every recorded payment.
func (a AccountRecord) Paid() int64 {
	var sum int64
	for _, p := range a.PaidAmounts {
		sum += p
	}
	return sum
}

// Remaining is TotalAmount minus all payments. It is never stored.
func (a AccountRecord) Remaining() int64 {
	return a.TotalAmount - a.Paid()
}

// CheckedRemaining is Remaining computed without wrapping. ok is false when
// the payment sum or the difference does not fit in an int64.
func (a AccountRecord) CheckedRemaining() (remaining int64, ok bool) {
	var paid int64
	for _, p := range a.PaidAmounts {
		if paid, ok = addInt64(paid, p); !ok {
			return 0, false
		}
	}
	return subInt64(a.TotalAmount, paid)
}

func addInt64(a, b int64) (int64, bool) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, false
	}
	return s, true
}

func subInt64(a, b int64) (int64, bool) {
	d := a - b
	if (b > 0 && d > a) || (b < 0 && d < a) {
		return 0, false
	}
	return d, true
}

// Clone returns a copy that shares no memory with a.
func (a AccountRecord) Clone() AccountRecord {
	out := a
	out.PaidAmounts = append(make([]int64, 0, len(a.PaidAmounts)), a.PaidAmounts...)
	return out
}

// AccountView is an AccountRecord as listed: with its position and the
// derived remaining amount.
type AccountView struct {
	AccountRecord
	Index           int   `json:"index"`
	RemainingAmount int64 `json:"remaining_amount"`
}

func NewAccountView(index int, rec AccountRecord) AccountView {
	return AccountView{AccountRecord: rec.Clone(), Index: index, RemainingAmount: rec.Remaining()}
}

type UserSession struct {
	Username  string `json:"username"`
	IsViewer  bool   `json:"is_viewer"`
	LoginTime string `json:"login_time"`
}

// LoggedInAt parses LoginTime.
func (s UserSession) LoggedInAt() (time.Time, error) {
	return ParseTimestamp(s.LoginTime)
}

// Expired reports whether the session is at least ttl old at now.
// A session with an unreadable login time is always expired.
func (s UserSession) Expired(now time.Time, ttl time.Duration) bool {
	at, err := s.LoggedInAt()
	if err != nil {
		return true
	}
	return now.Sub(at) >= ttl
}

// Timestamp layouts accepted when reading documents. The last two have no
// zone and are read as local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

var ErrBadTimestamp = errors.New("bad timestamp")

func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339Nano {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrBadTimestamp
}
