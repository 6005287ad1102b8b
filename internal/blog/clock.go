package blog

import "time"

// Clock は現在時刻を提供する。テストで時刻を固定するために使う。
type Clock interface {
	Now() time.Time
}

// RealClock はシステム時刻を返すClock。
type RealClock struct{}

// Now は現在時刻を返す。
func (RealClock) Now() time.Time {
	return time.Now()
}
