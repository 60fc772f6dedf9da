package service

import "time"

// Clock 抽象化目前時間的來源，讓交接期限與到期掃描可以在測試中操控時間
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 回傳使用實際時間的 Clock
func SystemClock() Clock { return systemClock{} }
