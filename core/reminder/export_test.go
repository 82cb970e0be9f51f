package reminder

import "time"

// test hooks

func SetNow(now func() time.Time)        { nowFunc = now }
func SetPause(pause func(time.Duration)) { pauseFunc = pause }

func RestoreClock() {
	nowFunc = time.Now
	pauseFunc = time.Sleep
}
