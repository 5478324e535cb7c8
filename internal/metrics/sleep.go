package metrics

import (
	"github.com/san-kum/rigidsim/internal/dynamo"
)

// SleepingFraction is the share of dynamic bodies asleep in the last frame.
type SleepingFraction struct {
	name  string
	value float64
}

func NewSleepingFraction() *SleepingFraction {
	return &SleepingFraction{name: "sleeping_fraction"}
}

func (s *SleepingFraction) Name() string { return s.name }

func (s *SleepingFraction) Observe(t float64, bodies []dynamo.BodyState) {
	dynamic, asleep := 0, 0
	for _, b := range bodies {
		if b.Mass == 0 {
			continue
		}
		dynamic++
		if b.Sleeping {
			asleep++
		}
	}
	if dynamic == 0 {
		s.value = 0
		return
	}
	s.value = float64(asleep) / float64(dynamic)
}

func (s *SleepingFraction) Value() float64 { return s.value }
func (s *SleepingFraction) Reset()         { s.value = 0 }

// SettleTime records the first time every dynamic body was asleep, or -1.
type SettleTime struct {
	name string
	at   float64
}

func NewSettleTime() *SettleTime {
	return &SettleTime{name: "settle_time", at: -1}
}

func (s *SettleTime) Name() string { return s.name }

func (s *SettleTime) Observe(t float64, bodies []dynamo.BodyState) {
	if s.at >= 0 {
		return
	}
	dynamic := 0
	for _, b := range bodies {
		if b.Mass == 0 {
			continue
		}
		dynamic++
		if !b.Sleeping {
			return
		}
	}
	if dynamic > 0 {
		s.at = t
	}
}

func (s *SettleTime) Value() float64 { return s.at }
func (s *SettleTime) Reset()         { s.at = -1 }
