package utils

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

const maxPopulationSamples = 256

// Stats for performance monitoring
type Stats struct {
	GenerationsPerSecond float64
	AveragePopulation    float64
	TotalGenerations     int
	StartTime            time.Time

	samples []float64 // recent living counts, oldest first
}

func NewStats() *Stats {
	return &Stats{StartTime: time.Now()}
}

func (s *Stats) Update(generation int, population int, duration time.Duration) {
	s.TotalGenerations = generation
	if duration > 0 {
		s.GenerationsPerSecond = 1.0 / duration.Seconds()
	}

	// Simple moving average for population
	if s.AveragePopulation == 0 {
		s.AveragePopulation = float64(population)
	} else {
		s.AveragePopulation = (s.AveragePopulation * 0.9) + (float64(population) * 0.1)
	}

	s.samples = append(s.samples, float64(population))
	if len(s.samples) > maxPopulationSamples {
		s.samples = s.samples[1:]
	}
}

// PopulationSpread returns the mean and standard deviation of the recent
// population samples
func (s *Stats) PopulationSpread() (mean, std float64) {
	switch len(s.samples) {
	case 0:
		return 0, 0
	case 1:
		return s.samples[0], 0
	}
	return stat.MeanStdDev(s.samples, nil)
}

// Reset forgets every sample and restarts the clock
func (s *Stats) Reset() {
	*s = Stats{StartTime: time.Now()}
}
