package analytics

import (
	"context"
	"time"

	"github.com/jwalitptl/flow-api/internal/ml"
	"github.com/jwalitptl/flow-api/internal/model"
)

const forecastHorizonHours = 6

// Forecast projects the expected wait for the next few clinic hours,
// starting at the current hour and stopping at close. With a live model each
// hour is scored against its own booking volume and dominant specialty;
// otherwise time-of-day baselines serve.
func (s *Service) Forecast(ctx context.Context, asOf time.Time) ([]*model.HourlyForecast, error) {
	appointments, doctors, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	index := indexDoctors(doctors)

	counts := make(map[int]int)
	specialtyByHour := make(map[int]map[model.Specialty]int)
	for _, a := range appointments {
		if !a.OnDate(asOf) {
			continue
		}
		hour := a.HourOfDay()
		counts[hour]++
		doc, ok := index[a.DoctorID]
		if !ok {
			continue
		}
		if specialtyByHour[hour] == nil {
			specialtyByHour[hour] = make(map[model.Specialty]int)
		}
		specialtyByHour[hour][doc.Specialty]++
	}

	m := s.predictions.Current()
	avgExperience, avgConsultation := doctorAverages(doctors)
	fallbackSpecialty := modalSpecialty(doctors)

	out := make([]*model.HourlyForecast, 0, forecastHorizonHours)
	for i := 0; i < forecastHorizonHours; i++ {
		hour := asOf.Hour() + i
		if hour >= closingHour {
			break
		}

		point := &model.HourlyForecast{Hour: hour, Appointments: counts[hour]}
		point.ExpectedWaitMinutes = baselineWait(hour)
		if m != nil {
			spec := dominantSpecialty(specialtyByHour[hour], fallbackSpecialty)
			predicted, err := m.PredictVector(m.Encoder.Encode(ml.Sample{
				HourOfDay:              hour,
				DayOfWeek:              model.WeekdayIndex(asOf),
				Specialty:              string(spec),
				DoctorExperience:       avgExperience,
				AvgConsultationMinutes: avgConsultation,
				ScheduledPatientsCount: counts[hour],
			}))
			if err == nil {
				point.ExpectedWaitMinutes = predicted
			}
		}
		out = append(out, point)
	}
	return out, nil
}

func baselineWait(hour int) float64 {
	switch {
	case hour >= peakStartHour && hour < peakEndHour:
		return 35
	case hour >= 14:
		return 25
	default:
		return 15
	}
}

func doctorAverages(doctors []*model.Doctor) (experience, consultation int) {
	if len(doctors) == 0 {
		return 0, 0
	}
	expSum, consultSum := 0, 0
	for _, d := range doctors {
		expSum += d.ExperienceYears
		consultSum += d.AvgConsultationMinutes
	}
	return expSum / len(doctors), consultSum / len(doctors)
}

// dominantSpecialty picks the hour's busiest specialty, breaking ties toward
// the alphabetically first so repeated calls agree.
func dominantSpecialty(counts map[model.Specialty]int, fallback model.Specialty) model.Specialty {
	best := fallback
	bestCount := 0
	for spec, c := range counts {
		if c > bestCount || (c == bestCount && bestCount > 0 && spec < best) {
			best = spec
			bestCount = c
		}
	}
	return best
}

func modalSpecialty(doctors []*model.Doctor) model.Specialty {
	counts := make(map[model.Specialty]int)
	for _, d := range doctors {
		counts[d.Specialty]++
	}
	var best model.Specialty
	bestCount := 0
	for spec, c := range counts {
		if c > bestCount || (c == bestCount && spec < best) {
			best = spec
			bestCount = c
		}
	}
	return best
}
