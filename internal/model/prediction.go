package model

import (
	"time"
)

// PredictRequest carries raw feature values for a one-off prediction.
type PredictRequest struct {
	HourOfDay              int    `json:"hour_of_day" binding:"min=0,max=23"`
	DayOfWeek              int    `json:"day_of_week" binding:"min=0,max=6"`
	Specialty              string `json:"specialty" binding:"required"`
	DoctorExperience       int    `json:"doctor_experience" binding:"gte=0"`
	AvgConsultationMinutes int    `json:"avg_consultation_time" binding:"required,gt=0"`
	ScheduledPatientsCount int    `json:"scheduled_patients_count" binding:"gte=0"`
	ArrivedEarly           bool   `json:"arrived_early"`
}

// FeatureImportance is one (feature, weight) pair; weights across the model
// sum to 1.
type FeatureImportance struct {
	Feature string  `json:"feature"`
	Weight  float64 `json:"weight"`
}

// ModelInfo describes the live model, if any.
type ModelInfo struct {
	Trained     bool                `json:"trained"`
	TrainedAt   *time.Time          `json:"trained_at,omitempty"`
	Examples    int                 `json:"examples,omitempty"`
	MAE         float64             `json:"mae,omitempty"`
	RMSE        float64             `json:"rmse,omitempty"`
	Importances []FeatureImportance `json:"importances,omitempty"`
}

// TrainResult is the HTTP surface of a training call.
type TrainResult struct {
	Trained  bool    `json:"trained"`
	Examples int     `json:"examples,omitempty"`
	MAE      float64 `json:"mae,omitempty"`
	RMSE     float64 `json:"rmse,omitempty"`
	Reason   string  `json:"reason,omitempty"`
}

// WaitTimeModelRecord is a persisted snapshot of a trained model. Blob holds
// the serialized forest; the metric columns are denormalized for listing
// without decoding it.
type WaitTimeModelRecord struct {
	Base
	Blob      []byte    `db:"blob" json:"-"`
	Examples  int       `db:"examples" json:"examples"`
	MAE       float64   `db:"mae" json:"mae"`
	RMSE      float64   `db:"rmse" json:"rmse"`
	TrainedAt time.Time `db:"trained_at" json:"trained_at"`
}
