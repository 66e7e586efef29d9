package service

import (
	"math"

	"go.uber.org/zap"

	"github.com/noah-isme/gradebook-api/internal/models"
	"github.com/noah-isme/gradebook-api/pkg/config"
)

// AttendanceWeights define how non-present statuses count toward the
// weighted attendance percentage. Late counting half and excused 0.7 are the
// values observed in production; they are policy knobs pending product
// confirmation, which is why they live in config rather than inline.
type AttendanceWeights struct {
	Late    float64
	Excused float64
}

// DefaultAttendanceWeights returns the observed production weighting.
func DefaultAttendanceWeights() AttendanceWeights {
	return AttendanceWeights{Late: 0.5, Excused: 0.7}
}

// NewAttendanceWeights builds weights from config with default fill.
func NewAttendanceWeights(cfg config.GradingConfig) AttendanceWeights {
	weights := DefaultAttendanceWeights()
	if cfg.LateWeight > 0 {
		weights.Late = cfg.LateWeight
	}
	if cfg.ExcusedWeight > 0 {
		weights.Excused = cfg.ExcusedWeight
	}
	return weights
}

// AggregateAttendance reduces attendance events into bucket counts and a
// weighted percentage. Statuses are matched case-insensitively; unknown or
// missing statuses are logged and skipped entirely, so they count neither in
// a bucket nor in the total.
func AggregateAttendance(records []models.AttendanceRecord, weights AttendanceWeights, logger *zap.Logger) models.AttendanceSummary {
	var summary models.AttendanceSummary
	for _, record := range records {
		status, ok := models.ParseAttendanceStatus(record.Status)
		if !ok {
			if logger != nil {
				logger.Warn("unrecognized attendance status",
					zap.String("student_id", record.StudentID),
					zap.String("lesson_id", record.LessonID),
					zap.String("status", record.Status))
			}
			continue
		}
		switch status {
		case models.AttendancePresent:
			summary.Present++
		case models.AttendanceAbsent:
			summary.Absent++
		case models.AttendanceLate:
			summary.Late++
		case models.AttendanceExcused:
			summary.Excused++
		}
	}
	summary.Total = summary.Present + summary.Absent + summary.Late + summary.Excused
	if summary.Total == 0 {
		return summary
	}
	equivalent := float64(summary.Present) + weights.Late*float64(summary.Late) + weights.Excused*float64(summary.Excused)
	summary.Percentage = int(math.Round(100 * equivalent / float64(summary.Total)))
	return summary
}
