package services

import (
	"testing"
	"time"

	"github.com/krasol/hobbyhub-backend/internal/models"
)

func TestMeetingOverdue(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	tests := []struct {
		name    string
		meeting models.Meeting
		want    bool
	}{
		{
			"past slot",
			models.Meeting{Date: "14.06.2025", Time: "18:30"},
			true,
		},
		{
			"future slot",
			models.Meeting{Date: "16.06.2025", Time: "09:00"},
			false,
		},
		{
			"same minute is not overdue",
			models.Meeting{Date: "15.06.2025", Time: "12:00"},
			false,
		},
		{
			"unparsable date fails closed",
			models.Meeting{Date: "June 14", Time: "18:30"},
			false,
		},
		{
			"empty slot fails closed",
			models.Meeting{},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := meetingOverdue(&tt.meeting, now); got != tt.want {
				t.Errorf("meetingOverdue = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMeetingOverdueUsesTrainerSelectedSlot(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	selectedDate := "20.06.2025"
	selectedTime := "10:00"

	meeting := models.Meeting{
		Date:                "14.06.2025",
		Time:                "18:30",
		TrainerSelectedDate: &selectedDate,
		TrainerSelectedTime: &selectedTime,
	}
	if meetingOverdue(&meeting, now) {
		t.Fatal("trainer-selected future slot should not be overdue")
	}

	pastDate := "10.06.2025"
	meeting.TrainerSelectedDate = &pastDate
	pastTime := "08:00"
	meeting.TrainerSelectedTime = &pastTime
	if !meetingOverdue(&meeting, now) {
		t.Fatal("trainer-selected past slot should be overdue")
	}
}
