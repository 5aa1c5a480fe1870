package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/vuhnger/backend/internal/repositories"
	"github.com/vuhnger/backend/internal/util"
	"github.com/vuhnger/backend/models"
)

// Advent calendar bounds.
const (
	CalendarFirstDay = 1
	CalendarLastDay  = 24
)

var (
	ErrInvalidDay     = fmt.Errorf("day must be between %d and %d", CalendarFirstDay, CalendarLastDay)
	ErrInvalidDayType = fmt.Errorf("content type is required")
)

type calendarDayInput struct {
	Day  int    `validate:"gte=1,lte=24"`
	Type string `validate:"required"`
}

type calendarDayLookup struct {
	Day int `validate:"gte=1,lte=24"`
}

// calendarInputError maps field-level validation failures onto the service
// sentinels the handlers discriminate on.
func calendarInputError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, fieldErr := range fieldErrs {
		if fieldErr.Field() == "Type" {
			return ErrInvalidDayType
		}
	}
	return ErrInvalidDay
}

type CalendarService struct {
	calendar repositories.CalendarRepository
}

func NewCalendarService(calendar repositories.CalendarRepository) *CalendarService {
	return &CalendarService{calendar: calendar}
}

// SeedDay creates or replaces a calendar day. Repeated seeding of the same
// day number keeps a single row.
func (s *CalendarService) SeedDay(ctx context.Context, day int, contentType string, data json.RawMessage) error {
	input := calendarDayInput{Day: day, Type: contentType}
	if err := util.ValidateStruct(input); err != nil {
		return calendarInputError(err)
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	return s.calendar.Upsert(ctx, &models.CalendarDay{
		Day:  day,
		Type: contentType,
		Data: data,
	})
}

func (s *CalendarService) GetDay(ctx context.Context, day int) (*models.CalendarDay, error) {
	if err := util.ValidateStruct(calendarDayLookup{Day: day}); err != nil {
		return nil, calendarInputError(err)
	}
	return s.calendar.Get(ctx, day)
}

func (s *CalendarService) ListDays(ctx context.Context) ([]models.CalendarDay, error) {
	return s.calendar.List(ctx)
}
