package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"taskflow/internal/model"
	"taskflow/internal/repository"
)

func seriesEvents(count int) []*model.CalendarEvent {
	seriesID := uuid.NewString()
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	events := make([]*model.CalendarEvent, count)
	for i := range events {
		events[i] = &model.CalendarEvent{
			UserID:     uuid.New(),
			Title:      "Standup",
			StartTime:  start.AddDate(0, 0, i),
			EndTime:    start.AddDate(0, 0, i).Add(15 * time.Minute),
			CalendarID: "my",
			Color:      "#2563eb",
			Recurrence: model.RecurrenceDaily,
			SeriesID:   &seriesID,
		}
	}
	return events
}

func TestEventRepository_CreateSeries_SingleTransaction(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	eventRepo := repository.NewEventRepository(gormDB)
	events := seriesEvents(2)

	mock.ExpectBegin()
	for range events {
		mock.ExpectQuery(`INSERT INTO "calendar_events"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	}
	mock.ExpectCommit()

	// Act
	err := eventRepo.CreateSeries(context.Background(), events)

	// Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepository_CreateSeries_RollsBackOnFailure(t *testing.T) {
	// Arrange
	gormDB, mock := setupMockDB(t)
	eventRepo := repository.NewEventRepository(gormDB)
	events := seriesEvents(3)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "calendar_events"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(`INSERT INTO "calendar_events"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	// Act
	err := eventRepo.CreateSeries(context.Background(), events)

	// Assert: the occurrence already inserted is rolled back with the
	// failed one.
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
