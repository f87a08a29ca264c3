package repos

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/skillstream/skillstream-backend/internal/logger"
	"github.com/skillstream/skillstream-backend/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&types.User{}, &types.Course{}, &types.Lecture{}, &types.LectureProgress{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestCreateIfAbsentFirstWriteWins(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewLectureProgressRepo(gdb, newTestLogger(t))
	ctx := context.Background()

	userID := uuid.New()
	courseID := uuid.New()
	lectureID := uuid.New()

	firstAt := time.Now().Add(-time.Minute)
	first := &types.LectureProgress{
		ID:          uuid.New(),
		UserID:      userID,
		CourseID:    courseID,
		LectureID:   lectureID,
		Completed:   true,
		CompletedAt: &firstAt,
	}
	if err := repo.CreateIfAbsent(ctx, nil, first); err != nil {
		t.Fatalf("first insert: %v", err)
	}

	laterAt := time.Now()
	second := &types.LectureProgress{
		ID:          uuid.New(),
		UserID:      userID,
		CourseID:    courseID,
		LectureID:   lectureID,
		Completed:   true,
		CompletedAt: &laterAt,
	}
	if err := repo.CreateIfAbsent(ctx, nil, second); err != nil {
		t.Fatalf("conflicting insert should be a no-op, got %v", err)
	}

	got, err := repo.GetByUserAndLectureID(ctx, nil, userID, lectureID)
	if err != nil {
		t.Fatalf("GetByUserAndLectureID: %v", err)
	}
	if got == nil {
		t.Fatal("row missing after insert")
	}
	if got.ID != first.ID {
		t.Fatal("conflicting insert replaced the original row")
	}
	if !got.CompletedAt.Equal(firstAt) {
		t.Fatalf("CompletedAt moved from %v to %v", firstAt, got.CompletedAt)
	}

	var count int64
	if err := gdb.Model(&types.LectureProgress{}).Where("user_id = ? AND lecture_id = ?", userID, lectureID).Count(&count).Error; err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, found %d", count)
	}
}

func TestCreateIfAbsentDistinctLectures(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewLectureProgressRepo(gdb, newTestLogger(t))
	ctx := context.Background()

	userID := uuid.New()
	courseID := uuid.New()
	now := time.Now()
	for i := 0; i < 3; i++ {
		row := &types.LectureProgress{
			ID:          uuid.New(),
			UserID:      userID,
			CourseID:    courseID,
			LectureID:   uuid.New(),
			Completed:   true,
			CompletedAt: &now,
		}
		if err := repo.CreateIfAbsent(ctx, nil, row); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	rows, err := repo.GetByUserAndCourseID(ctx, nil, userID, courseID)
	if err != nil {
		t.Fatalf("GetByUserAndCourseID: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestGetByUserAndLectureIDAbsent(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewLectureProgressRepo(gdb, newTestLogger(t))

	got, err := repo.GetByUserAndLectureID(context.Background(), nil, uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("lookup of absent row errored: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for absent row, got %+v", got)
	}
}
