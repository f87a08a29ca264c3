package services

import (
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
	err = gdb.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Course{},
		&types.Lecture{},
		&types.Enrollment{},
		&types.LectureProgress{},
		&types.Certificate{},
	)
	if err != nil {
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

// seedCourse creates a published course with the given lecture preview flags,
// in position order, and returns the course with its lectures loaded.
func seedCourse(t *testing.T, gdb *gorm.DB, published bool, previewFlags ...bool) *types.Course {
	t.Helper()
	creator := &types.User{ID: uuid.New(), Name: "Creator", Email: uuid.NewString() + "@example.com", Role: types.RoleAdmin}
	if err := gdb.Create(creator).Error; err != nil {
		t.Fatalf("seed creator: %v", err)
	}
	course := &types.Course{
		ID:          uuid.New(),
		CreatorID:   creator.ID,
		Title:       "Test Course",
		IsPublished: published,
	}
	if err := gdb.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	for i, preview := range previewFlags {
		lecture := &types.Lecture{
			ID:            uuid.New(),
			CourseID:      course.ID,
			Title:         fmt.Sprintf("Lecture %d", i+1),
			Position:      i + 1,
			VideoURL:      "https://cdn.example.com/" + uuid.NewString(),
			IsPreviewFree: preview,
		}
		if err := gdb.Create(lecture).Error; err != nil {
			t.Fatalf("seed lecture: %v", err)
		}
		course.Lectures = append(course.Lectures, lecture)
	}
	return course
}

func seedStudent(t *testing.T, gdb *gorm.DB) *types.User {
	t.Helper()
	student := &types.User{ID: uuid.New(), Name: "Student", Email: uuid.NewString() + "@example.com", Role: types.RoleStudent, IsVerified: true}
	if err := gdb.Create(student).Error; err != nil {
		t.Fatalf("seed student: %v", err)
	}
	return student
}

func seedEnrollment(t *testing.T, gdb *gorm.DB, userID, courseID uuid.UUID, status string) *types.Enrollment {
	t.Helper()
	now := time.Now()
	enrollment := &types.Enrollment{
		ID:       uuid.New(),
		UserID:   userID,
		CourseID: courseID,
		Status:   status,
	}
	if status == types.EnrollmentStatusActive {
		enrollment.ActivatedAt = &now
	}
	if err := gdb.Create(enrollment).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	return enrollment
}
