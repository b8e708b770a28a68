package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hadirku/hadirku-backend/internal/config"
	"github.com/hadirku/hadirku-backend/internal/database"
	"github.com/hadirku/hadirku-backend/internal/geo"
	"github.com/hadirku/hadirku-backend/internal/logger"
	"github.com/hadirku/hadirku-backend/internal/model"
	"github.com/hadirku/hadirku-backend/internal/repository"
	"github.com/hadirku/hadirku-backend/internal/service"
)

// Seeds a demo data set: one teacher, one class location, one course, a
// batch of students and an attendance session for today.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	studentRepo := repository.NewStudentRepository(pool)
	teacherRepo := repository.NewTeacherRepository(pool)
	locationRepo := repository.NewClassLocationRepository(pool)
	sessionRepo := repository.NewAttendanceSessionRepository(pool)

	studentService := service.NewStudentService(studentRepo)
	teacherService := service.NewTeacherService(teacherRepo)

	fmt.Println("=== Seeding Demo Data ===")

	// Teacher
	teacher, err := teacherRepo.GetByEmail(ctx, "guru@hadirku.id")
	if err != nil {
		if err != pgx.ErrNoRows {
			log.Fatal().Err(err).Msg("Failed to look up teacher")
		}
		teacher = &model.Teacher{
			Email:        "guru@hadirku.id",
			Name:         "Guru Demo",
			PasswordHash: "rahasia123",
		}
		if err := teacherService.Create(ctx, teacher); err != nil {
			log.Fatal().Err(err).Msg("Failed to create teacher")
		}
		fmt.Printf("Created teacher with ID: %d\n", teacher.ID)
	}

	// Class location (SMKN 1 main building, Denpasar)
	location := &model.ClassLocation{
		Name: "Gedung Utama",
		Coordinate: geo.Coordinate{
			Latitude:  -8.65237,
			Longitude: 115.21983,
		},
		RadiusMeters: 150,
		Address:      "Jl. Cokroaminoto No. 84, Denpasar",
	}
	if err := locationRepo.Create(ctx, location); err != nil {
		log.Fatal().Err(err).Msg("Failed to create class location")
	}
	fmt.Printf("Created class location: %s\n", location.ID)

	// Class and course
	var classID int
	err = pool.QueryRow(ctx,
		`INSERT INTO classes (name) VALUES ($1) RETURNING id`, "XII TKJ 2",
	).Scan(&classID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create class")
	}
	fmt.Printf("Created class with ID: %d\n", classID)

	courseID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO courses (id, class_id, name, teacher_id) VALUES ($1, $2, $3, $4)`,
		courseID, classID, "Matematika", teacher.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create course")
	}
	fmt.Printf("Created course: %s\n", courseID)

	// Students
	for i := 1; i <= 20; i++ {
		student := &model.Student{
			NISN:         fmt.Sprintf("00412%05d", i),
			Name:         fmt.Sprintf("Siswa Demo %02d", i),
			PasswordHash: "siswa123",
			ClassID:      classID,
		}
		if err := studentService.Create(ctx, student); err != nil {
			log.Fatal().Err(err).Int("index", i).Msg("Failed to create student")
		}
	}
	fmt.Println("Created 20 students (password: siswa123)")

	// Today's session, 07:30-09:00, open for check-in
	now := time.Now()
	session := &model.AttendanceSession{
		CourseID:         courseID,
		Date:             time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local),
		StartTime:        "07:30",
		EndTime:          "09:00",
		ClassLocation:    *location,
		IsOpen:           true,
		AllowLateCheckIn: true,
		CreatedBy:        teacher.ID,
	}
	if err := sessionRepo.Create(ctx, session); err != nil {
		log.Fatal().Err(err).Msg("Failed to create session")
	}
	fmt.Printf("Created today's session: %s\n", session.ID)

	fmt.Println("Done.")
}
