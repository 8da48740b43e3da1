package service

import (
	"context"
	"errors"
	"strings"

	"unimind_backend/internal/model"
	"unimind_backend/internal/repository"
	"unimind_backend/internal/util"

	"gorm.io/gorm"
)

// CourseService 课程浏览与选课
type CourseService struct {
	Courses *repository.CourseRepository
}

func NewCourseService(courses *repository.CourseRepository) *CourseService {
	return &CourseService{Courses: courses}
}

// NormalizeCourseCode 课程代码统一为大写
func NormalizeCourseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *CourseService) List(ctx context.Context) ([]model.Course, error) {
	return s.Courses.List(ctx)
}

func (s *CourseService) Topics(ctx context.Context, code string) ([]model.Topic, error) {
	code = NormalizeCourseCode(code)
	if _, err := s.find(ctx, code); err != nil {
		return nil, err
	}
	return s.Courses.TopicsByCourses(ctx, []string{code})
}

func (s *CourseService) find(ctx context.Context, code string) (*model.Course, error) {
	c, err := s.Courses.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *CourseService) Enrolments(ctx context.Context, userID uint) ([]model.Course, error) {
	codes, err := s.Courses.EnrolledCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses := make([]model.Course, 0, len(codes))
	for _, code := range codes {
		c, err := s.Courses.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		courses = append(courses, *c)
	}
	return courses, nil
}

func (s *CourseService) Enrol(ctx context.Context, userID uint, code string) (*model.Course, error) {
	code = NormalizeCourseCode(code)
	c, err := s.find(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := s.Courses.Enrol(ctx, userID, code); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, util.ErrAlreadyEnrolled
		}
		return nil, err
	}
	return c, nil
}

// Unenrol 退课不会删除已有的学习进度
func (s *CourseService) Unenrol(ctx context.Context, userID uint, code string) error {
	removed, err := s.Courses.Unenrol(ctx, userID, NormalizeCourseCode(code))
	if err != nil {
		return err
	}
	if !removed {
		return util.ErrEnrolmentNotFound
	}
	return nil
}
